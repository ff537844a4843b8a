package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceloft/traceloft/codec"
	"github.com/traceloft/traceloft/engine"
	"github.com/traceloft/traceloft/extract"
	"github.com/traceloft/traceloft/storage"
	badgerstore "github.com/traceloft/traceloft/storage/badger"
)

func setupServer(t *testing.T, opts ...engine.Option) (*httptest.Server, storage.ObjectStore, *engine.Engine) {
	t.Helper()

	store, err := badgerstore.OpenMemory("traces")
	require.NoError(t, err)

	e, err := engine.New(store, extract.NewSpanSummary(), opts...)
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(NewHandler(e, store, nil)))

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.Shutdown(ctx)
		store.Close()
	})

	return server, store, e
}

func tracePayload(n int) string {
	return fmt.Sprintf(
		`{"service":"checkout","spans":[{"name":"op","trace_id":"t%d","span_id":"s%d","start_unix_nano":1,"end_unix_nano":2}]}`,
		n, n)
}

func TestSubmit_Accepted(t *testing.T) {
	server, _, _ := setupServer(t)

	resp, err := http.Post(server.URL+"/v1/traces", "application/json",
		strings.NewReader(tracePayload(1)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, uint64(1), ack.Seq)
}

func TestSubmit_EmptyBody(t *testing.T) {
	server, _, _ := setupServer(t)

	resp, err := http.Post(server.URL+"/v1/traces", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_MethodNotAllowed(t *testing.T) {
	server, _, _ := setupServer(t)

	resp, err := http.Get(server.URL + "/v1/traces")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSubmit_ShuttingDown(t *testing.T) {
	server, _, e := setupServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Shutdown(ctx))

	resp, err := http.Post(server.URL+"/v1/traces", "application/json",
		strings.NewReader(tracePayload(1)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	server, _, _ := setupServer(t, engine.WithBatchSize(1))

	resp, err := http.Post(server.URL+"/v1/traces", "application/json",
		strings.NewReader(tracePayload(1)))
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var counters engine.Counters
		if err := json.NewDecoder(resp.Body).Decode(&counters); err != nil {
			return false
		}
		return counters.BatchesCommitted == 1 && counters.Accepted == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestListAndReadBatches(t *testing.T) {
	server, _, _ := setupServer(t, engine.WithBatchSize(2), engine.WithBatchTimeout(time.Hour))

	for i := 0; i < 2; i++ {
		resp, err := http.Post(server.URL+"/v1/traces", "application/json",
			strings.NewReader(tracePayload(i)))
		require.NoError(t, err)
		resp.Body.Close()
	}

	var summaries []BatchSummary
	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/v1/batches")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
			return false
		}
		return len(summaries) == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, 2, summaries[0].Count)

	resp, err := http.Get(server.URL + "/v1/batches/" + summaries[0].Key)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	object, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	entities, _, err := codec.OpenObject(object)
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestReadBatch_Errors(t *testing.T) {
	server, _, _ := setupServer(t)

	resp, err := http.Get(server.URL + "/v1/batches/not-a-key")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/v1/batches/traces/2026/08/29/14/0102030405060708")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestParseRange(t *testing.T) {
	rng, err := parseRange("", "")
	require.NoError(t, err)
	assert.Nil(t, rng)

	rng, err = parseRange("5", "10")
	require.NoError(t, err)
	require.NotNil(t, rng)
	assert.Equal(t, int64(5), rng.Offset)
	assert.Equal(t, int64(10), rng.Length)

	for _, pair := range [][2]string{{"5", ""}, {"", "10"}, {"-1", "10"}, {"5", "0"}, {"x", "10"}} {
		_, err := parseRange(pair[0], pair[1])
		assert.Error(t, err, "offset=%q length=%q", pair[0], pair[1])
	}
}
