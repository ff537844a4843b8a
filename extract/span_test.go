package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceloft/traceloft/core"
)

func validPayload() []byte {
	return []byte(`{
		"service": "checkout",
		"spans": [
			{"name": "http.request", "trace_id": "a1b2", "span_id": "01", "start_unix_nano": 1000000000, "end_unix_nano": 1250000000},
			{"name": "db.query", "trace_id": "a1b2", "span_id": "02", "start_unix_nano": 1050000000, "end_unix_nano": 1200000000},
			{"name": "cache.get", "trace_id": "c3d4", "span_id": "03", "start_unix_nano": 1100000000, "end_unix_nano": 1110000000}
		]
	}`)
}

func TestSpanSummary_Extract(t *testing.T) {
	attrs, err := NewSpanSummary().Extract(validPayload())
	require.NoError(t, err)

	assert.Equal(t, "checkout", attrs["service.name"])
	assert.Equal(t, "3", attrs["span.count"])
	assert.Equal(t, "2", attrs["trace.count"])
	assert.Equal(t, "a1b2", attrs["trace.id"])
	// Earliest start 1000ms, latest end 1250ms.
	assert.Equal(t, "250", attrs["duration.ms"])
}

func TestSpanSummary_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `this is not json`},
		{name: "empty object", payload: `{}`},
		{name: "missing service", payload: `{"spans":[{"name":"op","trace_id":"a","span_id":"b"}]}`},
		{name: "no spans", payload: `{"service":"checkout","spans":[]}`},
		{name: "span without trace id", payload: `{"service":"checkout","spans":[{"name":"op","span_id":"b"}]}`},
		{
			name:    "span ends before start",
			payload: `{"service":"checkout","spans":[{"name":"op","trace_id":"a","span_id":"b","start_unix_nano":20,"end_unix_nano":10}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpanSummary().Extract([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestSpanSummary_Deterministic(t *testing.T) {
	e := NewSpanSummary()
	first, err := e.Extract(validPayload())
	require.NoError(t, err)
	second, err := e.Extract(validPayload())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFunc_Adapter(t *testing.T) {
	called := false
	f := Func(func(payload []byte) (core.Metadata, error) {
		called = true
		return core.Metadata{"len": "5"}, nil
	})

	attrs, err := f.Extract([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "5", attrs["len"])
}
