package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traceloft/traceloft/storage"
)

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing URI", cfg: Config{Database: "traceloft", Collection: "batches"}},
		{name: "missing database", cfg: Config{URI: "mongodb://localhost:27017", Collection: "batches"}},
		{name: "missing collection", cfg: Config{URI: "mongodb://localhost:27017", Database: "traceloft"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSliceRange(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}

	full, err := sliceRange(data, nil)
	assert.NoError(t, err)
	assert.Equal(t, data, full)

	mid, err := sliceRange(data, &storage.ByteRange{Offset: 2, Length: 3})
	assert.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, mid)

	_, err = sliceRange(data, &storage.ByteRange{Offset: 4, Length: 3})
	assert.ErrorIs(t, err, storage.ErrInvalidRange)

	_, err = sliceRange(data, &storage.ByteRange{Offset: -1, Length: 2})
	assert.ErrorIs(t, err, storage.ErrInvalidRange)
}

func TestClassifyWrite_Unclassified(t *testing.T) {
	err := classifyWrite(assert.AnError)
	assert.False(t, storage.IsRetryable(err), "unknown errors must be terminal")

	err = classifyWrite(context.DeadlineExceeded)
	assert.True(t, storage.IsRetryable(err), "deadline exceeded is transient")
}
