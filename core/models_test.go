package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{
			name:    "same content produces same ID",
			content: []byte("test content"),
		},
		{
			name:    "empty input",
			content: nil,
		},
		{
			name:    "binary content",
			content: []byte{0x00, 0xff, 0x10, 0x7f, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent([]byte("content1"))
	id2 := IDFromContent([]byte("content2"))

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestID_Hex(t *testing.T) {
	id := ID(0x0102030405060708)
	want := "0102030405060708"
	if got := id.Hex(); got != want {
		t.Errorf("ID.Hex() = %v, want %v", got, want)
	}

	if got := ID(0).Hex(); len(got) != 16 {
		t.Errorf("ID.Hex() length = %d, want 16", len(got))
	}
}

func TestBatch_Append(t *testing.T) {
	b := NewBatch(4)

	if b.Len() != 0 {
		t.Fatalf("new batch Len() = %d, want 0", b.Len())
	}
	if !b.FirstEntityAt().IsZero() {
		t.Errorf("empty batch FirstEntityAt() should be zero")
	}

	if err := b.Append(&Entity{Seq: 1, Payload: []byte("abc")}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := b.Append(&Entity{Seq: 2, Payload: []byte("defgh")}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
	if b.RawSize() != 8 {
		t.Errorf("RawSize() = %d, want 8", b.RawSize())
	}
	if b.FirstEntityAt().IsZero() {
		t.Errorf("FirstEntityAt() should be set after first append")
	}
}

func TestBatch_Seal(t *testing.T) {
	b := NewBatch(1)
	if err := b.Append(&Entity{Seq: 1}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	b.Seal()
	if !b.Sealed() {
		t.Errorf("Sealed() = false after Seal()")
	}

	if err := b.Append(&Entity{Seq: 2}); err != ErrBatchSealed {
		t.Errorf("Append() after Seal() error = %v, want ErrBatchSealed", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d after rejected append, want 1", b.Len())
	}
}

func TestObjectKey_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{name: "simple prefix", prefix: "traces"},
		{name: "nested prefix", prefix: "traces/prod/eu-west"},
	}

	createdAt := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := MakeObjectKey(tt.prefix, createdAt, ID(0xdeadbeef01020304))

			parsed, err := ParseObjectKey(key.String())
			if err != nil {
				t.Fatalf("ParseObjectKey(%q) error = %v", key.String(), err)
			}
			if parsed != key {
				t.Errorf("ParseObjectKey() = %+v, want %+v", parsed, key)
			}
		})
	}
}

func TestMakeObjectKey_Bucket(t *testing.T) {
	createdAt := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	key := MakeObjectKey("traces", createdAt, ID(1))

	if key.Bucket != "2026/08/29/14" {
		t.Errorf("Bucket = %q, want %q", key.Bucket, "2026/08/29/14")
	}
}

func TestParseObjectKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "too few segments", key: "traces/2026/08/29"},
		{name: "bad identifier", key: "traces/2026/08/29/14/nothex"},
		{name: "short identifier", key: "traces/2026/08/29/14/0102"},
		{name: "missing prefix", key: "/2026/08/29/14/0102030405060708"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseObjectKey(tt.key); err == nil {
				t.Errorf("ParseObjectKey(%q) expected error", tt.key)
			}
		})
	}
}
