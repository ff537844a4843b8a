// Copyright 2026 Traceloft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/traceloft/traceloft/core"
)

// tracePayload is the ingested wire shape: one service export carrying
// a flat list of spans.
type tracePayload struct {
	Service string        `json:"service"`
	Spans   []spanPayload `json:"spans"`
}

type spanPayload struct {
	Name          string `json:"name"`
	TraceID       string `json:"trace_id"`
	SpanID        string `json:"span_id"`
	StartUnixNano uint64 `json:"start_unix_nano"`
	EndUnixNano   uint64 `json:"end_unix_nano"`
}

// SpanSummary is the default Extractor: it parses the JSON trace
// payload and derives summary attributes for batching and query-side
// filtering.
//
// Derived attributes:
//
//	service.name   exporting service
//	span.count     number of spans in the payload
//	trace.count    number of distinct trace IDs
//	trace.id       trace ID of the first span
//	duration.ms    span from earliest start to latest end, milliseconds
type SpanSummary struct{}

var _ Extractor = SpanSummary{}

// NewSpanSummary returns the default extractor.
func NewSpanSummary() SpanSummary {
	return SpanSummary{}
}

// Extract derives summary attributes from one payload. Any parse or
// shape violation returns ErrMalformedPayload; the caller drops the
// message and counts the failure.
func (SpanSummary) Extract(payload []byte) (core.Metadata, error) {
	var doc tracePayload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if doc.Service == "" {
		return nil, fmt.Errorf("%w: missing service", ErrMalformedPayload)
	}
	if len(doc.Spans) == 0 {
		return nil, fmt.Errorf("%w: no spans", ErrMalformedPayload)
	}

	traces := make(map[string]struct{}, len(doc.Spans))
	var earliest, latest uint64
	for i, span := range doc.Spans {
		if span.TraceID == "" || span.SpanID == "" {
			return nil, fmt.Errorf("%w: span %d missing identifiers", ErrMalformedPayload, i)
		}
		if span.EndUnixNano < span.StartUnixNano {
			return nil, fmt.Errorf("%w: span %d ends before it starts", ErrMalformedPayload, i)
		}

		traces[span.TraceID] = struct{}{}
		if i == 0 || span.StartUnixNano < earliest {
			earliest = span.StartUnixNano
		}
		if span.EndUnixNano > latest {
			latest = span.EndUnixNano
		}
	}

	return core.Metadata{
		"service.name": doc.Service,
		"span.count":   strconv.Itoa(len(doc.Spans)),
		"trace.count":  strconv.Itoa(len(traces)),
		"trace.id":     doc.Spans[0].TraceID,
		"duration.ms":  strconv.FormatUint((latest-earliest)/1e6, 10),
	}, nil
}
