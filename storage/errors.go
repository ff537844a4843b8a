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


package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound indicates the requested object key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidRange indicates a byte range outside the stored object.
	ErrInvalidRange = errors.New("invalid byte range")

	// ErrStoreClosed indicates the backend has been closed.
	ErrStoreClosed = errors.New("store is closed")
)

// WriteError classifies a storage write failure. Retryable failures
// (transient network faults, throttling) participate in the assembler's
// bounded backoff loop; terminal ones (authorization, malformed key)
// short-circuit the batch straight to failed.
type WriteError struct {
	Retryable bool
	Err       error
}

func (e *WriteError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("storage write failed (%s): %v", kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// RetryableWrite wraps err as a transient write failure.
func RetryableWrite(err error) error {
	return &WriteError{Retryable: true, Err: err}
}

// TerminalWrite wraps err as a permanent write failure.
func TerminalWrite(err error) error {
	return &WriteError{Retryable: false, Err: err}
}

// IsRetryable reports whether a write error may be retried. Errors
// without a WriteError classification are treated as terminal.
func IsRetryable(err error) bool {
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return writeErr.Retryable
	}
	return false
}
