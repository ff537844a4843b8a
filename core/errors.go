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


package core

import "errors"

// Domain validation errors
var (
	// ErrEmptyPayload indicates a raw message with no payload bytes.
	ErrEmptyPayload = errors.New("payload cannot be empty")

	// ErrBatchSealed indicates an append to a batch that has already
	// been frozen for compression.
	ErrBatchSealed = errors.New("batch is sealed")

	// ErrInvalidObjectKey indicates a logical path that does not parse
	// into prefix, time bucket, and content identifier.
	ErrInvalidObjectKey = errors.New("invalid object key")
)
