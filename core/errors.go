// Copyright 2025 Poiesic Systems
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

// Domain errors. User-visible failures are distinct sentinels so callers can
// branch on them with errors.Is; anything wrapping ErrDatabase is a storage
// I/O failure that may succeed on retry.
var (
	// ErrDuplicateBubble indicates an insert collided with an existing
	// bubble carrying the same (author, content) pair.
	ErrDuplicateBubble = errors.New("bubble already exists with the same content")

	// ErrBubbleNotFound indicates a lookup by ID missed, or a ranking
	// request found no source material to rank against.
	ErrBubbleNotFound = errors.New("bubble not found")

	// ErrNotBubbleAuthor indicates an actor attempted to delete a bubble
	// they did not author.
	ErrNotBubbleAuthor = errors.New("bubble belongs to another author")

	// ErrInvalidQuery indicates empty or contradictory query parameters.
	// Rejected before any store or service call.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrDatabase indicates a content store I/O failure. No automatic
	// retry is performed in this layer.
	ErrDatabase = errors.New("database error")

	// ErrInvalidBubble indicates a Bubble failed validation.
	ErrInvalidBubble = errors.New("invalid bubble")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyAuthor indicates the Author field is empty.
	ErrEmptyAuthor = errors.New("author cannot be empty")
)
