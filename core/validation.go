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

import "fmt"

// ValidateBubble validates a Bubble according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Author must not be empty
//
// NOT validated (populated by the store or processors):
//   - Id (0 is valid before insertion; the store assigns IDs)
//   - CreatedAt (the store assigns it at insertion)
//   - Vector (can be empty until the embedding stage runs)
//   - Category (optional)
func ValidateBubble(bubble *Bubble) error {
	if bubble == nil {
		return fmt.Errorf("%w: bubble is nil", ErrInvalidBubble)
	}

	if bubble.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBubble, ErrEmptyContent)
	}

	if bubble.Author == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBubble, ErrEmptyAuthor)
	}

	return nil
}
