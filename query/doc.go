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


// Package query provides filtered, paginated bubble lookups.
//
// The Filter type composes author, category and free-text constraints.
// The Service type executes them against the bubble store:
//   - without query text, pages are ordered newest first
//   - with query text, the text is embedded and pages are ordered by
//     cosine similarity to it
//
// Pagination continuation is decided by a one-item lookahead probe rather
// than a total-count query.
package query
