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


// Package rank computes user-affinity rankings.
//
// Given a reference actor, the ranker gathers that actor's bubbles and the
// bubbles of every other matching author, concatenates each author's
// writing, summarizes and embeds the concatenations on worker pools, and
// scores every candidate author by cosine similarity against the actor's
// own embedding. Summarization and embedding run concurrently per author;
// any single failure aborts the whole run with no partial ranking.
package rank
