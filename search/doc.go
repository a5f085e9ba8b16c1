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

// Package search provides chunk retrieval over a single document.
//
// Store is a request-scoped, append-only vector store with cosine ranking.
// Retriever builds a Store over a document's chunks and combines two signals:
//   - Semantic search with the whole target text
//   - Per-keyword searches using the target's first long words
//
// Hits are deduplicated by content, ranked by similarity and truncated.
// A RetrievalMonitor can observe each stage.
package search
