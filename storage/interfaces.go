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
package storage

import (
	"context"
	"time"
)

// VectorTier is a persistent, expiring store of embedding vectors keyed by
// text fingerprint. It sits behind the in-process embedding cache.
// Implementations must be thread-safe and support concurrent access.
type VectorTier interface {
	// GetVectors returns the stored vectors for the given keys.
	// Keys that are absent or expired are omitted from the result.
	GetVectors(ctx context.Context, keys ...string) (map[string][]float32, error)

	// PutVectors stores vectors by key. Existing entries are overwritten and
	// their expiry is reset.
	PutVectors(ctx context.Context, entries map[string][]float32) error

	// Purge removes every stored vector.
	Purge(ctx context.Context) error

	// TTL returns how long stored vectors live. Zero means no expiry.
	TTL() time.Duration

	// Close closes the storage backend and releases resources.
	Close() error
}
