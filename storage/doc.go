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
// Package storage provides the persistence abstraction for embedding vectors.
//
// The embedding cache keeps an in-process LRU of vectors. A VectorTier can sit
// behind it so vectors survive process restarts for a bounded time, which lets
// repeated CLI runs over the same documents skip the encoder.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface to enforce abstraction:
//
//	tier, err := badger.NewVectorTier(backend, 24*time.Hour)  // returns storage.VectorTier
//
// # Serialization
//
// Vectors are encoded with MUS (github.com/mus-format/mus-go): a varint length
// prefix followed by raw float32 elements. See MarshalVector and UnmarshalVector.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/cache", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tier, err := badger.NewVectorTier(backend, time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tier.Close()
//
// # Thread Safety
//
// All tier implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
