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
	"fmt"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// vectorMUS serializes a float32 slice as a varint length followed by
// fixed-width little-endian elements.
type vectorMUS struct{}

// VectorMUS is the MUS serializer for embedding vectors.
var VectorMUS = vectorMUS{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || len(bs)-n < length*raw.Float32.Size(0) {
		return nil, n, ErrTruncatedData
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	width := length * raw.Float32.Size(0)
	if length < 0 || len(bs)-n < width {
		return n, ErrTruncatedData
	}
	return n + width, nil
}

// MarshalVector serializes a vector to bytes.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, VectorMUS.Size(v))
	VectorMUS.Marshal(v, buf)
	return buf
}

// UnmarshalVector deserializes a vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	v, _, err := VectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return v, nil
}
