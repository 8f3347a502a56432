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

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrNegativeLength indicates a corrupt record with a negative vector length.
var ErrNegativeLength = errors.New("negative vector length")

// IDMUS serializes IDs as varint-encoded uint64.
var IDMUS = idMUS{}

type idMUS struct{}

var _ mus.Serializer[ID] = IDMUS

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// BubbleMUS serializes Bubbles. Timestamps are stored as Unix microseconds,
// vectors as a varint length followed by raw float32 elements.
var BubbleMUS = bubbleMUS{}

type bubbleMUS struct{}

var _ mus.Serializer[Bubble] = BubbleMUS

func (bubbleMUS) Marshal(b Bubble, bs []byte) (n int) {
	n = IDMUS.Marshal(b.Id, bs)
	n += ord.String.Marshal(b.Content, bs[n:])
	n += ord.String.Marshal(b.Author, bs[n:])
	n += ord.String.Marshal(b.Category, bs[n:])
	n += varint.Int64.Marshal(b.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(len(b.Vector), bs[n:])
	for _, v := range b.Vector {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return n
}

func (bubbleMUS) Unmarshal(bs []byte) (b Bubble, n int, err error) {
	var n1 int
	b.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	b.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	b.Author, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	b.Category, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var createdAt int64
	createdAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	b.CreatedAt = time.UnixMicro(createdAt).UTC()
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length < 0 {
		err = ErrNegativeLength
		return
	}
	if length > 0 {
		b.Vector = make([]float32, length)
		for i := 0; i < length; i++ {
			b.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	return
}

func (bubbleMUS) Size(b Bubble) (size int) {
	size = IDMUS.Size(b.Id)
	size += ord.String.Size(b.Content)
	size += ord.String.Size(b.Author)
	size += ord.String.Size(b.Category)
	size += varint.Int64.Size(b.CreatedAt.UnixMicro())
	size += varint.Int.Size(len(b.Vector))
	for _, v := range b.Vector {
		size += raw.Float32.Size(v)
	}
	return size
}

func (bubbleMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length < 0 {
		return n, ErrNegativeLength
	}
	for i := 0; i < length; i++ {
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return n, nil
}
