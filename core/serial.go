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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for stored records. Field order is the wire
// format; append new fields at the end only.

var (
	// IDMUS is the ID serializer.
	IDMUS = idMUS{}
	// VectorMUS is the embedding vector serializer.
	VectorMUS = vectorMUS{}
	// DocumentMUS is the Document serializer.
	DocumentMUS = documentMUS{}
	// ChunkMUS is the Chunk serializer.
	ChunkMUS = chunkMUS{}

	timeMUS        = timeSer{}
	stringSliceMUS = stringSliceSer{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	uv, n, err := varint.Uint64.Unmarshal(bs)
	return ID(uv), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// timeSer stores times as UnixMicro with 0 meaning the zero time.
type timeSer struct{}

func (s timeSer) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(timeToMicro(v), bs)
}

func (s timeSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	mv, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return microToTime(mv), n, nil
}

func (s timeSer) Size(v time.Time) (size int) {
	return varint.Int64.Size(timeToMicro(v))
}

func (s timeSer) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// stringSliceSer keeps nil round-tripping as nil, unlike ord.NewSliceSer.
type stringSliceSer struct{}

func (s stringSliceSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, e := range v {
		n += ord.String.Marshal(e, bs[n:])
	}
	return n
}

func (s stringSliceSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	count, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	v = make([]string, count)
	for i := 0; i < count; i++ {
		var n1 int
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s stringSliceSer) Size(v []string) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, e := range v {
		size += ord.String.Size(e)
	}
	return size
}

func (s stringSliceSer) Skip(bs []byte) (n int, err error) {
	count, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	for i := 0; i < count; i++ {
		var n1 int
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	count, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	v = make([]float32, count)
	for i := 0; i < count; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s vectorMUS) Size(v []float32) (size int) {
	return varint.PositiveInt.Size(len(v)) + len(v)*raw.Float32.Size(0)
}

func (s vectorMUS) Skip(bs []byte) (n int, err error) {
	count, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	for i := 0; i < count; i++ {
		var n1 int
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type documentMUS struct{}

func (s documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.OwnerId, bs[n:])
	n += ord.String.Marshal(d.Name, bs[n:])
	n += ord.String.Marshal(d.OriginalName, bs[n:])
	n += varint.Int.Marshal(int(d.FileType), bs[n:])
	n += varint.Int64.Marshal(d.Size, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	n += ord.String.Marshal(d.StorageKey, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.JobId, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += ord.Bool.Marshal(d.Embedded, bs[n:])
	n += stringSliceMUS.Marshal(d.Tags, bs[n:])
	n += ord.String.Marshal(d.Category, bs[n:])
	n += ord.String.Marshal(d.Metadata.Title, bs[n:])
	n += ord.String.Marshal(d.Metadata.Author, bs[n:])
	n += varint.Int.Marshal(d.Metadata.PageCount, bs[n:])
	n += varint.Int.Marshal(d.Metadata.WordCount, bs[n:])
	n += varint.Int.Marshal(d.Metadata.CharCount, bs[n:])
	n += varint.Int.Marshal(d.Metrics.ChunksCreated, bs[n:])
	n += varint.Int64.Marshal(int64(d.Metrics.ProcessingTime), bs[n:])
	n += varint.Int64.Marshal(int64(d.Metrics.EmbeddingTime), bs[n:])
	n += ord.String.Marshal(d.ProcessingError, bs[n:])
	n += timeMUS.Marshal(d.ProcessingStartedAt, bs[n:])
	n += timeMUS.Marshal(d.ProcessingEndedAt, bs[n:])
	n += timeMUS.Marshal(d.InsertedAt, bs[n:])
	n += timeMUS.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (s documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	d.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return d, n, err
	}
	if d.OwnerId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.OriginalName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var i int
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.FileType = FileType(i)
	n += n1
	if d.Size, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.StorageKey, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Status = DocumentStatus(i)
	n += n1
	if d.JobId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Embedded, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Tags, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata.Author, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata.PageCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata.WordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata.CharCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metrics.ChunksCreated, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var v64 int64
	if v64, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Metrics.ProcessingTime = time.Duration(v64)
	n += n1
	if v64, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Metrics.EmbeddingTime = time.Duration(v64)
	n += n1
	if d.ProcessingError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ProcessingStartedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ProcessingEndedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return d, n, nil
}

func (s documentMUS) Size(d Document) (size int) {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.OwnerId) +
		ord.String.Size(d.Name) +
		ord.String.Size(d.OriginalName) +
		varint.Int.Size(int(d.FileType)) +
		varint.Int64.Size(d.Size) +
		ord.String.Size(d.ContentHash) +
		ord.String.Size(d.StorageKey) +
		varint.Int.Size(int(d.Status)) +
		ord.String.Size(d.JobId) +
		varint.Int.Size(d.ChunkCount) +
		ord.Bool.Size(d.Embedded) +
		stringSliceMUS.Size(d.Tags) +
		ord.String.Size(d.Category) +
		ord.String.Size(d.Metadata.Title) +
		ord.String.Size(d.Metadata.Author) +
		varint.Int.Size(d.Metadata.PageCount) +
		varint.Int.Size(d.Metadata.WordCount) +
		varint.Int.Size(d.Metadata.CharCount) +
		varint.Int.Size(d.Metrics.ChunksCreated) +
		varint.Int64.Size(int64(d.Metrics.ProcessingTime)) +
		varint.Int64.Size(int64(d.Metrics.EmbeddingTime)) +
		ord.String.Size(d.ProcessingError) +
		timeMUS.Size(d.ProcessingStartedAt) +
		timeMUS.Size(d.ProcessingEndedAt) +
		timeMUS.Size(d.InsertedAt) +
		timeMUS.Size(d.UpdatedAt)
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.DocumentId, bs)
	n += ord.String.Marshal(c.OwnerId, bs[n:])
	n += varint.Int.Marshal(c.Ordinal, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += IDMUS.Marshal(c.TextHash, bs[n:])
	n += varint.Int.Marshal(c.Page, bs[n:])
	n += varint.Int.Marshal(c.SentenceCount, bs[n:])
	n += varint.Int.Marshal(c.WordCount, bs[n:])
	n += varint.Int.Marshal(c.CharCount, bs[n:])
	n += raw.Float32.Marshal(c.Quality, bs[n:])
	n += IDMUS.Marshal(c.PointId, bs[n:])
	n += timeMUS.Marshal(c.EmbeddedAt, bs[n:])
	n += timeMUS.Marshal(c.InsertedAt, bs[n:])
	n += timeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.DocumentId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return c, n, err
	}
	if c.OwnerId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.TextHash, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Page, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.SentenceCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.WordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.CharCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Quality, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.PointId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.EmbeddedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (s chunkMUS) Size(c Chunk) (size int) {
	return IDMUS.Size(c.DocumentId) +
		ord.String.Size(c.OwnerId) +
		varint.Int.Size(c.Ordinal) +
		ord.String.Size(c.Text) +
		IDMUS.Size(c.TextHash) +
		varint.Int.Size(c.Page) +
		varint.Int.Size(c.SentenceCount) +
		varint.Int.Size(c.WordCount) +
		varint.Int.Size(c.CharCount) +
		raw.Float32.Size(c.Quality) +
		IDMUS.Size(c.PointId) +
		timeMUS.Size(c.EmbeddedAt) +
		timeMUS.Size(c.InsertedAt) +
		timeMUS.Size(c.UpdatedAt)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}
