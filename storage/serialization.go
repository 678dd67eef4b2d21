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
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/newswire/core"
)

// recordVersion prefixes every serialized article so the layout can evolve.
const recordVersion = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalStoredArticle serializes a StoredArticle to bytes.
func MarshalStoredArticle(article *core.StoredArticle) []byte {
	buf := make([]byte, storedArticleSize(article))
	storedArticleMarshal(article, buf)
	return buf
}

// UnmarshalStoredArticle deserializes a StoredArticle from bytes.
func UnmarshalStoredArticle(data []byte) (*core.StoredArticle, error) {
	r := &reader{bs: data}
	version := r.uint64()
	if r.err == nil && version != recordVersion {
		return nil, fmt.Errorf("%w: unsupported record version %d", ErrSerializationFailed, version)
	}

	article := &core.StoredArticle{}
	article.ID = r.string()
	article.Title = r.string()
	article.Snippet = r.string()
	article.URL = r.string()
	article.Source = r.string()
	article.PublishedAt = r.time()
	article.Entity = r.string()
	article.RelevanceScore = math.Float64frombits(r.uint64())
	article.PriorityScore = math.Float64frombits(r.uint64())
	article.ContentID = core.ID(r.uint64())
	article.Vector = r.vector()
	article.StoredAt = r.time()

	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return article, nil
}

func storedArticleSize(a *core.StoredArticle) int {
	size := varint.Uint64.Size(recordVersion)
	for _, s := range []string{a.ID, a.Title, a.Snippet, a.URL, a.Source} {
		size += ord.String.Size(s)
	}
	size += varint.Int64.Size(timeToMicros(a.PublishedAt))
	size += ord.String.Size(a.Entity)
	size += varint.Uint64.Size(math.Float64bits(a.RelevanceScore))
	size += varint.Uint64.Size(math.Float64bits(a.PriorityScore))
	size += varint.Uint64.Size(uint64(a.ContentID))
	size += varint.Int.Size(len(a.Vector))
	for _, f := range a.Vector {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	size += varint.Int64.Size(timeToMicros(a.StoredAt))
	return size
}

func storedArticleMarshal(a *core.StoredArticle, bs []byte) (n int) {
	n = varint.Uint64.Marshal(recordVersion, bs)
	for _, s := range []string{a.ID, a.Title, a.Snippet, a.URL, a.Source} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += varint.Int64.Marshal(timeToMicros(a.PublishedAt), bs[n:])
	n += ord.String.Marshal(a.Entity, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(a.RelevanceScore), bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(a.PriorityScore), bs[n:])
	n += varint.Uint64.Marshal(uint64(a.ContentID), bs[n:])
	n += varint.Int.Marshal(len(a.Vector), bs[n:])
	for _, f := range a.Vector {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	n += varint.Int64.Marshal(timeToMicros(a.StoredAt), bs[n:])
	return n
}

// Zero times are written as 0 so "unknown" survives a round trip.
func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// reader walks a mus-encoded buffer and remembers the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) time() time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return microsToTime(v)
}

func (r *reader) vector() []float32 {
	if r.err != nil {
		return nil
	}
	length, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.err = err
		return nil
	}
	if length < 0 || length > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return nil
	}
	if length == 0 {
		return nil
	}
	vector := make([]float32, length)
	for i := range vector {
		bits, n, err := varint.Uint32.Unmarshal(r.bs[r.n:])
		r.n += n
		if err != nil {
			r.err = err
			return nil
		}
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}
