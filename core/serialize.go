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

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types that cross a process boundary: cache
// entries handed to the secondary store and history snapshot entries.
// Timestamps are encoded as Unix microseconds; the zero time encodes as 0.
var (
	IDMUS           = idSer{}
	TimeMicroMUS    = timeMicroSer{}
	StringSliceMUS  = stringSliceSer{}
	ThreadStatsMUS  = threadStatsSer{}
	ThreadRecordMUS = threadRecordSer{}
)

var (
	_ mus.Serializer[ID]           = IDMUS
	_ mus.Serializer[time.Time]    = TimeMicroMUS
	_ mus.Serializer[[]string]     = StringSliceMUS
	_ mus.Serializer[ThreadStats]  = ThreadStatsMUS
	_ mus.Serializer[ThreadRecord] = ThreadRecordMUS
)

type idSer struct{}

func (idSer) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idSer) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idSer) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idSer) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type timeMicroSer struct{}

func (timeMicroSer) Marshal(v time.Time, bs []byte) (n int) {
	var micro int64
	if !v.IsZero() {
		micro = v.UnixMicro()
	}
	return varint.Int64.Marshal(micro, bs)
}

func (timeMicroSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	if micro != 0 {
		v = time.UnixMicro(micro).UTC()
	}
	return
}

func (timeMicroSer) Size(v time.Time) (size int) {
	var micro int64
	if !v.IsZero() {
		micro = v.UnixMicro()
	}
	return varint.Int64.Size(micro)
}

func (timeMicroSer) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type stringSliceSer struct{}

func (stringSliceSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (stringSliceSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	v = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (stringSliceSer) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return
}

func (stringSliceSer) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type threadStatsSer struct{}

func (threadStatsSer) Marshal(v ThreadStats, bs []byte) (n int) {
	n = varint.Int.Marshal(v.ReactionCount, bs)
	n += varint.Int.Marshal(v.ReplyCount, bs[n:])
	return
}

func (threadStatsSer) Unmarshal(bs []byte) (v ThreadStats, n int, err error) {
	v.ReactionCount, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.ReplyCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (threadStatsSer) Size(v ThreadStats) (size int) {
	return varint.Int.Size(v.ReactionCount) + varint.Int.Size(v.ReplyCount)
}

func (threadStatsSer) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

type threadRecordSer struct{}

func (threadRecordSer) Marshal(v ThreadRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += IDMUS.Marshal(v.AuthorID, bs[n:])
	n += ord.String.Marshal(v.AuthorName, bs[n:])
	n += TimeMicroMUS.Marshal(v.CreatedAt, bs[n:])
	n += TimeMicroMUS.Marshal(v.LastActiveAt, bs[n:])
	n += StringSliceMUS.Marshal(v.Tags, bs[n:])
	n += ThreadStatsMUS.Marshal(v.Stats, bs[n:])
	n += ord.String.Marshal(v.FirstMessageText, bs[n:])
	n += ord.String.Marshal(v.JumpURL, bs[n:])
	return
}

func (threadRecordSer) Unmarshal(bs []byte) (v ThreadRecord, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.AuthorID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.AuthorName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = TimeMicroMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LastActiveAt, n1, err = TimeMicroMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Tags, n1, err = StringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Stats, n1, err = ThreadStatsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FirstMessageText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.JumpURL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (threadRecordSer) Size(v ThreadRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += IDMUS.Size(v.AuthorID)
	size += ord.String.Size(v.AuthorName)
	size += TimeMicroMUS.Size(v.CreatedAt)
	size += TimeMicroMUS.Size(v.LastActiveAt)
	size += StringSliceMUS.Size(v.Tags)
	size += ThreadStatsMUS.Size(v.Stats)
	size += ord.String.Size(v.FirstMessageText)
	size += ord.String.Size(v.JumpURL)
	return
}

func (threadRecordSer) Skip(bs []byte) (n int, err error) {
	steps := []func([]byte) (int, error){
		IDMUS.Skip,
		ord.String.Skip, // Title
		IDMUS.Skip,
		ord.String.Skip, // AuthorName
		TimeMicroMUS.Skip,
		TimeMicroMUS.Skip,
		StringSliceMUS.Skip,
		ThreadStatsMUS.Skip,
		ord.String.Skip, // FirstMessageText
		ord.String.Skip, // JumpURL
	}
	var n1 int
	for _, skip := range steps {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// MarshalThreadRecord serializes a ThreadRecord to bytes.
func MarshalThreadRecord(record *ThreadRecord) []byte {
	buf := make([]byte, ThreadRecordMUS.Size(*record))
	ThreadRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalThreadRecord deserializes a ThreadRecord from bytes.
func UnmarshalThreadRecord(data []byte) (*ThreadRecord, error) {
	record, _, err := ThreadRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalThreadStats serializes ThreadStats to bytes.
func MarshalThreadStats(stats ThreadStats) []byte {
	buf := make([]byte, ThreadStatsMUS.Size(stats))
	ThreadStatsMUS.Marshal(stats, buf)
	return buf
}

// UnmarshalThreadStats deserializes ThreadStats from bytes.
func UnmarshalThreadStats(data []byte) (ThreadStats, error) {
	stats, _, err := ThreadStatsMUS.Unmarshal(data)
	return stats, err
}
