package history

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/threadseek/core"
)

const snapshotVersion = 1

var errBadCount = errors.New("negative count")

type entrySer struct{}

var entryMUS = entrySer{}

func (entrySer) Marshal(v Entry, bs []byte) (n int) {
	n = ord.String.Marshal(v.Query, bs)
	n += ord.String.Marshal(v.Forum, bs[n:])
	n += varint.Int.Marshal(v.Matched, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	n += core.TimeMicroMUS.Marshal(v.SearchedAt, bs[n:])
	return
}

func (entrySer) Unmarshal(bs []byte) (v Entry, n int, err error) {
	var n1 int
	v.Query, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Forum, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Matched, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Processed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SearchedAt, n1, err = core.TimeMicroMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (entrySer) Size(v Entry) (size int) {
	size = ord.String.Size(v.Query)
	size += ord.String.Size(v.Forum)
	size += varint.Int.Size(v.Matched)
	size += varint.Int.Size(v.Processed)
	size += core.TimeMicroMUS.Size(v.SearchedAt)
	return
}

// encodeSnapshot serializes the full per-user history map.
func encodeSnapshot(byUser map[core.ID][]Entry) []byte {
	size := varint.Int.Size(snapshotVersion)
	size += varint.Int.Size(len(byUser))
	for id, entries := range byUser {
		size += core.IDMUS.Size(id)
		size += varint.Int.Size(len(entries))
		for _, e := range entries {
			size += entryMUS.Size(e)
		}
	}

	bs := make([]byte, size)
	n := varint.Int.Marshal(snapshotVersion, bs)
	n += varint.Int.Marshal(len(byUser), bs[n:])
	for id, entries := range byUser {
		n += core.IDMUS.Marshal(id, bs[n:])
		n += varint.Int.Marshal(len(entries), bs[n:])
		for _, e := range entries {
			n += entryMUS.Marshal(e, bs[n:])
		}
	}
	return bs
}

func decodeSnapshot(bs []byte) (map[core.ID][]Entry, error) {
	version, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported history snapshot version %d", version)
	}

	users, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	if users < 0 {
		return nil, errBadCount
	}

	byUser := make(map[core.ID][]Entry, users)
	for i := 0; i < users; i++ {
		id, n1, err := core.IDMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, err
		}

		count, n1, err := varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, errBadCount
		}

		entries := make([]Entry, 0, count)
		for j := 0; j < count; j++ {
			e, n1, err := entryMUS.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		byUser[id] = entries
	}
	return byUser, nil
}
