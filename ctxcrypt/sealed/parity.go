package sealed

import (
	"encoding/binary"
	"errors"

	"github.com/klauspost/reedsolomon"
)

var (
	ErrTooManyLost   = errors.New("sealed: too many records lost, cannot recover")
	ErrInvalidShards = errors.New("sealed: invalid data/parity configuration")
)

// codec computes and applies Reed-Solomon parity over one stripe of sealed
// records. Records differ in length, so each is stored in its shard behind
// a 4-byte length and zero padded to the longest record of the stripe.
type codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

func newCodec(dataShards, parityShards int) (*codec, error) {
	if dataShards <= 0 || parityShards <= 0 {
		return nil, ErrInvalidShards
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &codec{enc: enc, dataShards: dataShards, parityShards: parityShards}, nil
}

func (c *codec) totalShards() int { return c.dataShards + c.parityShards }

func pad(rec []byte, size int) []byte {
	shard := make([]byte, size)
	binary.BigEndian.PutUint32(shard, uint32(len(rec)))
	copy(shard[4:], rec)
	return shard
}

func unpad(shard []byte) ([]byte, bool) {
	if len(shard) < 4 {
		return nil, false
	}
	n := int(binary.BigEndian.Uint32(shard))
	if n > len(shard)-4 {
		return nil, false
	}
	return shard[4 : 4+n], true
}

// parity returns the parity records for a stripe. A short final stripe is
// completed with empty records.
func (c *codec) parity(stripe [][]byte) ([][]byte, error) {
	size := 4
	for _, rec := range stripe {
		if len(rec)+4 > size {
			size = len(rec) + 4
		}
	}
	shards := make([][]byte, c.totalShards())
	for i := 0; i < c.dataShards; i++ {
		var rec []byte
		if i < len(stripe) {
			rec = stripe[i]
		}
		shards[i] = pad(rec, size)
	}
	for i := c.dataShards; i < len(shards); i++ {
		shards[i] = make([]byte, size)
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards[c.dataShards:], nil
}

// recover rebuilds the records marked lost. Data slots past len(stripe)
// are the implicit empty records of a short final stripe.
func (c *codec) recover(stripe [][]byte, lost []bool, parity [][]byte) ([][]byte, error) {
	size := -1
	for _, p := range parity {
		if p != nil {
			size = len(p)
			break
		}
	}
	if size < 4 {
		return nil, ErrTooManyLost
	}

	shards := make([][]byte, c.totalShards())
	for i := 0; i < c.dataShards; i++ {
		switch {
		case i >= len(stripe):
			shards[i] = pad(nil, size)
		case !lost[i] && len(stripe[i])+4 <= size:
			shards[i] = pad(stripe[i], size)
		}
	}
	for i, p := range parity {
		if len(p) == size {
			shards[c.dataShards+i] = p
		}
	}
	if err := c.enc.ReconstructData(shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, ErrTooManyLost
		}
		return nil, err
	}

	out := make([][]byte, len(stripe))
	for i := range stripe {
		if !lost[i] {
			out[i] = stripe[i]
			continue
		}
		rec, ok := unpad(shards[i])
		if !ok {
			return nil, ErrTooManyLost
		}
		out[i] = rec
	}
	return out, nil
}
