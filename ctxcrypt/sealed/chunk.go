package sealed

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrCompressionFailed   = errors.New("sealed: compression failed")
	ErrDecompressionFailed = errors.New("sealed: decompression failed")
)

const (
	chunkRaw byte = 0
	chunkLZ4 byte = 1
)

// split cuts data into chunkSize pieces. An empty payload still yields one
// empty chunk so that every container carries at least one record.
func split(data []byte, chunkSize int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}

// compressorPool reuses LZ4 writers to reduce allocations.
var compressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

var decompressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)

	w.Reset(&buf)
	_ = w.Apply(lz4.CompressionLevelOption(lz4.Level4))

	if _, err := w.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// decompress inflates an LZ4 frame, refusing output larger than limit.
func decompress(data []byte, limit int) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)

	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, int64(limit)+1)); err != nil {
		return nil, ErrDecompressionFailed
	}
	if buf.Len() > limit {
		return nil, ErrDecompressionFailed
	}
	return buf.Bytes(), nil
}

// encodeChunk prefixes the chunk with its encoding flag, compressing it
// only when that makes it smaller.
func encodeChunk(chunk []byte, compression bool) []byte {
	if compression && len(chunk) > 0 {
		if c, err := compress(chunk); err == nil && len(c) < len(chunk) {
			return append([]byte{chunkLZ4}, c...)
		}
	}
	return append([]byte{chunkRaw}, chunk...)
}

func decodeChunk(rec []byte, chunkSize int) ([]byte, error) {
	if len(rec) == 0 {
		return nil, ErrDecompressionFailed
	}
	switch rec[0] {
	case chunkRaw:
		if len(rec)-1 > chunkSize {
			return nil, ErrDecompressionFailed
		}
		return rec[1:], nil
	case chunkLZ4:
		return decompress(rec[1:], chunkSize)
	}
	return nil, ErrDecompressionFailed
}
