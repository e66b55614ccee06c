package sealed

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/aead"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

const (
	// DefaultChunkSize is used when Options.ChunkSize is zero.
	DefaultChunkSize = 64 * 1024
	MinChunkSize     = 64
	MaxChunkSize     = 16 * 1024 * 1024
)

// Options controls Seal.
type Options struct {
	// ChunkSize is the plaintext size of one record. Zero means DefaultChunkSize.
	ChunkSize int
	// Compression LZ4-compresses chunks that shrink.
	Compression bool
	// DataShards and ParityShards enable Reed-Solomon parity: every stripe
	// of DataShards records gets ParityShards parity records. Both zero
	// disables parity.
	DataShards   int
	ParityShards int
	// Rand draws the container's sequence base. Nil means crypto/rand.
	Rand io.Reader
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.ChunkSize != 0 && (o.ChunkSize < MinChunkSize || o.ChunkSize > MaxChunkSize) {
		return fmt.Errorf("sealed: chunk size %d outside [%d, %d]", o.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if (o.DataShards == 0) != (o.ParityShards == 0) {
		return ErrInvalidShards
	}
	if o.DataShards < 0 || o.ParityShards < 0 || o.DataShards > 255 || o.ParityShards > 255 ||
		o.DataShards+o.ParityShards > 256 {
		return ErrInvalidShards
	}
	return nil
}

// Stats describes what Open had to do.
type Stats struct {
	Records   int
	Parity    int
	Recovered int
}

// Seal encrypts payload into a container with the session's local direction.
func Seal(s *aead.Session, payload []byte, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidArgumentCombination, "%v", err)
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := split(payload, chunkSize)
	base, err := sequenceBase(opts.Rand)
	if err != nil {
		return nil, err
	}
	h := header{
		chunkSize:  uint32(chunkSize),
		records:    uint32(len(chunks)),
		payloadLen: uint64(len(payload)),
		seqBase:    base,
	}
	if opts.Compression {
		h.flags |= flagCompression
	}
	if opts.DataShards > 0 {
		h.flags |= flagParity
		h.data, h.parity = uint8(opts.DataShards), uint8(opts.ParityShards)
	}
	hdr := h.encode()

	records := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		rec, err := s.Seal(encodeChunk(chunk, opts.Compression), aad(hdr, i), h.seq(i))
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	out := append([]byte(nil), hdr...)
	for _, rec := range records {
		out = appendRecord(out, rec)
	}
	if h.stripes() == 0 {
		return out, nil
	}

	c, err := newCodec(opts.DataShards, opts.ParityShards)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "%v", err)
	}
	for st := 0; st < h.stripes(); st++ {
		lo, hi := stripeBounds(st, opts.DataShards, len(records))
		parity, err := c.parity(records[lo:hi])
		if err != nil {
			return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "%v", err)
		}
		for _, p := range parity {
			out = appendRecord(out, p)
		}
	}
	return out, nil
}

// sequenceBase draws a random record 0 sequence number below 2^63, which
// leaves room for every record count the header can express.
func sequenceBase(rng io.Reader) (uint64, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var b [8]byte
	if _, err := io.ReadFull(rng, b[:]); err != nil {
		return 0, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "sealed: sequence base: %v", err)
	}
	return binary.BigEndian.Uint64(b[:]) >> 1, nil
}

func stripeBounds(stripe, width, n int) (int, int) {
	lo := stripe * width
	hi := lo + width
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Open authenticates and decrypts a container with the session's remote
// direction. Records that fail authentication are rebuilt from parity when
// the container carries it; otherwise Open fails with
// cryptoerr.ErrAuthentication.
func Open(s *aead.Session, blob []byte) ([]byte, Stats, error) {
	h, err := decodeHeader(blob)
	if err != nil {
		return nil, Stats{}, err
	}
	if h.chunkSize < MinChunkSize || h.chunkSize > MaxChunkSize || h.records == 0 {
		return nil, Stats{}, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "sealed: bad header geometry")
	}
	if h.flags&flagParity != 0 && (h.data == 0 || h.parity == 0 || int(h.data)+int(h.parity) > 256) {
		return nil, Stats{}, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrInvalidShards)
	}
	if h.seqOverflow() {
		return nil, Stats{}, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "sealed: record sequence numbers wrap")
	}
	if h.payloadLen > uint64(h.records)*uint64(h.chunkSize) {
		return nil, Stats{}, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "sealed: payload length exceeds records")
	}

	hdr := blob[:headerSize]
	n := int(h.records)
	parityCount := h.stripes() * int(h.parity)
	recs, err := readRecords(blob[headerSize:], n+parityCount)
	if err != nil {
		return nil, Stats{}, err
	}
	stats := Stats{Records: n, Parity: parityCount}

	plain := make([][]byte, n)
	lost := make([]bool, n)
	anyLost := false
	for i := 0; i < n; i++ {
		pt, err := s.Open(recs[i], aad(hdr, i), h.seq(i))
		if err != nil {
			lost[i], anyLost = true, true
			continue
		}
		plain[i] = pt
	}

	if anyLost {
		if parityCount == 0 {
			return nil, stats, cryptoerr.Wrap(cryptoerr.ErrAuthentication, "sealed: record failed authentication")
		}
		if err := recoverLost(s, h, hdr, recs, plain, lost, &stats); err != nil {
			return nil, stats, err
		}
	}

	out := make([]byte, 0, len(blob))
	for i, pt := range plain {
		chunk, err := decodeChunk(pt, int(h.chunkSize))
		if err != nil {
			return nil, stats, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "record %d: %v", i, err)
		}
		out = append(out, chunk...)
	}
	if uint64(len(out)) != h.payloadLen {
		return nil, stats, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "sealed: payload is %d bytes, header says %d", len(out), h.payloadLen)
	}
	return out, stats, nil
}

func recoverLost(s *aead.Session, h header, hdr []byte, recs, plain [][]byte, lost []bool, stats *Stats) error {
	width, p := int(h.data), int(h.parity)
	c, err := newCodec(width, p)
	if err != nil {
		return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "%v", err)
	}
	n := int(h.records)
	for st := 0; st < h.stripes(); st++ {
		lo, hi := stripeBounds(st, width, n)
		if !anyTrue(lost[lo:hi]) {
			continue
		}
		pstart := n + st*p
		rebuilt, err := c.recover(recs[lo:hi], lost[lo:hi], recs[pstart:pstart+p])
		if err != nil {
			if errors.Is(err, ErrTooManyLost) {
				return cryptoerr.Wrap(cryptoerr.ErrAuthentication, "sealed: stripe %d: %v", st, err)
			}
			return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "sealed: stripe %d: %v", st, err)
		}
		for i := lo; i < hi; i++ {
			if !lost[i] {
				continue
			}
			pt, err := s.Open(rebuilt[i-lo], aad(hdr, i), h.seq(i))
			if err != nil {
				return cryptoerr.Wrap(cryptoerr.ErrAuthentication, "sealed: record %d unrecoverable", i)
			}
			plain[i] = pt
			stats.Recovered++
		}
	}
	return nil
}

func anyTrue(v []bool) bool {
	for _, b := range v {
		if b {
			return true
		}
	}
	return false
}
