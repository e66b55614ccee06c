package sealed

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

var (
	ErrBadMagic     = errors.New("sealed: invalid container magic")
	ErrBadVersion   = errors.New("sealed: unsupported container version")
	ErrTruncated    = errors.New("sealed: container truncated")
	ErrTrailingData = errors.New("sealed: trailing data after last record")
)

const (
	// Magic identifies a sealed container.
	Magic = "CXS1"
	// Version is the only container version understood by Open.
	Version = 1

	headerSize = 32

	flagCompression byte = 1 << 0
	flagParity      byte = 1 << 1
)

type header struct {
	flags      byte
	chunkSize  uint32
	data       uint8
	parity     uint8
	records    uint32
	payloadLen uint64
	// seqBase is the sequence number of record 0. Records use seqBase+i, so
	// containers sealed under one session do not share nonces.
	seqBase uint64
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf, Magic)
	buf[4] = Version
	buf[5] = h.flags
	binary.BigEndian.PutUint32(buf[6:], h.chunkSize)
	buf[10] = h.data
	buf[11] = h.parity
	binary.BigEndian.PutUint32(buf[12:], h.records)
	binary.BigEndian.PutUint64(buf[16:], h.payloadLen)
	binary.BigEndian.PutUint64(buf[24:], h.seqBase)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrTruncated)
	}
	if string(buf[:4]) != Magic {
		return header{}, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "%v", ErrBadMagic)
	}
	if buf[4] != Version {
		return header{}, cryptoerr.Wrap(cryptoerr.ErrFeatureUnavailable, "%v %d", ErrBadVersion, buf[4])
	}
	return header{
		flags:      buf[5],
		chunkSize:  binary.BigEndian.Uint32(buf[6:]),
		data:       buf[10],
		parity:     buf[11],
		records:    binary.BigEndian.Uint32(buf[12:]),
		payloadLen: binary.BigEndian.Uint64(buf[16:]),
		seqBase:    binary.BigEndian.Uint64(buf[24:]),
	}, nil
}

// seq returns the record sequence number of data record i.
func (h header) seq(i int) uint64 { return h.seqBase + uint64(i) }

// seqOverflow reports whether the last record's sequence number wraps.
func (h header) seqOverflow() bool {
	return h.records > 0 && h.seqBase > math.MaxUint64-uint64(h.records-1)
}

// stripes returns the number of parity stripes, zero without parity.
func (h header) stripes() int {
	if h.flags&flagParity == 0 || h.data == 0 {
		return 0
	}
	return (int(h.records) + int(h.data) - 1) / int(h.data)
}

// aad binds a record to its container and position.
func aad(hdr []byte, index int) []byte {
	out := make([]byte, len(hdr)+4)
	copy(out, hdr)
	binary.BigEndian.PutUint32(out[len(hdr):], uint32(index))
	return out
}

func appendRecord(dst, rec []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(rec)))
	dst = append(dst, n[:]...)
	return append(dst, rec...)
}

// readRecords splits the body into exactly count length-prefixed records.
func readRecords(body []byte, count int) ([][]byte, error) {
	// Every record needs at least its length prefix.
	if count > len(body)/4 {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrTruncated)
	}
	recs := make([][]byte, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		if off+4 > len(body) {
			return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrTruncated)
		}
		n := int(binary.BigEndian.Uint32(body[off:]))
		off += 4
		if n > len(body)-off {
			return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrTruncated)
		}
		recs = append(recs, body[off:off+n])
		off += n
	}
	if off != len(body) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "%v", ErrTrailingData)
	}
	return recs, nil
}
