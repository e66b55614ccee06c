package stream

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

const (
	// BlockSize is the ChaCha20 block size in bytes.
	BlockSize = 64
	// KeySize is the full ChaCha20 key size; KeySize16 selects the 16-byte variant.
	KeySize   = 32
	KeySize16 = 16
	// NonceSize is the RFC 8439 nonce size; NonceSize8 is the original 64-bit nonce.
	NonceSize  = 12
	NonceSize8 = 8
)

// "expand 32-byte k" and "expand 16-byte k".
var (
	sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}
	tau   = [4]uint32{0x61707865, 0x3120646e, 0x79622d36, 0x6b206574}
)

// ChaCha20 is a keyed ChaCha20 state. SetIV must be called before the first
// XORKeyStream and again for every new message.
//
// With a 12-byte nonce the block counter is 32 bits wide, with an 8-byte
// nonce it is 64 bits wide.
type ChaCha20 struct {
	input [16]uint32
	ivSet bool
	wide  bool

	// blocks still available before the counter wraps; valid when !unlimited
	remaining uint64
	unlimited bool

	buf [BlockSize]byte
	off int
}

// NewChaCha20 keys a new state with a 16 or 32 byte key.
func NewChaCha20(key []byte) (*ChaCha20, error) {
	c := &ChaCha20{off: BlockSize}
	switch len(key) {
	case KeySize:
		copy(c.input[0:4], sigma[:])
		for i := 0; i < 8; i++ {
			c.input[4+i] = binary.LittleEndian.Uint32(key[4*i:])
		}
	case KeySize16:
		copy(c.input[0:4], tau[:])
		for i := 0; i < 4; i++ {
			w := binary.LittleEndian.Uint32(key[4*i:])
			c.input[4+i] = w
			c.input[8+i] = w
		}
	default:
		return nil, cryptoerr.Length("chacha20 key", len(key))
	}
	return c, nil
}

// SetIV loads a nonce and the starting block counter and discards any
// buffered keystream. extra is xored into the last 8 bytes of the nonce; a
// zero value leaves the nonce unchanged.
func (c *ChaCha20) SetIV(nonce []byte, counter uint64, extra [8]byte) error {
	switch len(nonce) {
	case NonceSize:
		if counter > math.MaxUint32 {
			return cryptoerr.Wrap(cryptoerr.ErrInvalidDataLength, "chacha20: counter %d exceeds 32 bits", counter)
		}
		c.input[12] = uint32(counter)
		c.input[13] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[14] = binary.LittleEndian.Uint32(nonce[4:8]) ^ binary.LittleEndian.Uint32(extra[0:4])
		c.input[15] = binary.LittleEndian.Uint32(nonce[8:12]) ^ binary.LittleEndian.Uint32(extra[4:8])
		c.wide = false
		c.remaining = math.MaxUint32 - counter + 1
		c.unlimited = false
	case NonceSize8:
		c.input[12] = uint32(counter)
		c.input[13] = uint32(counter >> 32)
		c.input[14] = binary.LittleEndian.Uint32(nonce[0:4]) ^ binary.LittleEndian.Uint32(extra[0:4])
		c.input[15] = binary.LittleEndian.Uint32(nonce[4:8]) ^ binary.LittleEndian.Uint32(extra[4:8])
		c.wide = true
		if counter == 0 {
			c.unlimited = true
		} else {
			c.remaining = math.MaxUint64 - counter + 1
			c.unlimited = false
		}
	default:
		return cryptoerr.Length("chacha20 nonce", len(nonce))
	}
	c.ivSet = true
	c.off = BlockSize
	return nil
}

// XORKeyStream xors src with the keystream into dst. dst and src may be the
// same slice. An empty src is a no-op. If the block counter cannot cover
// src the call fails without consuming keystream.
func (c *ChaCha20) XORKeyStream(dst, src []byte) error {
	if !c.ivSet {
		return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "chacha20: nonce not set")
	}
	if len(dst) < len(src) {
		return cryptoerr.Length("chacha20 output", len(dst))
	}
	if len(src) == 0 {
		return nil
	}

	buffered := BlockSize - c.off
	if len(src) > buffered && !c.unlimited {
		need := uint64(len(src)-buffered+BlockSize-1) / BlockSize
		if need > c.remaining {
			return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "chacha20: keystream exhausted")
		}
	}

	for i := range src {
		if c.off == BlockSize {
			c.block()
		}
		dst[i] = src[i] ^ c.buf[c.off]
		c.off++
	}
	return nil
}

// KeyStream returns the next n bytes of raw keystream.
func (c *ChaCha20) KeyStream(n int) ([]byte, error) {
	out := make([]byte, n)
	if err := c.XORKeyStream(out, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Wipe zeroes key material and buffered keystream.
func (c *ChaCha20) Wipe() {
	c.input = [16]uint32{}
	c.buf = [BlockSize]byte{}
	c.off = BlockSize
	c.ivSet = false
}

func (c *ChaCha20) block() {
	x := c.input
	for i := 0; i < 10; i++ {
		x[0], x[4], x[8], x[12] = quarterRound(x[0], x[4], x[8], x[12])
		x[1], x[5], x[9], x[13] = quarterRound(x[1], x[5], x[9], x[13])
		x[2], x[6], x[10], x[14] = quarterRound(x[2], x[6], x[10], x[14])
		x[3], x[7], x[11], x[15] = quarterRound(x[3], x[7], x[11], x[15])
		x[0], x[5], x[10], x[15] = quarterRound(x[0], x[5], x[10], x[15])
		x[1], x[6], x[11], x[12] = quarterRound(x[1], x[6], x[11], x[12])
		x[2], x[7], x[8], x[13] = quarterRound(x[2], x[7], x[8], x[13])
		x[3], x[4], x[9], x[14] = quarterRound(x[3], x[4], x[9], x[14])
	}
	for i := range x {
		binary.LittleEndian.PutUint32(c.buf[4*i:], x[i]+c.input[i])
	}
	c.off = 0

	c.input[12]++
	if c.wide && c.input[12] == 0 {
		c.input[13]++
	}
	if !c.unlimited {
		c.remaining--
	}
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}
