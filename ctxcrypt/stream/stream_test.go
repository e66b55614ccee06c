package stream

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"golang.org/x/crypto/chacha20"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

func seqKey(n int) []byte {
	k := make([]byte, n)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestRC4Symmetry(t *testing.T) {
	key := []byte("Key")
	msg := []byte("Plaintext")

	enc, err := NewRC4(key)
	if err != nil {
		t.Fatalf("NewRC4: %v", err)
	}
	ct := make([]byte, len(msg))
	if err := enc.XORKeyStream(ct, msg); err != nil {
		t.Fatalf("XORKeyStream: %v", err)
	}
	// Well known RC4 test vector.
	if hex.EncodeToString(ct) != "bbf316e8d940af0ad3" {
		t.Fatalf("ciphertext = %x", ct)
	}

	dec, _ := NewRC4(key)
	if err := dec.XORKeyStream(ct, ct); err != nil {
		t.Fatalf("XORKeyStream in place: %v", err)
	}
	if !bytes.Equal(ct, msg) {
		t.Fatalf("round trip = %q", ct)
	}
}

func TestRC4KeyLength(t *testing.T) {
	for _, n := range []int{0, 257} {
		if _, err := NewRC4(make([]byte, n)); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
			t.Fatalf("key of %d bytes: %v", n, err)
		}
	}
	r, _ := NewRC4([]byte{1})
	r.Wipe()
	if err := r.XORKeyStream(make([]byte, 1), []byte{1}); err == nil {
		t.Fatalf("wiped state still usable")
	}
}

func TestChaCha20BlockVector(t *testing.T) {
	// RFC 8439 section 2.3.2.
	nonce, _ := hex.DecodeString("000000090000004a00000000")
	c, err := NewChaCha20(seqKey(32))
	if err != nil {
		t.Fatalf("NewChaCha20: %v", err)
	}
	if err := c.SetIV(nonce, 1, [8]byte{}); err != nil {
		t.Fatalf("SetIV: %v", err)
	}
	ks, err := c.KeyStream(16)
	if err != nil {
		t.Fatalf("KeyStream: %v", err)
	}
	if got := hex.EncodeToString(ks); got != "10f1e7e4d13b5915500fdd1fa32071c4" {
		t.Fatalf("keystream = %s", got)
	}
}

func TestChaCha20MatchesReference(t *testing.T) {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	msg := make([]byte, 1000)
	rand.Read(key)
	rand.Read(nonce)
	rand.Read(msg)

	ref, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	ref.SetCounter(7)
	want := make([]byte, len(msg))
	ref.XORKeyStream(want, msg)

	c, _ := NewChaCha20(key)
	if err := c.SetIV(nonce, 7, [8]byte{}); err != nil {
		t.Fatalf("SetIV: %v", err)
	}
	// Uneven pieces exercise the partial block buffer.
	got := make([]byte, len(msg))
	for off, step := 0, 1; off < len(msg); step = step*3 + 1 {
		end := off + step
		if end > len(msg) {
			end = len(msg)
		}
		if err := c.XORKeyStream(got[off:end], msg[off:end]); err != nil {
			t.Fatalf("XORKeyStream: %v", err)
		}
		off = end
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("output differs from reference")
	}
}

func TestChaCha20ShortNonceWideCounter(t *testing.T) {
	key := seqKey(32)
	nonce8 := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	c, _ := NewChaCha20(key)
	if err := c.SetIV(nonce8, math.MaxUint32, [8]byte{}); err != nil {
		t.Fatalf("SetIV: %v", err)
	}
	got, err := c.KeyStream(128)
	if err != nil {
		t.Fatalf("KeyStream: %v", err)
	}

	// The second block carries into the high counter word, which lines up
	// with the first nonce word of the 12-byte layout.
	first, _ := chacha20.NewUnauthenticatedCipher(key, append([]byte{0, 0, 0, 0}, nonce8...))
	first.SetCounter(math.MaxUint32)
	want := make([]byte, 64)
	first.XORKeyStream(want, want)

	second, _ := chacha20.NewUnauthenticatedCipher(key, append([]byte{1, 0, 0, 0}, nonce8...))
	next := make([]byte, 64)
	second.XORKeyStream(next, next)
	want = append(want, next...)

	if !bytes.Equal(got, want) {
		t.Fatalf("64-bit counter carry mismatch")
	}
}

func TestChaCha20ExtraXorsNonce(t *testing.T) {
	key := seqKey(32)
	nonce := seqKey(12)
	extra := [8]byte{0, 0, 0, 0, 0, 0, 0, 5}

	a, _ := NewChaCha20(key)
	a.SetIV(nonce, 0, extra)
	ka, _ := a.KeyStream(64)

	mixed := append([]byte(nil), nonce...)
	for i := range extra {
		mixed[4+i] ^= extra[i]
	}
	b, _ := NewChaCha20(key)
	b.SetIV(mixed, 0, [8]byte{})
	kb, _ := b.KeyStream(64)

	if !bytes.Equal(ka, kb) {
		t.Fatalf("extra bytes not applied to the nonce tail")
	}
}

func TestChaCha20ShortKey(t *testing.T) {
	short := seqKey(16)
	long := append(append([]byte(nil), short...), short...)
	nonce := make([]byte, 12)

	a, err := NewChaCha20(short)
	if err != nil {
		t.Fatalf("NewChaCha20(16): %v", err)
	}
	a.SetIV(nonce, 0, [8]byte{})
	ka, _ := a.KeyStream(64)

	b, _ := NewChaCha20(long)
	b.SetIV(nonce, 0, [8]byte{})
	kb, _ := b.KeyStream(64)

	if bytes.Equal(ka, kb) {
		t.Fatalf("16-byte key must use its own constants")
	}

	msg := []byte("sixteen byte keys still round trip")
	ct := make([]byte, len(msg))
	a.SetIV(nonce, 3, [8]byte{})
	a.XORKeyStream(ct, msg)
	a.SetIV(nonce, 3, [8]byte{})
	a.XORKeyStream(ct, ct)
	if !bytes.Equal(ct, msg) {
		t.Fatalf("round trip = %q", ct)
	}
}

func TestChaCha20Errors(t *testing.T) {
	if _, err := NewChaCha20(make([]byte, 24)); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("24-byte key: %v", err)
	}
	c, _ := NewChaCha20(make([]byte, 32))
	if err := c.XORKeyStream(make([]byte, 1), []byte{0}); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("use before SetIV: %v", err)
	}
	if err := c.SetIV(make([]byte, 10), 0, [8]byte{}); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("10-byte nonce: %v", err)
	}
	if err := c.SetIV(make([]byte, 12), math.MaxUint32+1, [8]byte{}); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("counter overflow: %v", err)
	}

	c.SetIV(make([]byte, 12), 0, [8]byte{})
	if err := c.XORKeyStream(nil, nil); err != nil {
		t.Fatalf("empty input: %v", err)
	}
}

func TestChaCha20Exhaustion(t *testing.T) {
	c, _ := NewChaCha20(make([]byte, 32))
	c.SetIV(make([]byte, 12), math.MaxUint32, [8]byte{})
	if err := c.XORKeyStream(make([]byte, 65), make([]byte, 65)); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if _, err := c.KeyStream(64); err != nil {
		t.Fatalf("last block must still be usable: %v", err)
	}
	if _, err := c.KeyStream(1); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("expected exhaustion after last block, got %v", err)
	}
}

func BenchmarkChaCha20(b *testing.B) {
	c, _ := NewChaCha20(make([]byte, 32))
	buf := make([]byte, 64*1024)
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetIV(make([]byte, 12), 0, [8]byte{})
		_ = c.XORKeyStream(buf, buf)
	}
}
