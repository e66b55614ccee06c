package aead

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

func random(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}

// pair returns two sessions wired back to back: a's local direction is b's
// remote direction and vice versa.
func pair(t *testing.T, keySize, ivSize int) (*Session, *Session) {
	t.Helper()
	k1, iv1 := random(keySize), random(ivSize)
	k2, iv2 := random(keySize), random(ivSize)
	a, err := NewSession(k1, iv1, k2, iv2)
	if err != nil {
		t.Fatalf("NewSession a: %v", err)
	}
	b, err := NewSession(k2, iv2, k1, iv1)
	if err != nil {
		t.Fatalf("NewSession b: %v", err)
	}
	return a, b
}

func TestMatchesRFC8439(t *testing.T) {
	key := random(32)
	iv := random(12)
	s, err := NewSession(key, iv, key, iv)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ref, _ := chacha20poly1305.New(key)
	plaintext := []byte("Ladies and Gentlemen of the class of '99: If I could offer you only one tip for the future, sunscreen would be it.")
	aad := []byte{0x50, 0x51, 0x52, 0x53, 0xc0, 0xc1, 0xc2, 0xc3, 0xc4, 0xc5, 0xc6, 0xc7}

	for _, seq := range []uint64{0, 1, 0x0102030405060708} {
		nonce := append([]byte(nil), iv...)
		var sb [8]byte
		binary.BigEndian.PutUint64(sb[:], seq)
		for i := range sb {
			nonce[4+i] ^= sb[i]
		}
		want := ref.Seal(nil, nonce, plaintext, aad)

		got, err := s.Seal(plaintext, aad, seq)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("seq %d: output differs from x/crypto", seq)
		}
		pt, err := s.Open(want, aad, seq)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if !bytes.Equal(pt, plaintext) {
			t.Fatalf("seq %d: plaintext mismatch", seq)
		}
	}
}

func TestRoundTripVariants(t *testing.T) {
	for _, tc := range []struct{ key, iv int }{{32, 12}, {32, 8}, {16, 12}, {16, 8}} {
		a, b := pair(t, tc.key, tc.iv)
		msg := []byte("a record on the wire")
		aad := []byte("header")

		ct, err := a.Seal(msg, aad, 42)
		if err != nil {
			t.Fatalf("key %d iv %d Seal: %v", tc.key, tc.iv, err)
		}
		if len(ct) != len(msg)+Overhead {
			t.Fatalf("ciphertext length %d", len(ct))
		}
		pt, err := b.Open(ct, aad, 42)
		if err != nil {
			t.Fatalf("key %d iv %d Open: %v", tc.key, tc.iv, err)
		}
		if !bytes.Equal(pt, msg) {
			t.Fatalf("key %d iv %d plaintext mismatch", tc.key, tc.iv)
		}

		reply, _ := b.Seal([]byte("ack"), nil, 0)
		if pt, err := a.Open(reply, nil, 0); err != nil || string(pt) != "ack" {
			t.Fatalf("reply: %q %v", pt, err)
		}
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	a, b := pair(t, 32, 12)
	aad := []byte("aad")
	ct, _ := a.Seal([]byte("attack at dawn"), aad, 7)

	cases := map[string]func() ([]byte, error){
		"ciphertext": func() ([]byte, error) {
			c := append([]byte(nil), ct...)
			c[0] ^= 1
			return b.Open(c, aad, 7)
		},
		"tag": func() ([]byte, error) {
			c := append([]byte(nil), ct...)
			c[len(c)-1] ^= 1
			return b.Open(c, aad, 7)
		},
		"aad": func() ([]byte, error) { return b.Open(ct, []byte("aae"), 7) },
		"seq": func() ([]byte, error) { return b.Open(ct, aad, 8) },
	}
	for name, open := range cases {
		pt, err := open()
		if !errors.Is(err, cryptoerr.ErrAuthentication) {
			t.Fatalf("%s: expected authentication failure, got %v", name, err)
		}
		if pt != nil {
			t.Fatalf("%s: plaintext released on failure", name)
		}
	}
}

func TestOpenLengths(t *testing.T) {
	a, b := pair(t, 32, 12)
	if _, err := b.Open(make([]byte, 15), nil, 0); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("short input: %v", err)
	}

	ct, err := a.Seal(nil, []byte("only aad"), 3)
	if err != nil {
		t.Fatalf("Seal empty: %v", err)
	}
	if len(ct) != Overhead {
		t.Fatalf("empty plaintext produced %d bytes", len(ct))
	}
	pt, err := b.Open(ct, []byte("only aad"), 3)
	if err != nil {
		t.Fatalf("Open empty: %v", err)
	}
	if len(pt) != 0 {
		t.Fatalf("expected empty plaintext")
	}
}

func TestMACKeyPerSequence(t *testing.T) {
	d, err := newDirection(random(32), random(12))
	if err != nil {
		t.Fatalf("newDirection: %v", err)
	}
	k1, _ := d.macKey(1)
	k2, _ := d.macKey(2)
	k1again, _ := d.macKey(1)
	if bytes.Equal(k1, k2) {
		t.Fatalf("different sequences share a MAC key")
	}
	if !bytes.Equal(k1, k1again) {
		t.Fatalf("MAC key derivation is not deterministic")
	}
}

func TestNewSessionLengths(t *testing.T) {
	if _, err := NewSession(random(32), random(10), random(32), random(12)); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("bad local iv: %v", err)
	}
	if _, err := NewSession(random(32), random(12), random(20), random(12)); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("bad remote key: %v", err)
	}
	s, _ := NewSession(random(32), random(12), random(32), random(12))
	s.Wipe()
	if _, err := s.Seal([]byte("x"), nil, 0); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("seal after wipe: %v", err)
	}
}

func BenchmarkSeal(b *testing.B) {
	s, _ := NewSession(make([]byte, 32), make([]byte, 12), make([]byte, 32), make([]byte, 12))
	plaintext := make([]byte, 64*1024)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Seal(plaintext, nil, uint64(i))
	}
}

func BenchmarkOpen(b *testing.B) {
	s, _ := NewSession(make([]byte, 32), make([]byte, 12), make([]byte, 32), make([]byte, 12))
	plaintext := make([]byte, 64*1024)
	ct, _ := s.Seal(plaintext, nil, 1)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Open(ct, nil, 1)
	}
}
