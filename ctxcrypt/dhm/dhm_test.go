package dhm

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

func TestGroup14Agreement(t *testing.T) {
	if len(Group14P) != 256 {
		t.Fatalf("group 14 prime has %d bytes", len(Group14P))
	}
	alice, err := New(rand.Reader, Group14G, Group14P)
	if err != nil {
		t.Fatalf("New alice: %v", err)
	}
	bob, err := New(rand.Reader, Group14G, Group14P)
	if err != nil {
		t.Fatalf("New bob: %v", err)
	}
	if alice.Size() != 256 {
		t.Fatalf("Size = %d", alice.Size())
	}

	s1, err := alice.SharedSecret(rand.Reader, bob.Public())
	if err != nil {
		t.Fatalf("alice secret: %v", err)
	}
	s2, err := bob.SharedSecret(rand.Reader, alice.Public())
	if err != nil {
		t.Fatalf("bob secret: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatalf("shared secrets differ")
	}
}

func TestGeneratedPrime(t *testing.T) {
	p, err := rand.Prime(rand.Reader, 512)
	if err != nil {
		t.Fatalf("Prime: %v", err)
	}
	a, err := New(rand.Reader, []byte{5}, p.Bytes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, _ := New(rand.Reader, []byte{5}, p.Bytes())
	s1, _ := a.SharedSecret(rand.Reader, b.Public())
	s2, _ := b.SharedSecret(rand.Reader, a.Public())
	if !bytes.Equal(s1, s2) {
		t.Fatalf("shared secrets differ")
	}
}

func TestModulusSize(t *testing.T) {
	small := make([]byte, 32)
	small[0] = 0xff
	if _, err := New(rand.Reader, Group14G, small); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("small modulus: %v", err)
	}
	large := make([]byte, 513)
	large[0] = 0xff
	if _, err := New(rand.Reader, Group14G, large); !errors.Is(err, cryptoerr.ErrInvalidDataLength) {
		t.Fatalf("large modulus: %v", err)
	}
}

func TestPeerRange(t *testing.T) {
	c, err := New(rand.Reader, Group14G, Group14P)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pMinus1 := new(big.Int).Sub(new(big.Int).SetBytes(Group14P), big.NewInt(1)).Bytes()
	for name, peer := range map[string][]byte{
		"zero":  {0},
		"one":   {1},
		"p-1":   pMinus1,
		"p":     Group14P,
		"empty": nil,
	} {
		if _, err := c.SharedSecret(rand.Reader, peer); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
			t.Fatalf("peer %s accepted: %v", name, err)
		}
	}
}

func TestGeneratorRange(t *testing.T) {
	if _, err := New(rand.Reader, []byte{1}, Group14P); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("generator 1 accepted: %v", err)
	}
}

func TestWipe(t *testing.T) {
	c, _ := New(rand.Reader, Group14G, Group14P)
	peer := c.Public()
	c.Wipe()
	if _, err := c.SharedSecret(rand.Reader, peer); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("wiped context still derives: %v", err)
	}
}
