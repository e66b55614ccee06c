package pkcs1

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func fixture(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
		testKey = k
	})
	return testKey
}

func components(k *rsa.PrivateKey) (n, e, d, p, q []byte) {
	return k.N.Bytes(), big.NewInt(int64(k.E)).Bytes(), k.D.Bytes(), k.Primes[0].Bytes(), k.Primes[1].Bytes()
}

func TestEncryptDecrypt(t *testing.T) {
	n, e, d, p, q := components(fixture(t))
	priv, err := NewPrivate(n, e, d, p, q)
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	pub, err := NewPublic(n, e)
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	if pub.Size() != 256 || priv.Size() != 256 {
		t.Fatalf("Size = %d/%d", pub.Size(), priv.Size())
	}

	msg := []byte("pre-master secret")
	ct, err := pub.Encrypt(rand.Reader, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ct) != 256 {
		t.Fatalf("ciphertext has %d bytes", len(ct))
	}
	pt, err := priv.Decrypt(rand.Reader, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(pt, msg) {
		t.Fatalf("plaintext mismatch")
	}

	if _, err := pub.Decrypt(rand.Reader, ct); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("public key decrypted: %v", err)
	}
	if _, err := pub.Encrypt(rand.Reader, make([]byte, 250)); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("oversized message: %v", err)
	}
}

func TestSignVerifyDigests(t *testing.T) {
	n, e, d, p, q := components(fixture(t))
	priv, _ := NewPrivate(n, e, d, p, q)
	pub, _ := NewPublic(n, e)
	data := []byte("signed data")

	for _, dg := range []Digest{DigestMD5, DigestSHA1, DigestSHA224, DigestSHA256, DigestSHA384, DigestSHA512, DigestRIPEMD160} {
		sig, err := priv.Sign(rand.Reader, data, dg)
		if err != nil {
			t.Fatalf("%v Sign: %v", dg, err)
		}
		if !pub.Verify(data, sig, dg) {
			t.Fatalf("%v: valid signature rejected", dg)
		}
		if pub.Verify([]byte("other data"), sig, dg) {
			t.Fatalf("%v: signature verified for other data", dg)
		}
		sig[0] ^= 1
		if pub.Verify(data, sig, dg) {
			t.Fatalf("%v: modified signature verified", dg)
		}
	}
}

func TestSignNoDigest(t *testing.T) {
	n, e, d, p, q := components(fixture(t))
	priv, _ := NewPrivate(n, e, d, p, q)
	hashed := sha256.Sum256([]byte("prehashed"))

	sig, err := priv.Sign(rand.Reader, hashed[:], DigestNone)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !priv.Verify(hashed[:], sig, DigestNone) {
		t.Fatalf("raw signature rejected")
	}
	if priv.Verify([]byte("prehashed"), sig, DigestSHA256) {
		t.Fatalf("raw signature must not verify with a DigestInfo prefix")
	}
}

func TestKeyChecks(t *testing.T) {
	k := fixture(t)
	n, e, d, p, q := components(k)

	if _, err := NewPublic(n, []byte{2}); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("even exponent: %v", err)
	}
	if _, err := NewPublic(n[:64], e); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("512-bit modulus: %v", err)
	}
	badD := new(big.Int).Add(k.D, big.NewInt(2)).Bytes()
	if _, err := NewPrivate(n, e, badD, p, q); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("inconsistent private key accepted: %v", err)
	}
	if _, err := NewPrivate(n, e, d, p, nil); !errors.Is(err, cryptoerr.ErrInvalidArgumentCombination) {
		t.Fatalf("missing prime: %v", err)
	}
}

func TestParseDigest(t *testing.T) {
	if d, err := ParseDigest(""); err != nil || d != DigestSHA256 {
		t.Fatalf("default digest = %v, %v", d, err)
	}
	if d, err := ParseDigest("RIPEMD160"); err != nil || d != DigestRIPEMD160 {
		t.Fatalf("ripemd160 = %v, %v", d, err)
	}
	if d, _ := ParseDigest("none"); d != DigestNone {
		t.Fatalf("none = %v", d)
	}
	if _, err := ParseDigest("whirlpool"); !errors.Is(err, cryptoerr.ErrFeatureUnavailable) {
		t.Fatalf("unknown digest: %v", err)
	}
	if DigestSHA384.String() != "sha384" {
		t.Fatalf("String = %q", DigestSHA384.String())
	}
}

func TestWipe(t *testing.T) {
	n, e, d, p, q := components(fixture(t))
	priv, _ := NewPrivate(n, e, d, p, q)
	priv.Wipe()
	if priv.Private() {
		t.Fatalf("key still private after Wipe")
	}
	if _, err := priv.Sign(rand.Reader, []byte("x"), DigestSHA256); !errors.Is(err, cryptoerr.ErrCryptoOperation) {
		t.Fatalf("sign after wipe: %v", err)
	}
}
