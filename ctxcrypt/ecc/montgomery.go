package ecc

import (
	"io"
	"math/big"

	"github.com/cloudflare/circl/dh/x448"
	"golang.org/x/crypto/curve25519"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

func init() {
	backends[Curve25519] = x25519{}
	backends[Curve448] = x448Backend{}
}

// x25519 serves Curve25519 key agreement. Keys are raw 32-byte strings.
type x25519 struct{}

func (x25519) size() int { return curve25519.PointSize }

func (x25519) generate(rng io.Reader) ([]byte, []byte, error) {
	priv := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rng, priv); err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "x25519: %v", err)
	}
	// Clamp per RFC 7748.
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "x25519: %v", err)
	}
	return priv, pub, nil
}

func (x25519) checkPublic(pub []byte) error {
	if len(pub) != curve25519.PointSize {
		return cryptoerr.Length("x25519 public key", len(pub))
	}
	return nil
}

func (b x25519) shared(priv, peer []byte) ([]byte, error) {
	if err := b.checkPublic(peer); err != nil {
		return nil, err
	}
	out, err := curve25519.X25519(priv, peer)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "x25519: %v", err)
	}
	return out, nil
}

func (x25519) sign(io.Reader, []byte, []byte) (*big.Int, *big.Int, error) {
	return nil, nil, errNoSignature(Curve25519)
}

func (x25519) verify([]byte, []byte, *big.Int, *big.Int) bool { return false }

// x448Backend serves Curve448 key agreement through circl.
type x448Backend struct{}

func (x448Backend) size() int { return x448.Size }

func (x448Backend) generate(rng io.Reader) ([]byte, []byte, error) {
	var sk, pk x448.Key
	if _, err := io.ReadFull(rng, sk[:]); err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "x448: %v", err)
	}
	x448.KeyGen(&pk, &sk)
	return sk[:], pk[:], nil
}

func (x448Backend) checkPublic(pub []byte) error {
	if len(pub) != x448.Size {
		return cryptoerr.Length("x448 public key", len(pub))
	}
	return nil
}

func (b x448Backend) shared(priv, peer []byte) ([]byte, error) {
	if err := b.checkPublic(peer); err != nil {
		return nil, err
	}
	var sk, pk, out x448.Key
	copy(sk[:], priv)
	copy(pk[:], peer)
	defer func() { sk = x448.Key{} }()
	if !x448.Shared(&out, &sk, &pk) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "x448: low order point")
	}
	return out[:], nil
}

func (x448Backend) sign(io.Reader, []byte, []byte) (*big.Int, *big.Int, error) {
	return nil, nil, errNoSignature(Curve448)
}

func (x448Backend) verify([]byte, []byte, *big.Int, *big.Int) bool { return false }
