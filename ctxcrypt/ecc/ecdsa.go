package ecc

import (
	"io"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// SignOptions adjusts Sign.
type SignOptions struct {
	// Ephemeral replaces the context's key pair with a fresh one before
	// signing. The matching public key is then read back with Public.
	Ephemeral bool
}

// Sign signs digest with the key pair's private key and returns a DER
// encoded SEQUENCE { r INTEGER, s INTEGER }.
func Sign(rng io.Reader, k *KeyPair, digest []byte, opts SignOptions) ([]byte, error) {
	if k.curve.Montgomery() {
		return nil, errNoSignature(k.curve)
	}
	if opts.Ephemeral || k.priv == nil {
		if err := k.Regenerate(rng); err != nil {
			return nil, err
		}
	}
	r, s, err := k.b.sign(rng, k.priv, digest)
	if err != nil {
		return nil, err
	}
	return MarshalSignature(r, s)
}

// Verify checks a DER signature over digest against an encoded public key.
// Every malformed input reports false.
func Verify(curve Curve, pub, digest, sig []byte) (bool, error) {
	b, err := backendFor(curve)
	if err != nil {
		return false, err
	}
	if curve.Montgomery() {
		return false, errNoSignature(curve)
	}
	r, s, ok := ParseSignature(sig)
	if !ok {
		return false, nil
	}
	return b.verify(pub, digest, r, s), nil
}

// VerifyKeyPair is Verify with the public key taken from a context.
func VerifyKeyPair(k *KeyPair, digest, sig []byte) (bool, error) {
	if k.pub == nil {
		return false, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecdsa: no public key")
	}
	return Verify(k.curve, k.pub, digest, sig)
}

// CheckPublic reports whether pub is a well-formed public key for curve.
func CheckPublic(curve Curve, pub []byte) error {
	b, err := backendFor(curve)
	if err != nil {
		return err
	}
	return b.checkPublic(pub)
}

// MarshalSignature encodes r and s as a DER ECDSA signature.
func MarshalSignature(r, s *big.Int) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecdsa: %v", err)
	}
	return out, nil
}

// ParseSignature decodes a DER ECDSA signature. Trailing bytes, wrong tags,
// non-minimal integers and non-positive values are rejected.
func ParseSignature(sig []byte) (r, s *big.Int, ok bool) {
	r, s = new(big.Int), new(big.Int)
	var inner cryptobyte.String
	input := cryptobyte.String(sig)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, nil, false
	}
	return r, s, true
}
