package ecc

import (
	"io"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// KeyPair is an ECDH context: a curve and, once generated, a private scalar
// with its public point.
type KeyPair struct {
	curve Curve
	b     backend
	priv  []byte
	pub   []byte
}

// NewKeyPair creates a context for curve and generates its key pair.
func NewKeyPair(rng io.Reader, curve Curve) (*KeyPair, error) {
	kp, err := NewEmpty(curve)
	if err != nil {
		return nil, err
	}
	if err := kp.Regenerate(rng); err != nil {
		return nil, err
	}
	return kp, nil
}

// NewEmpty creates a context for curve without generating keys. Public
// generates them on first use.
func NewEmpty(curve Curve) (*KeyPair, error) {
	b, err := backendFor(curve)
	if err != nil {
		return nil, err
	}
	return &KeyPair{curve: curve, b: b}, nil
}

// Curve returns the curve the context was created for.
func (k *KeyPair) Curve() Curve { return k.curve }

// Regenerate replaces the key pair with a fresh one.
func (k *KeyPair) Regenerate(rng io.Reader) error {
	priv, pub, err := k.b.generate(rng)
	if err != nil {
		return err
	}
	k.wipePrivate()
	k.priv, k.pub = priv, pub
	return nil
}

// Public returns the encoded public key, generating a key pair first if the
// context has none.
func (k *KeyPair) Public(rng io.Reader) ([]byte, error) {
	if k.pub == nil {
		if err := k.Regenerate(rng); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), k.pub...), nil
}

// SharedSecret derives the shared secret with a peer's public key. The
// result is the X coordinate of the shared point, Size() bytes long.
func (k *KeyPair) SharedSecret(peer []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecdh: no private key")
	}
	return k.b.shared(k.priv, peer)
}

func (k *KeyPair) wipePrivate() {
	for i := range k.priv {
		k.priv[i] = 0
	}
	k.priv = nil
}

// Wipe zeroes the private scalar and drops the key pair.
func (k *KeyPair) Wipe() {
	k.wipePrivate()
	k.pub = nil
}
