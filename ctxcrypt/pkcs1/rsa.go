// Package pkcs1 implements RSA PKCS #1 v1.5 encryption and signatures over
// keys assembled from raw big-endian components.
package pkcs1

import (
	"crypto/rsa"
	"io"
	"math/big"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// MinModulusBits is the smallest modulus crypto/rsa operates on.
const MinModulusBits = 1024

var bigOne = big.NewInt(1)

// Key is an RSA context holding a public key and, optionally, the private
// half.
type Key struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

// NewPublic assembles a public key from modulus and exponent.
func NewPublic(n, e []byte) (*Key, error) {
	pub, err := publicKey(n, e)
	if err != nil {
		return nil, err
	}
	return &Key{pub: pub}, nil
}

// NewPrivate assembles a private key from its components and runs the key
// consistency checks.
func NewPrivate(n, e, d, p, q []byte) (*Key, error) {
	pub, err := publicKey(n, e)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 || len(p) == 0 || len(q) == 0 {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidArgumentCombination, "rsa: private key needs d, p and q")
	}
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(d),
		Primes:    []*big.Int{new(big.Int).SetBytes(p), new(big.Int).SetBytes(q)},
	}
	if err := priv.Validate(); err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: %v", err)
	}
	priv.Precompute()
	return &Key{pub: &priv.PublicKey, priv: priv}, nil
}

func publicKey(n, e []byte) (*rsa.PublicKey, error) {
	N := new(big.Int).SetBytes(n)
	E := new(big.Int).SetBytes(e)
	switch {
	case N.BitLen() < MinModulusBits:
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: modulus of %d bits", N.BitLen())
	case N.Bit(0) == 0:
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: even modulus")
	case E.Cmp(big.NewInt(3)) < 0 || E.Bit(0) == 0:
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: exponent must be odd and at least 3")
	case E.Cmp(N) >= 0 || E.BitLen() > 31:
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: exponent out of range")
	}
	return &rsa.PublicKey{N: N, E: int(E.Int64())}, nil
}

// Size returns the modulus length in bytes, the length of every ciphertext
// and signature.
func (k *Key) Size() int { return k.pub.Size() }

// Private reports whether the key can decrypt and sign.
func (k *Key) Private() bool { return k.priv != nil }

func (k *Key) requirePrivate() error {
	if k.priv == nil {
		return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: operation needs a private key")
	}
	return nil
}

// Encrypt pads data with PKCS #1 v1.5 type 2 and encrypts it.
func (k *Key) Encrypt(rng io.Reader, data []byte) ([]byte, error) {
	out, err := rsa.EncryptPKCS1v15(rng, k.pub, data)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: %v", err)
	}
	return out, nil
}

// Decrypt reverses Encrypt.
func (k *Key) Decrypt(rng io.Reader, data []byte) ([]byte, error) {
	if err := k.requirePrivate(); err != nil {
		return nil, err
	}
	out, err := rsa.DecryptPKCS1v15(rng, k.priv, data)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: %v", err)
	}
	return out, nil
}

// Sign hashes data with digest and signs the result. With DigestNone data
// is signed as is, without a DigestInfo prefix.
func (k *Key) Sign(rng io.Reader, data []byte, digest Digest) ([]byte, error) {
	if err := k.requirePrivate(); err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(rng, k.priv, digest.Hash(), digest.Sum(data))
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rsa: %v", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature of data under digest.
func (k *Key) Verify(data, sig []byte, digest Digest) bool {
	return rsa.VerifyPKCS1v15(k.pub, digest.Hash(), digest.Sum(data), sig) == nil
}

// Wipe clears the private exponent and primes.
func (k *Key) Wipe() {
	if k.priv == nil {
		return
	}
	k.priv.D.SetInt64(0)
	for _, p := range k.priv.Primes {
		p.SetInt64(0)
	}
	k.priv = nil
}
