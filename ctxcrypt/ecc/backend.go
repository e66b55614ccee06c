package ecc

import (
	"io"
	"math/big"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// backend is the per-curve arithmetic provider.
type backend interface {
	size() int
	generate(rng io.Reader) (priv, pub []byte, err error)
	checkPublic(pub []byte) error
	shared(priv, peer []byte) ([]byte, error)
	sign(rng io.Reader, priv, digest []byte) (r, s *big.Int, err error)
	verify(pub, digest []byte, r, s *big.Int) bool
}

var backends = map[Curve]backend{}

func backendFor(c Curve) (backend, error) {
	b, ok := backends[c]
	if !ok {
		return nil, cryptoerr.Unavailable("curve " + c.String())
	}
	return b, nil
}

func errNoSignature(c Curve) error {
	return cryptoerr.Unavailable("ecdsa on " + c.String())
}
