package ecc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/ProtonMail/go-crypto/brainpool"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

func init() {
	backends[Secp192r1] = weierstrass{p192()}
	backends[Secp224r1] = weierstrass{elliptic.P224()}
	backends[Secp256r1] = weierstrass{elliptic.P256()}
	backends[Secp384r1] = weierstrass{elliptic.P384()}
	backends[Secp521r1] = weierstrass{elliptic.P521()}
	backends[BP256r1] = weierstrass{brainpool.P256r1()}
	backends[BP384r1] = weierstrass{brainpool.P384r1()}
	backends[BP512r1] = weierstrass{brainpool.P512r1()}
}

func p192() elliptic.Curve {
	p := &elliptic.CurveParams{Name: "P-192", BitSize: 192}
	p.P, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
	p.N, _ = new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
	p.B, _ = new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
	p.Gx, _ = new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
	p.Gy, _ = new(big.Int).SetString("07192b95ffc8da78631011ed6b24cdd573f977a11e794811", 16)
	return p
}

// weierstrass serves short Weierstrass curves through the elliptic.Curve
// interface. Public keys are SEC1 points, private keys fixed-length scalars.
type weierstrass struct {
	curve elliptic.Curve
}

func (w weierstrass) size() int { return (w.curve.Params().BitSize + 7) / 8 }

func (w weierstrass) generate(rng io.Reader) ([]byte, []byte, error) {
	n := w.curve.Params().N
	d, err := rand.Int(rng, new(big.Int).Sub(n, big.NewInt(1)))
	if err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecc: %v", err)
	}
	d.Add(d, big.NewInt(1))
	priv := d.FillBytes(make([]byte, (n.BitLen()+7)/8))
	x, y := w.curve.ScalarBaseMult(priv)
	return priv, elliptic.Marshal(w.curve, x, y), nil
}

func (w weierstrass) point(pub []byte) (*big.Int, *big.Int, error) {
	var x, y *big.Int
	switch {
	case len(pub) > 0 && pub[0] == 4:
		x, y = elliptic.Unmarshal(w.curve, pub)
	case len(pub) > 0 && (pub[0] == 2 || pub[0] == 3):
		x, y = elliptic.UnmarshalCompressed(w.curve, pub)
	}
	if x == nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecc: invalid %s point", w.curve.Params().Name)
	}
	return x, y, nil
}

func (w weierstrass) checkPublic(pub []byte) error {
	_, _, err := w.point(pub)
	return err
}

func (w weierstrass) shared(priv, peer []byte) ([]byte, error) {
	x, y, err := w.point(peer)
	if err != nil {
		return nil, err
	}
	sx, sy := w.curve.ScalarMult(x, y, priv)
	if sx.Sign() == 0 && sy.Sign() == 0 {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecc: shared point at infinity")
	}
	return sx.FillBytes(make([]byte, w.size())), nil
}

func (w weierstrass) privateKey(priv []byte) *ecdsa.PrivateKey {
	k := &ecdsa.PrivateKey{D: new(big.Int).SetBytes(priv)}
	k.Curve = w.curve
	k.X, k.Y = w.curve.ScalarBaseMult(priv)
	return k
}

func (w weierstrass) sign(rng io.Reader, priv, digest []byte) (*big.Int, *big.Int, error) {
	r, s, err := ecdsa.Sign(rng, w.privateKey(priv), digest)
	if err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "ecdsa: %v", err)
	}
	return r, s, nil
}

func (w weierstrass) verify(pub, digest []byte, r, s *big.Int) bool {
	x, y, err := w.point(pub)
	if err != nil {
		return false
	}
	return ecdsa.Verify(&ecdsa.PublicKey{Curve: w.curve, X: x, Y: y}, digest, r, s)
}
