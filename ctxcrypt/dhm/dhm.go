// Package dhm implements finite-field Diffie-Hellman over a caller supplied
// group.
package dhm

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math/big"
	"strings"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

const (
	MinModulusBytes = 64
	MaxModulusBytes = 512
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// Group14P is the RFC 3526 2048-bit MODP prime; Group14G is its generator.
var (
	Group14P = mustHex(`
		FFFFFFFF FFFFFFFF C90FDAA2 2168C234 C4C6628B 80DC1CD1
		29024E08 8A67CC74 020BBEA6 3B139B22 514A0879 8E3404DD
		EF9519B3 CD3A431B 302B0A6D F25F1437 4FE1356D 6D51C245
		E485B576 625E7EC6 F44C42E9 A637ED6B 0BFF5CB6 F406B7ED
		EE386BFB 5A899FA5 AE9F2411 7C4B1FE6 49286651 ECE45B3D
		C2007CB8 A163BF05 98DA4836 1C55D39A 69163FA8 FD24CF5F
		83655D23 DCA3AD96 1C62F356 208552BB 9ED52907 7096966D
		670C354E 4ABC9804 F1746C08 CA18217C 32905E46 2E36CE3B
		E39E772C 180E8603 9B2783A2 EC07A28F B5C55DF0 6F4C52C9
		DE2BCBF6 95581718 3995497C EA956AE5 15D22618 98FA0510
		15728E5A 8AACAA68 FFFFFFFF FFFFFFFF`)
	Group14G = []byte{2}
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		panic(err)
	}
	return b
}

// Context holds a group and a private exponent.
type Context struct {
	p, g *big.Int
	x    *big.Int
	gx   *big.Int
}

// New validates the group (g, p), draws a private exponent from rng and
// computes the public value.
func New(rng io.Reader, g, p []byte) (*Context, error) {
	P := new(big.Int).SetBytes(p)
	if n := (P.BitLen() + 7) / 8; n < MinModulusBytes || n > MaxModulusBytes {
		return nil, cryptoerr.Length("dh modulus", n)
	}
	G := new(big.Int).SetBytes(g)
	if !inRange(G, P) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: generator out of range")
	}

	// x uniform in [2, p-2]
	span := new(big.Int).Sub(P, big.NewInt(3))
	x, err := rand.Int(rng, span)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: %v", err)
	}
	x.Add(x, bigTwo)

	gx, err := blindExp(rng, G, x, P)
	if err != nil {
		return nil, err
	}
	if !inRange(gx, P) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: public value out of range")
	}
	return &Context{p: P, g: G, x: x, gx: gx}, nil
}

// inRange reports whether 2 <= v <= p-2.
func inRange(v, p *big.Int) bool {
	upper := new(big.Int).Sub(p, bigTwo)
	return v.Cmp(bigTwo) >= 0 && v.Cmp(upper) <= 0
}

// blindExp computes a^x mod p as a^r * a^(x-r) so the exponent used in
// each exponentiation differs from call to call.
func blindExp(rng io.Reader, a, x, p *big.Int) (*big.Int, error) {
	r, err := rand.Int(rng, x)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: blinding: %v", err)
	}
	rest := new(big.Int).Sub(x, r)
	y := new(big.Int).Exp(a, r, p)
	y.Mul(y, new(big.Int).Exp(a, rest, p))
	return y.Mod(y, p), nil
}

// Public returns g^x mod p as minimal big-endian bytes.
func (c *Context) Public() []byte { return c.gx.Bytes() }

// Size returns the modulus length in bytes.
func (c *Context) Size() int { return (c.p.BitLen() + 7) / 8 }

// SharedSecret checks the peer value and returns peer^x mod p as minimal
// big-endian bytes, the convention TLS uses for DH premaster secrets.
func (c *Context) SharedSecret(rng io.Reader, peer []byte) ([]byte, error) {
	if c.x == nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: context wiped")
	}
	gy := new(big.Int).SetBytes(peer)
	if !inRange(gy, c.p) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: peer value out of range")
	}
	k, err := blindExp(rng, gy, c.x, c.p)
	if err != nil {
		return nil, err
	}
	if k.Cmp(bigOne) <= 0 {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "dh: degenerate shared secret")
	}
	return k.Bytes(), nil
}

// Wipe clears the private exponent.
func (c *Context) Wipe() {
	if c.x != nil {
		c.x.SetInt64(0)
		c.x = nil
	}
}
