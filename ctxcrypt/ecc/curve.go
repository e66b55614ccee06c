package ecc

import (
	"strings"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// Curve identifies a named elliptic curve. The order matches the public
// catalog and must not change.
type Curve uint8

const (
	CurveInvalid Curve = iota
	Secp192r1
	Secp224r1
	Secp256r1
	Secp384r1
	Secp521r1
	Secp192k1
	Secp224k1
	Secp256k1
	BP256r1
	BP384r1
	BP512r1
	Curve25519
	Curve448
)

var curveNames = [...]string{
	Secp192r1:  "secp192r1",
	Secp224r1:  "secp224r1",
	Secp256r1:  "secp256r1",
	Secp384r1:  "secp384r1",
	Secp521r1:  "secp521r1",
	Secp192k1:  "secp192k1",
	Secp224k1:  "secp224k1",
	Secp256k1:  "secp256k1",
	BP256r1:    "bp256r1",
	BP384r1:    "bp384r1",
	BP512r1:    "bp512r1",
	Curve25519: "curve25519",
	Curve448:   "curve448",
}

// Curves returns the full catalog in order, including curves without a
// backend.
func Curves() []Curve {
	out := make([]Curve, 0, len(curveNames)-1)
	for c := Secp192r1; c <= Curve448; c++ {
		out = append(out, c)
	}
	return out
}

// ParseCurve looks up a curve by its catalog name, case-insensitively.
func ParseCurve(name string) (Curve, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c := Secp192r1; c <= Curve448; c++ {
		if curveNames[c] == name {
			return c, nil
		}
	}
	return CurveInvalid, cryptoerr.Unavailable("curve " + name)
}

func (c Curve) String() string {
	if c > CurveInvalid && int(c) < len(curveNames) {
		return curveNames[c]
	}
	return "invalid"
}

// Available reports whether a backend implements c.
func (c Curve) Available() bool {
	_, err := backendFor(c)
	return err == nil
}

// Montgomery reports whether c is an X-only Montgomery curve. Such curves
// support key agreement but not ECDSA.
func (c Curve) Montgomery() bool {
	return c == Curve25519 || c == Curve448
}

// Size returns the length in bytes of a field element, which is also the
// length of the shared secret.
func (c Curve) Size() int {
	b, err := backendFor(c)
	if err != nil {
		return 0
	}
	return b.size()
}
