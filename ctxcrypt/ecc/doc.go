// Package ecc implements ECDH key agreement and ECDSA over a fixed catalog
// of named curves.
//
// Weierstrass curves encode public keys as uncompressed SEC1 points and
// accept compressed peer points where the backend can decompress them.
// Curve25519 and Curve448 use raw u-coordinates and only support key
// agreement. secp192k1 and secp224k1 are listed but have no backend.
package ecc
