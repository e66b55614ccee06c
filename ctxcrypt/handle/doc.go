// Package handle implements the registry that hands out opaque, type-tagged
// handles for cryptographic contexts.
//
// Every handle carries the kind it was issued for and the generation of its
// slot. A lookup with the wrong kind, a destroyed handle or a handle whose
// slot has since been reused fails with cryptoerr.ErrInvalidHandle.
package handle
