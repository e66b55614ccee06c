// Package ctxcrypt is a handle-based front end for stream ciphers, a one-time
// MAC, a hand-built ChaCha20-Poly1305 construction and the asymmetric
// primitives DH, ECDH, ECDSA and RSA.
//
// An Engine owns the handle registry and the shared random generator. Each
// operation is a separate method; contexts are created fully initialized or
// not at all, and every later call validates the handle it is given.
//
//	e, _ := ctxcrypt.NewEngine(ctxcrypt.Options{})
//	h, _ := e.ECDHInit(ecc.Secp256r1)
//	pub, _ := e.ECDHPublic(h)
//	defer e.Release(h)
package ctxcrypt
