package call

import (
	"github.com/TheusHen/ctxcrypt/ctxcrypt"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/ecc"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/pkcs1"
)

// RSAInitArgs: modulus and exponent, plus the optional private group.
type RSAInitArgs struct {
	N, E    []byte
	Private *RSAPrivate
}

// RSAPrivate is the private group of RSAInitArgs.
type RSAPrivate struct {
	D, P, Q []byte
}

// RSAInit returns the new handle.
func (d *Dispatcher) RSAInit(a RSAInitArgs) (Result, error) {
	k := ctxcrypt.RSAKey{N: a.N, E: a.E}
	if a.Private != nil {
		if len(a.Private.D) == 0 || len(a.Private.P) == 0 || len(a.Private.Q) == 0 {
			return Result{}, missing("rsa-init", "private group needs d, p and q")
		}
		k.D, k.P, k.Q = a.Private.D, a.Private.P, a.Private.Q
	}
	h, err := d.e.RSAInit(k)
	return Result{Handle: h}, err
}

// RSAArgs: exactly one of Encrypt, Decrypt, Sign or Verify (the signature).
// Hash names the digest and is only valid with Sign or Verify.
type RSAArgs struct {
	Handle  handle.Handle
	Data    []byte
	Encrypt bool
	Decrypt bool
	Sign    bool
	Verify  []byte
	Hash    *string
}

// RSA returns bytes for Encrypt, Decrypt and Sign and a bool for Verify.
func (d *Dispatcher) RSA(a RSAArgs) (Result, error) {
	if err := exclusive("rsa", a.Encrypt, a.Decrypt, a.Sign, a.Verify != nil); err != nil {
		return Result{}, err
	}
	if a.Hash != nil && !a.Sign && a.Verify == nil {
		return Result{}, missing("rsa", "hash is only valid with sign or verify")
	}
	digest := d.e.DefaultDigest()
	if a.Hash != nil {
		var err error
		if digest, err = pkcs1.ParseDigest(*a.Hash); err != nil {
			return Result{}, err
		}
	}

	switch {
	case a.Encrypt:
		out, err := d.e.RSAEncrypt(a.Handle, a.Data)
		return Result{Bytes: out}, err
	case a.Decrypt:
		out, err := d.e.RSADecrypt(a.Handle, a.Data)
		return Result{Bytes: out}, err
	case a.Sign:
		out, err := d.e.RSASign(a.Handle, a.Data, digest)
		return Result{Bytes: out}, err
	case a.Verify != nil:
		ok, err := d.e.RSAVerify(a.Handle, a.Data, a.Verify, digest)
		return Result{Bool: ok}, err
	}
	return Result{}, missing("rsa", "encrypt, decrypt, sign or verify required")
}

// DHInit returns a handle for the group (g, p).
func (d *Dispatcher) DHInit(g, p []byte) (Result, error) {
	h, err := d.e.DHInit(g, p)
	return Result{Handle: h}, err
}

// DHArgs: exactly one of Public or Secret (the peer's public value).
type DHArgs struct {
	Handle handle.Handle
	Public bool
	Secret []byte
}

// DH returns the public value or the shared secret.
func (d *Dispatcher) DH(a DHArgs) (Result, error) {
	if err := exclusive("dh", a.Public, a.Secret != nil); err != nil {
		return Result{}, err
	}
	switch {
	case a.Public:
		out, err := d.e.DHPublic(a.Handle)
		return Result{Bytes: out}, err
	case a.Secret != nil:
		out, err := d.e.DHSecret(a.Handle, a.Secret)
		return Result{Bytes: out}, err
	}
	return Result{}, missing("dh", "public or secret required")
}

// ECDHArgs: Init (a curve name) creates the key pair and may be combined
// with one of Curve, Public or Secret (the peer's public key), which are
// mutually exclusive.
type ECDHArgs struct {
	Handle handle.Handle
	Init   string
	Curve  bool
	Public bool
	Secret []byte
}

// ECDH returns the handle after Init, plus the curve, the public key or the
// shared secret when requested.
func (d *Dispatcher) ECDH(a ECDHArgs) (Result, error) {
	if err := exclusive("ecdh", a.Curve, a.Public, a.Secret != nil); err != nil {
		return Result{}, err
	}

	h := a.Handle
	created := false
	if a.Init != "" {
		curve, err := ecc.ParseCurve(a.Init)
		if err != nil {
			return Result{}, err
		}
		if h, err = d.e.ECDHInit(curve); err != nil {
			return Result{}, err
		}
		created = true
	}
	fail := func(err error) (Result, error) {
		if created {
			d.discard(h)
		}
		return Result{}, err
	}

	res := Result{Handle: h}
	switch {
	case a.Curve:
		c, err := d.e.ECDHCurve(h)
		if err != nil {
			return fail(err)
		}
		res.Curve = c
	case a.Public:
		out, err := d.e.ECDHPublic(h)
		if err != nil {
			return fail(err)
		}
		res.Bytes = out
	case a.Secret != nil:
		out, err := d.e.ECDHSecret(h, a.Secret)
		if err != nil {
			return fail(err)
		}
		res.Bytes = out
	case !created:
		return Result{}, missing("ecdh", "init, curve, public or secret required")
	}
	return res, nil
}

// ECDSAArgs: the key is either Handle or raw public key bytes, which need
// Curve. Exactly one of Sign or Verify (the signature) is required. Signing
// needs a handle.
type ECDSAArgs struct {
	Handle    handle.Handle
	Key       []byte
	Curve     string
	Digest    []byte
	Sign      bool
	Verify    []byte
	Ephemeral bool
}

// ECDSA returns the DER signature for Sign and a bool for Verify.
func (d *Dispatcher) ECDSA(a ECDSAArgs) (Result, error) {
	if err := exclusive("ecdsa", a.Sign, a.Verify != nil); err != nil {
		return Result{}, err
	}
	if !a.Sign && a.Verify == nil {
		return Result{}, missing("ecdsa", "sign or verify required")
	}
	if a.Key != nil && !a.Handle.IsZero() {
		return Result{}, missing("ecdsa", "pass a handle or a raw key, not both")
	}

	if a.Key != nil {
		if a.Curve == "" {
			return Result{}, missing("ecdsa", "raw key requires curve")
		}
		if a.Sign {
			return Result{}, missing("ecdsa", "signing requires a key pair handle")
		}
		curve, err := ecc.ParseCurve(a.Curve)
		if err != nil {
			return Result{}, err
		}
		ok, err := d.e.ECDSAVerifyRaw(curve, a.Key, a.Digest, a.Verify)
		return Result{Bool: ok}, err
	}

	if a.Sign {
		sig, err := d.e.ECDSASign(a.Handle, a.Digest, ecc.SignOptions{Ephemeral: a.Ephemeral})
		return Result{Handle: a.Handle, Bytes: sig}, err
	}
	ok, err := d.e.ECDSAVerify(a.Handle, a.Digest, a.Verify)
	return Result{Handle: a.Handle, Bool: ok}, err
}
