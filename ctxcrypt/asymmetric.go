package ctxcrypt

import (
	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/dhm"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/ecc"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/pkcs1"
)

// RSAKey carries raw big-endian key components. D, P and Q are either all
// set (private key) or all empty (public key).
type RSAKey struct {
	N, E    []byte
	D, P, Q []byte
}

func (k RSAKey) private() bool {
	return len(k.D) > 0 || len(k.P) > 0 || len(k.Q) > 0
}

// RSAInit builds an RSA context after running the key checks.
func (e *Engine) RSAInit(k RSAKey) (handle.Handle, error) {
	if err := e.require(e.rsa, "rsa"); err != nil {
		return handle.Handle{}, err
	}
	var (
		key *pkcs1.Key
		err error
	)
	if k.private() {
		key, err = pkcs1.NewPrivate(k.N, k.E, k.D, k.P, k.Q)
	} else {
		key, err = pkcs1.NewPublic(k.N, k.E)
	}
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindRSA, err)
	}
	return e.publish(handle.KindRSA, key)
}

func (e *Engine) rsaKey(h handle.Handle) (*pkcs1.Key, error) {
	if err := e.require(e.rsa, "rsa"); err != nil {
		return nil, err
	}
	return handle.Get[*pkcs1.Key](e.reg, h, handle.KindRSA)
}

// RSAEncrypt encrypts data with PKCS #1 v1.5 padding.
func (e *Engine) RSAEncrypt(h handle.Handle, data []byte) ([]byte, error) {
	k, err := e.rsaKey(h)
	if err != nil {
		return nil, err
	}
	return k.Encrypt(e.rng, data)
}

// RSADecrypt decrypts data with the private key.
func (e *Engine) RSADecrypt(h handle.Handle, data []byte) ([]byte, error) {
	k, err := e.rsaKey(h)
	if err != nil {
		return nil, err
	}
	return k.Decrypt(e.rng, data)
}

// RSASign hashes data with digest and signs it.
func (e *Engine) RSASign(h handle.Handle, data []byte, digest pkcs1.Digest) ([]byte, error) {
	k, err := e.rsaKey(h)
	if err != nil {
		return nil, err
	}
	return k.Sign(e.rng, data, digest)
}

// RSAVerify reports whether sig signs data under digest.
func (e *Engine) RSAVerify(h handle.Handle, data, sig []byte, digest pkcs1.Digest) (bool, error) {
	k, err := e.rsaKey(h)
	if err != nil {
		return false, err
	}
	return k.Verify(data, sig, digest), nil
}

// DHInit creates a DH context over (g, p) with a fresh private exponent.
func (e *Engine) DHInit(g, p []byte) (handle.Handle, error) {
	c, err := dhm.New(e.rng, g, p)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindDHM, err)
	}
	return e.publish(handle.KindDHM, c)
}

// DHPublic returns the context's public value.
func (e *Engine) DHPublic(h handle.Handle) ([]byte, error) {
	c, err := handle.Get[*dhm.Context](e.reg, h, handle.KindDHM)
	if err != nil {
		return nil, err
	}
	return c.Public(), nil
}

// DHSecret derives the shared secret with a peer's public value.
func (e *Engine) DHSecret(h handle.Handle, peer []byte) ([]byte, error) {
	c, err := handle.Get[*dhm.Context](e.reg, h, handle.KindDHM)
	if err != nil {
		return nil, err
	}
	return c.SharedSecret(e.rng, peer)
}

// ECDHInit creates a key pair on curve.
func (e *Engine) ECDHInit(curve ecc.Curve) (handle.Handle, error) {
	if err := e.curve(curve); err != nil {
		return handle.Handle{}, err
	}
	kp, err := ecc.NewKeyPair(e.rng, curve)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindECDH, err)
	}
	return e.publish(handle.KindECDH, kp)
}

func (e *Engine) keyPair(h handle.Handle) (*ecc.KeyPair, error) {
	kp, err := handle.Get[*ecc.KeyPair](e.reg, h, handle.KindECDH)
	if err != nil {
		return nil, err
	}
	if err := e.curve(kp.Curve()); err != nil {
		return nil, err
	}
	return kp, nil
}

// ECDHCurve returns the curve a key pair was created on.
func (e *Engine) ECDHCurve(h handle.Handle) (ecc.Curve, error) {
	kp, err := handle.Get[*ecc.KeyPair](e.reg, h, handle.KindECDH)
	if err != nil {
		return ecc.CurveInvalid, err
	}
	return kp.Curve(), nil
}

// ECDHPublic returns the encoded public key, generating one if needed.
func (e *Engine) ECDHPublic(h handle.Handle) ([]byte, error) {
	kp, err := e.keyPair(h)
	if err != nil {
		return nil, err
	}
	return kp.Public(e.rng)
}

// ECDHSecret derives the shared secret with a peer's public key.
func (e *Engine) ECDHSecret(h handle.Handle, peer []byte) ([]byte, error) {
	kp, err := e.keyPair(h)
	if err != nil {
		return nil, err
	}
	return kp.SharedSecret(peer)
}

// ECDSASign signs digest with the key pair behind h. By default the
// long-term key is used; opts.Ephemeral replaces it first.
func (e *Engine) ECDSASign(h handle.Handle, digest []byte, opts ecc.SignOptions) ([]byte, error) {
	kp, err := e.keyPair(h)
	if err != nil {
		return nil, err
	}
	return ecc.Sign(e.rng, kp, digest, opts)
}

// ECDSAVerify checks a DER signature against the key pair behind h.
func (e *Engine) ECDSAVerify(h handle.Handle, digest, sig []byte) (bool, error) {
	kp, err := e.keyPair(h)
	if err != nil {
		return false, err
	}
	return ecc.VerifyKeyPair(kp, digest, sig)
}

// ECDSAVerifyRaw checks a DER signature against an encoded public key.
func (e *Engine) ECDSAVerifyRaw(curve ecc.Curve, pub, digest, sig []byte) (bool, error) {
	if err := e.curve(curve); err != nil {
		return false, err
	}
	if curve.Montgomery() {
		return false, cryptoerr.Unavailable("ecdsa on " + curve.String())
	}
	if err := ecc.CheckPublic(curve, pub); err != nil {
		return false, err
	}
	return ecc.Verify(curve, pub, digest, sig)
}
