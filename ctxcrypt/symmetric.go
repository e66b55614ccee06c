package ctxcrypt

import (
	"encoding/binary"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/aead"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/mac"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/stream"
)

// RC4Init keys a new RC4 context.
func (e *Engine) RC4Init(key []byte) (handle.Handle, error) {
	if err := e.require(e.rc4, "rc4"); err != nil {
		return handle.Handle{}, err
	}
	c, err := stream.NewRC4(key)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindRC4, err)
	}
	return e.publish(handle.KindRC4, c)
}

// RC4Stream encrypts or decrypts data in place.
func (e *Engine) RC4Stream(h handle.Handle, data []byte) error {
	if err := e.require(e.rc4, "rc4"); err != nil {
		return err
	}
	c, err := handle.Get[*stream.RC4](e.reg, h, handle.KindRC4)
	if err != nil {
		return err
	}
	return c.XORKeyStream(data, data)
}

// ChaCha20New keys a new ChaCha20 context with a 16 or 32 byte key.
func (e *Engine) ChaCha20New(key []byte) (handle.Handle, error) {
	if err := e.require(e.chacha, "chacha20"); err != nil {
		return handle.Handle{}, err
	}
	c, err := stream.NewChaCha20(key)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindChaCha20, err)
	}
	return e.publish(handle.KindChaCha20, c)
}

// ChaCha20Init loads nonce and starting block counter. A non-zero sequence
// is encoded big-endian and xored into the nonce tail, the same record
// nonce derivation the AEAD uses.
func (e *Engine) ChaCha20Init(h handle.Handle, nonce []byte, counter, sequence uint64) error {
	if err := e.require(e.chacha, "chacha20"); err != nil {
		return err
	}
	c, err := handle.Get[*stream.ChaCha20](e.reg, h, handle.KindChaCha20)
	if err != nil {
		return err
	}
	var extra [8]byte
	binary.BigEndian.PutUint64(extra[:], sequence)
	return c.SetIV(nonce, counter, extra)
}

// ChaCha20Stream returns data xored with the next len(data) keystream bytes.
// Empty data yields an empty result.
func (e *Engine) ChaCha20Stream(h handle.Handle, data []byte) ([]byte, error) {
	if err := e.require(e.chacha, "chacha20"); err != nil {
		return nil, err
	}
	c, err := handle.Get[*stream.ChaCha20](e.reg, h, handle.KindChaCha20)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	if err := c.XORKeyStream(out, data); err != nil {
		return nil, err
	}
	return out, nil
}

// Poly1305New starts a MAC under a 32-byte one-time key.
func (e *Engine) Poly1305New(key []byte) (handle.Handle, error) {
	if err := e.require(e.chacha, "poly1305"); err != nil {
		return handle.Handle{}, err
	}
	p, err := mac.NewPoly1305(key)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindPoly1305, err)
	}
	return e.publish(handle.KindPoly1305, p)
}

func (e *Engine) poly1305(h handle.Handle) (*mac.Poly1305, error) {
	if err := e.require(e.chacha, "poly1305"); err != nil {
		return nil, err
	}
	return handle.Get[*mac.Poly1305](e.reg, h, handle.KindPoly1305)
}

// Poly1305Update absorbs data.
func (e *Engine) Poly1305Update(h handle.Handle, data []byte) error {
	p, err := e.poly1305(h)
	if err != nil {
		return err
	}
	return p.Update(data)
}

// Poly1305Finish returns the 16-byte tag.
func (e *Engine) Poly1305Finish(h handle.Handle) ([]byte, error) {
	p, err := e.poly1305(h)
	if err != nil {
		return nil, err
	}
	tag := p.Finish()
	return tag[:], nil
}

// Poly1305Verify finishes the MAC and compares it with tag in constant time.
func (e *Engine) Poly1305Verify(h handle.Handle, tag []byte) (bool, error) {
	p, err := e.poly1305(h)
	if err != nil {
		return false, err
	}
	return p.Verify(tag), nil
}

// AEADInit creates a ChaCha20-Poly1305 session. The local key and IV seal
// outgoing records, the remote ones open incoming records.
func (e *Engine) AEADInit(localKey, localIV, remoteKey, remoteIV []byte) (handle.Handle, error) {
	if err := e.require(e.chacha, "chacha20poly1305"); err != nil {
		return handle.Handle{}, err
	}
	s, err := aead.NewSession(localKey, localIV, remoteKey, remoteIV)
	if err != nil {
		return handle.Handle{}, e.initFailed(handle.KindChaCha20Poly1305, err)
	}
	return e.publish(handle.KindChaCha20Poly1305, s)
}

func (e *Engine) session(h handle.Handle) (*aead.Session, error) {
	if err := e.require(e.chacha, "chacha20poly1305"); err != nil {
		return nil, err
	}
	return handle.Get[*aead.Session](e.reg, h, handle.KindChaCha20Poly1305)
}

// AEADEncrypt seals plaintext as record seq and returns ciphertext || tag.
func (e *Engine) AEADEncrypt(h handle.Handle, plaintext, aad []byte, seq uint64) ([]byte, error) {
	s, err := e.session(h)
	if err != nil {
		return nil, err
	}
	return s.Seal(plaintext, aad, seq)
}

// AEADDecrypt opens record seq. A tag mismatch returns
// cryptoerr.ErrAuthentication and no plaintext.
func (e *Engine) AEADDecrypt(h handle.Handle, sealed, aad []byte, seq uint64) ([]byte, error) {
	s, err := e.session(h)
	if err != nil {
		return nil, err
	}
	return s.Open(sealed, aad, seq)
}
