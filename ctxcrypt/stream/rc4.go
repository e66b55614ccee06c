package stream

import (
	"crypto/rc4"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// RC4 is a keyed RC4 keystream. It exists for legacy interoperability only.
type RC4 struct {
	c *rc4.Cipher
}

// NewRC4 keys a new RC4 state. The key must be 1 to 256 bytes long.
func NewRC4(key []byte) (*RC4, error) {
	if len(key) < 1 || len(key) > 256 {
		return nil, cryptoerr.Length("rc4 key", len(key))
	}
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rc4: %v", err)
	}
	return &RC4{c: c}, nil
}

// XORKeyStream xors src with the keystream into dst. dst and src may be the
// same slice.
func (r *RC4) XORKeyStream(dst, src []byte) error {
	if r.c == nil {
		return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "rc4: state wiped")
	}
	if len(dst) < len(src) {
		return cryptoerr.Length("rc4 output", len(dst))
	}
	r.c.XORKeyStream(dst[:len(src)], src)
	return nil
}

// Wipe zeroes the key schedule. The state is unusable afterwards.
func (r *RC4) Wipe() {
	if r.c != nil {
		r.c.Reset()
		r.c = nil
	}
}
