package aead

import (
	"encoding/binary"
	"sync"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/mac"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/stream"
)

// Overhead is the size of the authentication tag appended to every record.
const Overhead = mac.TagSize

// Direction is one keyed half of a session.
type Direction struct {
	cipher *stream.ChaCha20
	iv     []byte
}

func newDirection(key, iv []byte) (*Direction, error) {
	if len(iv) != stream.NonceSize && len(iv) != stream.NonceSize8 {
		return nil, cryptoerr.Length("chacha20poly1305 iv", len(iv))
	}
	c, err := stream.NewChaCha20(key)
	if err != nil {
		return nil, err
	}
	return &Direction{cipher: c, iv: append([]byte(nil), iv...)}, nil
}

func sequenceBytes(seq uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b
}

// macKey returns the one-time Poly1305 key for record seq and leaves the
// cipher positioned at block 1 of the same record.
func (d *Direction) macKey(seq uint64) ([]byte, error) {
	extra := sequenceBytes(seq)
	if err := d.cipher.SetIV(d.iv, 0, extra); err != nil {
		return nil, err
	}
	key, err := d.cipher.KeyStream(mac.KeySize)
	if err != nil {
		return nil, err
	}
	if err := d.cipher.SetIV(d.iv, 1, extra); err != nil {
		return nil, err
	}
	return key, nil
}

var zeroPad [16]byte

func (d *Direction) tag(polyKey, aad, ciphertext []byte) ([mac.TagSize]byte, error) {
	p, err := mac.NewPoly1305(polyKey)
	if err != nil {
		return [mac.TagSize]byte{}, err
	}
	p.Write(aad)
	if r := len(aad) % 16; r != 0 {
		p.Write(zeroPad[r:])
	}
	p.Write(ciphertext)
	if r := len(ciphertext) % 16; r != 0 {
		p.Write(zeroPad[r:])
	}
	var lengths [16]byte
	binary.LittleEndian.PutUint64(lengths[0:8], uint64(len(aad)))
	binary.LittleEndian.PutUint64(lengths[8:16], uint64(len(ciphertext)))
	p.Write(lengths[:])
	return p.Finish(), nil
}

func (d *Direction) seal(plaintext, aad []byte, seq uint64) ([]byte, error) {
	polyKey, err := d.macKey(seq)
	if err != nil {
		return nil, err
	}
	defer wipe(polyKey)

	out := make([]byte, len(plaintext)+Overhead)
	ct := out[:len(plaintext)]
	if err := d.cipher.XORKeyStream(ct, plaintext); err != nil {
		return nil, err
	}
	tag, err := d.tag(polyKey, aad, ct)
	if err != nil {
		return nil, err
	}
	copy(out[len(plaintext):], tag[:])
	return out, nil
}

func (d *Direction) open(sealed, aad []byte, seq uint64) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, cryptoerr.Length("chacha20poly1305 input", len(sealed))
	}
	ct := sealed[:len(sealed)-Overhead]
	received := sealed[len(sealed)-Overhead:]

	polyKey, err := d.macKey(seq)
	if err != nil {
		return nil, err
	}
	defer wipe(polyKey)

	expected, err := d.tag(polyKey, aad, ct)
	if err != nil {
		return nil, err
	}
	if !mac.Equal(expected[:], received) {
		return nil, cryptoerr.ErrAuthentication
	}

	out := make([]byte, len(ct))
	if err := d.cipher.XORKeyStream(out, ct); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Direction) wipe() {
	d.cipher.Wipe()
	wipe(d.iv)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Session is a bidirectional ChaCha20-Poly1305 context.
type Session struct {
	mu     sync.Mutex
	local  *Direction
	remote *Direction
}

// NewSession keys both directions. Keys are 16 or 32 bytes, IVs 8 or 12 bytes.
func NewSession(localKey, localIV, remoteKey, remoteIV []byte) (*Session, error) {
	local, err := newDirection(localKey, localIV)
	if err != nil {
		return nil, err
	}
	remote, err := newDirection(remoteKey, remoteIV)
	if err != nil {
		local.wipe()
		return nil, err
	}
	return &Session{local: local, remote: remote}, nil
}

// Seal encrypts plaintext with the local direction for record seq and
// returns ciphertext || tag.
func (s *Session) Seal(plaintext, aad []byte, seq uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "aead: session wiped")
	}
	return s.local.seal(plaintext, aad, seq)
}

// Open authenticates ciphertext || tag with the remote direction for record
// seq and returns the plaintext. The tag is checked before anything is
// decrypted; on mismatch ErrAuthentication is returned and no plaintext.
func (s *Session) Open(sealed, aad []byte, seq uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "aead: session wiped")
	}
	return s.remote.open(sealed, aad, seq)
}

// Wipe zeroes both directions. The session is unusable afterwards.
func (s *Session) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local != nil {
		s.local.wipe()
		s.remote.wipe()
		s.local, s.remote = nil, nil
	}
}
