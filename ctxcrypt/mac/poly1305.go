// Package mac provides the Poly1305 one-time authenticator.
package mac

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/poly1305"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

const (
	KeySize = 32
	TagSize = poly1305.TagSize
)

// ErrFinished is returned when data is written to a MAC whose tag has
// already been produced.
var ErrFinished = fmt.Errorf("%w: %w", cryptoerr.ErrCryptoOperation, errors.New("mac: poly1305 already finished"))

// Poly1305 accumulates a message under a one-time key. After Finish or
// Verify the state is terminal.
type Poly1305 struct {
	m        *poly1305.MAC
	finished bool
	tag      [TagSize]byte
}

// NewPoly1305 creates an accumulator from a 32-byte one-time key.
func NewPoly1305(key []byte) (*Poly1305, error) {
	if len(key) != KeySize {
		return nil, cryptoerr.Length("poly1305 key", len(key))
	}
	var k [KeySize]byte
	copy(k[:], key)
	p := &Poly1305{m: poly1305.New(&k)}
	for i := range k {
		k[i] = 0
	}
	return p, nil
}

// Write absorbs data. It never returns a short write.
func (p *Poly1305) Write(data []byte) (int, error) {
	if p.finished {
		return 0, ErrFinished
	}
	return p.m.Write(data)
}

// Update is Write without the byte count.
func (p *Poly1305) Update(data []byte) error {
	_, err := p.Write(data)
	return err
}

// Finish returns the 16-byte tag. Calling it again returns the same tag.
func (p *Poly1305) Finish() [TagSize]byte {
	if !p.finished {
		p.m.Sum(p.tag[:0])
		p.finished = true
		p.m = nil
	}
	return p.tag
}

// Verify finishes the accumulator and compares the tag with expected in
// constant time. A tag of the wrong length never matches.
func (p *Poly1305) Verify(expected []byte) bool {
	tag := p.Finish()
	return Equal(tag[:], expected)
}

// Finished reports whether the tag has been produced.
func (p *Poly1305) Finished() bool { return p.finished }

// Wipe drops the accumulator and the cached tag.
func (p *Poly1305) Wipe() {
	p.m = nil
	p.tag = [TagSize]byte{}
	p.finished = true
}

// Equal compares two tags in constant time.
func Equal(a, b []byte) bool {
	if len(a) != TagSize || len(b) != TagSize {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
