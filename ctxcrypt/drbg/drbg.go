// Package drbg provides the shared random generator used for key generation
// and signing.
//
// The generator is seeded once through HKDF-SHA256 and produces output from
// a ChaCha20 keystream. Every draw first replaces the key with fresh
// keystream, so earlier output cannot be recomputed from a captured state.
package drbg

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/stream"
)

// SeedSize is the amount of entropy drawn when seeding from a reader.
const SeedSize = 48

var ErrNotSeeded = errors.New("drbg: generator not seeded")

var zeroNonce [stream.NonceSize]byte

// Generator is a seeded random stream. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	key   [stream.KeySize]byte
	ready bool
	pers  []byte
}

// New seeds a generator with SeedSize bytes from entropy. A nil entropy
// reader means crypto/rand.
func New(entropy io.Reader, personalization []byte) (*Generator, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	g := &Generator{pers: append([]byte(nil), personalization...)}
	if err := g.Reseed(entropy); err != nil {
		return nil, err
	}
	return g, nil
}

// NewFromSeed returns a generator whose output is fully determined by seed
// and personalization.
func NewFromSeed(seed, personalization []byte) *Generator {
	g := &Generator{pers: append([]byte(nil), personalization...)}
	if err := g.mix(seed); err != nil {
		// HKDF-SHA256 yields up to 8160 bytes; a 32-byte key cannot fail.
		panic(err)
	}
	return g
}

// Reseed mixes SeedSize fresh bytes from entropy into the state.
func (g *Generator) Reseed(entropy io.Reader) error {
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(entropy, seed); err != nil {
		return err
	}
	err := g.mix(seed)
	for i := range seed {
		seed[i] = 0
	}
	return err
}

func (g *Generator) mix(seed []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var salt []byte
	if g.ready {
		salt = g.key[:]
	}
	kdf := hkdf.New(sha256.New, seed, salt, g.pers)
	var next [stream.KeySize]byte
	if _, err := io.ReadFull(kdf, next[:]); err != nil {
		return err
	}
	g.key = next
	g.ready = true
	return nil
}

// Read fills p with random bytes. It never returns a short read.
func (g *Generator) Read(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return 0, ErrNotSeeded
	}

	c, err := stream.NewChaCha20(g.key[:])
	if err != nil {
		return 0, err
	}
	defer c.Wipe()
	if err := c.SetIV(zeroNonce[:], 0, [8]byte{}); err != nil {
		return 0, err
	}

	next, err := c.KeyStream(stream.KeySize)
	if err != nil {
		return 0, err
	}
	copy(g.key[:], next)
	for i := range next {
		next[i] = 0
	}

	for i := range p {
		p[i] = 0
	}
	if err := c.XORKeyStream(p, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
