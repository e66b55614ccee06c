package ctxcrypt

import (
	"io"

	"go.uber.org/zap"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/aead"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/dhm"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/drbg"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/ecc"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/mac"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/pkcs1"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/stream"
)

// DefaultPersonalization seeds the generator when Options leaves it empty.
const DefaultPersonalization = "ctxcrypt"

// Options configures an Engine. The zero value enables every algorithm and
// every curve that has a backend.
type Options struct {
	DisableRC4              bool
	DisableRSA              bool
	DisableChaCha20Poly1305 bool

	// Curves restricts ECDH and ECDSA to the listed curves. Empty means all.
	Curves []ecc.Curve

	// DefaultDigest names the RSA digest used when a call does not pick
	// one. Empty means sha256.
	DefaultDigest string

	Personalization []byte
	// Entropy seeds the generator. Nil means crypto/rand.
	Entropy io.Reader
	// Rand replaces the generator entirely, mainly for tests.
	Rand io.Reader

	Logger *zap.Logger
}

// Engine is the entry point for every operation.
type Engine struct {
	reg    *handle.Registry
	rng    io.Reader
	log    *zap.Logger
	digest pkcs1.Digest

	rc4, rsa, chacha bool
	curves           map[ecc.Curve]bool
}

// NewEngine seeds the random generator and registers every context kind.
func NewEngine(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	digest, err := pkcs1.ParseDigest(opts.DefaultDigest)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		pers := opts.Personalization
		if len(pers) == 0 {
			pers = []byte(DefaultPersonalization)
		}
		g, err := drbg.New(opts.Entropy, pers)
		if err != nil {
			return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "seeding generator: %v", err)
		}
		rng = g
	}

	e := &Engine{
		reg:    handle.NewRegistry(),
		rng:    rng,
		log:    log,
		digest: digest,
		rc4:    !opts.DisableRC4,
		rsa:    !opts.DisableRSA,
		chacha: !opts.DisableChaCha20Poly1305,
		curves: make(map[ecc.Curve]bool),
	}

	curves := opts.Curves
	if len(curves) == 0 {
		curves = ecc.Curves()
	}
	for _, c := range curves {
		if c.Available() {
			e.curves[c] = true
		}
	}

	e.reg.Register(handle.KindRC4, func(ctx any) { ctx.(*stream.RC4).Wipe() })
	e.reg.Register(handle.KindChaCha20, func(ctx any) { ctx.(*stream.ChaCha20).Wipe() })
	e.reg.Register(handle.KindPoly1305, func(ctx any) { ctx.(*mac.Poly1305).Wipe() })
	e.reg.Register(handle.KindChaCha20Poly1305, func(ctx any) { ctx.(*aead.Session).Wipe() })
	e.reg.Register(handle.KindDHM, func(ctx any) { ctx.(*dhm.Context).Wipe() })
	e.reg.Register(handle.KindRSA, func(ctx any) { ctx.(*pkcs1.Key).Wipe() })
	e.reg.Register(handle.KindECDH, func(ctx any) { ctx.(*ecc.KeyPair).Wipe() })

	log.Debug("engine ready",
		zap.Bool("rc4", e.rc4),
		zap.Bool("rsa", e.rsa),
		zap.Bool("chacha20poly1305", e.chacha),
		zap.Int("curves", len(e.curves)))
	return e, nil
}

// Rand returns the engine's random source.
func (e *Engine) Rand() io.Reader { return e.rng }

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger { return e.log }

// DefaultDigest returns the RSA digest used when a caller names none.
func (e *Engine) DefaultDigest() pkcs1.Digest { return e.digest }

// Curves returns the enabled curves in catalog order.
func (e *Engine) Curves() []ecc.Curve {
	var out []ecc.Curve
	for _, c := range ecc.Curves() {
		if e.curves[c] {
			out = append(out, c)
		}
	}
	return out
}

// Live returns the number of contexts that have not been released.
func (e *Engine) Live() int { return e.reg.Len() }

// Release destroys the context behind h and wipes its key material.
func (e *Engine) Release(h handle.Handle) error {
	if err := e.reg.Destroy(h); err != nil {
		return err
	}
	e.log.Debug("handle released", zap.Stringer("handle", h))
	return nil
}

func (e *Engine) publish(kind handle.Kind, ctx any) (handle.Handle, error) {
	h, err := e.reg.Create(kind, ctx)
	if err != nil {
		return handle.Handle{}, err
	}
	e.log.Debug("handle created", zap.Stringer("handle", h))
	return h, nil
}

func (e *Engine) initFailed(kind handle.Kind, err error) error {
	e.log.Warn("context init failed", zap.Stringer("kind", kind), zap.Error(err))
	return err
}

func (e *Engine) require(enabled bool, feature string) error {
	if !enabled {
		return cryptoerr.Unavailable(feature)
	}
	return nil
}

func (e *Engine) curve(c ecc.Curve) error {
	if !e.curves[c] {
		return cryptoerr.Unavailable("curve " + c.String())
	}
	return nil
}
