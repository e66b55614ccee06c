// Package call maps loosely typed, refinement-style arguments onto the
// engine's typed operations.
//
// Each argument struct mirrors one external operation: a required subject
// plus optional groups. A Dispatcher resolves the groups into exactly one
// engine call sequence. Mutually exclusive groups requested together, or a
// group missing its companion argument, fail with
// cryptoerr.ErrInvalidArgumentCombination before any context is touched.
package call

import (
	"go.uber.org/zap"

	"github.com/TheusHen/ctxcrypt/ctxcrypt"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/ecc"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
)

// Result is the union of values an operation can produce. Only the fields
// the operation documents are set.
type Result struct {
	Handle handle.Handle
	Bytes  []byte
	Bool   bool
	Curve  ecc.Curve
}

// Dispatcher runs argument structs against an engine.
type Dispatcher struct {
	e *ctxcrypt.Engine
}

// New returns a dispatcher bound to e.
func New(e *ctxcrypt.Engine) *Dispatcher { return &Dispatcher{e: e} }

// Engine returns the engine the dispatcher drives.
func (d *Dispatcher) Engine() *ctxcrypt.Engine { return d.e }

// discard releases a handle the dispatcher created for a call that then
// failed. The caller's error wins; a release failure is only logged.
func (d *Dispatcher) discard(h handle.Handle) {
	if err := d.e.Release(h); err != nil {
		d.e.Logger().Warn("releasing handle of failed call", zap.Stringer("handle", h), zap.Error(err))
	}
}

func exclusive(op string, groups ...bool) error {
	n := 0
	for _, g := range groups {
		if g {
			n++
		}
	}
	if n > 1 {
		return cryptoerr.Wrap(cryptoerr.ErrInvalidArgumentCombination, "%s: more than one mode requested", op)
	}
	return nil
}

func missing(op, what string) error {
	return cryptoerr.Wrap(cryptoerr.ErrInvalidArgumentCombination, "%s: %s", op, what)
}
