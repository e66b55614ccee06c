package handle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// Kind tags the context type a handle refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindRC4
	KindChaCha20
	KindPoly1305
	KindChaCha20Poly1305
	KindDHM
	KindRSA
	KindECDH
)

var kindNames = [...]string{
	KindInvalid:          "invalid",
	KindRC4:              "rc4",
	KindChaCha20:         "chacha20",
	KindPoly1305:         "poly1305",
	KindChaCha20Poly1305: "chacha20poly1305",
	KindDHM:              "dhm",
	KindRSA:              "rsa",
	KindECDH:             "ecdh",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Handle is an opaque reference to a context owned by a Registry.
// The zero Handle never refers to a live context.
type Handle struct {
	owner uint64
	kind  Kind
	index uint32
	gen   uint32
}

// Kind returns the context type the handle was issued for.
func (h Handle) Kind() Kind { return h.kind }

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d.%d", h.kind, h.index, h.gen)
}

// Destructor releases the resources held by a context. It runs exactly once,
// when the handle is destroyed.
type Destructor func(ctx any)

type slot struct {
	gen  uint32
	kind Kind
	live bool
	ctx  any
}

// registryIDs numbers registries so a handle only resolves in the one that
// issued it. Zero is never assigned.
var registryIDs atomic.Uint64

// Registry is an arena of contexts addressed by generation-tagged handles.
// A destroyed slot is reused with a bumped generation, so stale handles are
// rejected instead of aliasing the new occupant.
type Registry struct {
	id          uint64
	mu          sync.Mutex
	destructors map[Kind]Destructor
	slots       []slot
	free        []uint32
	live        int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		id:          registryIDs.Add(1),
		destructors: make(map[Kind]Destructor),
	}
}

// Register associates a destructor with a kind. Registering a kind twice
// keeps the first destructor.
func (r *Registry) Register(kind Kind, d Destructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.destructors[kind]; ok {
		return
	}
	r.destructors[kind] = d
}

// Registered reports whether kind has a destructor.
func (r *Registry) Registered(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.destructors[kind]
	return ok
}

// Create stores ctx and returns the handle that owns it.
func (r *Registry) Create(kind Kind, ctx any) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.destructors[kind]; !ok {
		return Handle{}, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "kind %s is not registered", kind)
	}

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}

	s := &r.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.kind = kind
	s.ctx = ctx
	s.live = true
	r.live++

	return Handle{owner: r.id, kind: kind, index: idx, gen: s.gen}, nil
}

func (r *Registry) slotFor(h Handle) (*slot, error) {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "unknown handle %s", h)
	}
	if h.owner != r.id {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "handle %s belongs to another registry", h)
	}
	s := &r.slots[h.index]
	if !s.live || s.gen != h.gen || s.kind != h.kind {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "stale handle %s", h)
	}
	return s, nil
}

// Lookup returns the context behind h after checking it was issued for kind
// and is still live.
func (r *Registry) Lookup(h Handle, kind Kind) (any, error) {
	if h.kind != kind {
		return nil, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "want %s handle, got %s", kind, h.kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.slotFor(h)
	if err != nil {
		return nil, err
	}
	return s.ctx, nil
}

// Get is Lookup with the payload asserted to T.
func Get[T any](r *Registry, h Handle, kind Kind) (T, error) {
	var zero T
	ctx, err := r.Lookup(h, kind)
	if err != nil {
		return zero, err
	}
	v, ok := ctx.(T)
	if !ok {
		return zero, cryptoerr.Wrap(cryptoerr.ErrInvalidHandle, "handle %s holds %T", h, ctx)
	}
	return v, nil
}

// Destroy runs the destructor for h and frees its slot. Destroying an
// already destroyed handle returns ErrInvalidHandle.
func (r *Registry) Destroy(h Handle) error {
	r.mu.Lock()
	s, err := r.slotFor(h)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	ctx := s.ctx
	d := r.destructors[s.kind]
	s.ctx = nil
	s.live = false
	r.free = append(r.free, h.index)
	r.live--
	r.mu.Unlock()

	if d != nil {
		d(ctx)
	}
	return nil
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
