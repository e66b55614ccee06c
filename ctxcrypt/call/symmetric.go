package call

import (
	"github.com/TheusHen/ctxcrypt/ctxcrypt/handle"
)

// RC4Args: exactly one of Key (create) or Stream (apply to Data in place).
type RC4Args struct {
	Key    []byte
	Stream bool
	Handle handle.Handle
	Data   []byte
}

// RC4 returns the new handle, or Data after it was modified in place.
func (d *Dispatcher) RC4(a RC4Args) (Result, error) {
	if err := exclusive("rc4", a.Key != nil, a.Stream); err != nil {
		return Result{}, err
	}
	switch {
	case a.Stream:
		if err := d.e.RC4Stream(a.Handle, a.Data); err != nil {
			return Result{}, err
		}
		return Result{Handle: a.Handle, Bytes: a.Data}, nil
	case a.Key != nil:
		h, err := d.e.RC4Init(a.Key)
		return Result{Handle: h}, err
	}
	return Result{}, missing("rc4", "key or stream required")
}

// ChaCha20Init is the optional nonce group of ChaCha20Args.
type ChaCha20Init struct {
	Nonce   []byte
	Counter uint64
}

// ChaCha20Args: the subject is either Key (a new context is created) or
// Handle. Init, Sequence and Stream are applied in that order. Sequence
// only modifies the nonce and therefore requires Init.
type ChaCha20Args struct {
	Key      []byte
	Handle   handle.Handle
	Init     *ChaCha20Init
	Sequence *uint64
	Stream   []byte
	// StreamSet distinguishes an empty Stream from no stream request.
	StreamSet bool
}

// ChaCha20 returns the handle, and the processed bytes when a stream was
// requested.
func (d *Dispatcher) ChaCha20(a ChaCha20Args) (Result, error) {
	if a.Key != nil && !a.Handle.IsZero() {
		return Result{}, missing("chacha20", "pass a key or a handle, not both")
	}
	if a.Sequence != nil && a.Init == nil {
		return Result{}, missing("chacha20", "sequence requires init")
	}

	h := a.Handle
	created := false
	if a.Key != nil {
		var err error
		if h, err = d.e.ChaCha20New(a.Key); err != nil {
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

	if a.Init != nil {
		var seq uint64
		if a.Sequence != nil {
			seq = *a.Sequence
		}
		if err := d.e.ChaCha20Init(h, a.Init.Nonce, a.Init.Counter, seq); err != nil {
			return fail(err)
		}
	}
	res := Result{Handle: h}
	if a.StreamSet || a.Stream != nil {
		out, err := d.e.ChaCha20Stream(h, a.Stream)
		if err != nil {
			return fail(err)
		}
		res.Bytes = out
	}
	return res, nil
}

// Poly1305Args: the subject is Key or Handle. Update may be combined with
// one of Finish or Verify.
type Poly1305Args struct {
	Key    []byte
	Handle handle.Handle
	Update []byte
	Finish bool
	Verify []byte
}

// Poly1305 returns the handle, the tag after Finish or the comparison
// result after Verify.
func (d *Dispatcher) Poly1305(a Poly1305Args) (Result, error) {
	if a.Key != nil && !a.Handle.IsZero() {
		return Result{}, missing("poly1305", "pass a key or a handle, not both")
	}
	if err := exclusive("poly1305", a.Finish, a.Verify != nil); err != nil {
		return Result{}, err
	}

	h := a.Handle
	created := false
	if a.Key != nil {
		var err error
		if h, err = d.e.Poly1305New(a.Key); err != nil {
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

	if a.Update != nil {
		if err := d.e.Poly1305Update(h, a.Update); err != nil {
			return fail(err)
		}
	}
	switch {
	case a.Finish:
		tag, err := d.e.Poly1305Finish(h)
		if err != nil {
			return fail(err)
		}
		return Result{Handle: h, Bytes: tag}, nil
	case a.Verify != nil:
		ok, err := d.e.Poly1305Verify(h, a.Verify)
		if err != nil {
			return fail(err)
		}
		return Result{Handle: h, Bool: ok}, nil
	}
	return Result{Handle: h}, nil
}

// AEADKeys is the init group of AEADArgs.
type AEADKeys struct {
	LocalKey, LocalIV   []byte
	RemoteKey, RemoteIV []byte
}

// AEADArgs: exactly one of Init, Encrypt or Decrypt. Sequence is the record
// number used by Encrypt and Decrypt.
type AEADArgs struct {
	Handle   handle.Handle
	Init     *AEADKeys
	Encrypt  []byte
	Decrypt  []byte
	AAD      []byte
	Sequence uint64
}

// AEAD returns the new handle after Init, otherwise the output bytes. An
// authentication failure is reported as cryptoerr.ErrAuthentication.
func (d *Dispatcher) AEAD(a AEADArgs) (Result, error) {
	if err := exclusive("chacha20poly1305", a.Init != nil, a.Encrypt != nil, a.Decrypt != nil); err != nil {
		return Result{}, err
	}
	switch {
	case a.Init != nil:
		h, err := d.e.AEADInit(a.Init.LocalKey, a.Init.LocalIV, a.Init.RemoteKey, a.Init.RemoteIV)
		return Result{Handle: h}, err
	case a.Encrypt != nil:
		out, err := d.e.AEADEncrypt(a.Handle, a.Encrypt, a.AAD, a.Sequence)
		return Result{Handle: a.Handle, Bytes: out}, err
	case a.Decrypt != nil:
		out, err := d.e.AEADDecrypt(a.Handle, a.Decrypt, a.AAD, a.Sequence)
		return Result{Handle: a.Handle, Bytes: out}, err
	}
	return Result{}, missing("chacha20poly1305", "init, encrypt or decrypt required")
}
