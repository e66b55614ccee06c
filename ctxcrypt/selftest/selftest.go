// Package selftest runs known-answer and round-trip checks through the
// call boundary, the way an application would drive the engine.
package selftest

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/call"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/dhm"
)

// Check is the outcome of one test.
type Check struct {
	Name     string
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Report collects every check of a run.
type Report struct {
	Checks []Check
}

// Passed reports whether no check failed. Skipped checks do not count.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the failing checks.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

type runner struct {
	d      *call.Dispatcher
	log    *zap.Logger
	report Report
}

// Run executes every check against d. Checks for features disabled on the
// engine are recorded as skipped.
func Run(d *call.Dispatcher, log *zap.Logger) Report {
	if log == nil {
		log = zap.NewNop()
	}
	r := &runner{d: d, log: log}
	r.run("rc4", r.rc4)
	r.run("chacha20", r.chacha20)
	r.run("poly1305", r.poly1305)
	r.run("chacha20poly1305", r.aead)
	r.run("dh-group14", r.dh)
	for _, c := range d.Engine().Curves() {
		r.run("ecdh-"+c.String(), func() error { return r.ecdh(c.String()) })
		if !c.Montgomery() {
			r.run("ecdsa-"+c.String(), func() error { return r.ecdsa(c.String()) })
		}
	}
	r.run("rsa-2048", r.rsa)
	return r.report
}

func (r *runner) run(name string, fn func() error) {
	start := time.Now()
	err := fn()
	c := Check{Name: name, Duration: time.Since(start)}
	switch {
	case errors.Is(err, cryptoerr.ErrFeatureUnavailable):
		c.Skipped = true
		r.log.Info("selftest skipped", zap.String("check", name), zap.Error(err))
	case err != nil:
		c.Err = err
		r.log.Error("selftest failed", zap.String("check", name), zap.Error(err))
	default:
		r.log.Debug("selftest passed", zap.String("check", name), zap.Duration("took", c.Duration))
	}
	r.report.Checks = append(r.report.Checks, c)
}

func (r *runner) release(res call.Result) {
	if !res.Handle.IsZero() {
		r.d.Engine().Release(res.Handle)
	}
}

func unhex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (r *runner) rc4() error {
	enc, err := r.d.RC4(call.RC4Args{Key: []byte("Key")})
	if err != nil {
		return err
	}
	defer r.release(enc)
	data := []byte("Plaintext")
	if _, err := r.d.RC4(call.RC4Args{Stream: true, Handle: enc.Handle, Data: data}); err != nil {
		return err
	}
	if want := unhex("bbf316e8d940af0ad3"); !bytes.Equal(data, want) {
		return fmt.Errorf("keystream %x, want %x", data, want)
	}
	return nil
}

// RFC 8439 section 2.4.2.
func (r *runner) chacha20() error {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	nonce := unhex("000000000000004a00000000")
	pt := []byte("Ladies and Gentlemen of the class of '99: If I could offer you only one tip for the future, sunscreen would be it.")
	res, err := r.d.ChaCha20(call.ChaCha20Args{Key: key, Init: &call.ChaCha20Init{Nonce: nonce, Counter: 1}, Stream: pt})
	if err != nil {
		return err
	}
	defer r.release(res)
	if want := unhex("6e2e359a2568f98041ba0728dd0d6981"); !bytes.Equal(res.Bytes[:16], want) {
		return fmt.Errorf("ciphertext %x, want prefix %x", res.Bytes[:16], want)
	}
	return nil
}

// RFC 8439 section 2.5.2.
func (r *runner) poly1305() error {
	key := unhex("85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b")
	res, err := r.d.Poly1305(call.Poly1305Args{Key: key, Update: []byte("Cryptographic Forum Research Group"), Finish: true})
	if err != nil {
		return err
	}
	defer r.release(res)
	if want := unhex("a8061dc1305136c6c22b8baf0c0127a9"); !bytes.Equal(res.Bytes, want) {
		return fmt.Errorf("tag %x, want %x", res.Bytes, want)
	}
	return nil
}

func (r *runner) aead() error {
	key := unhex("808182838485868788898a8b8c8d8e8f909192939495969798999a9b9c9d9e9f")
	iv := unhex("070000004041424344454647")
	s, err := r.d.AEAD(call.AEADArgs{Init: &call.AEADKeys{LocalKey: key, LocalIV: iv, RemoteKey: key, RemoteIV: iv}})
	if err != nil {
		return err
	}
	defer r.release(s)

	aad := unhex("50515253c0c1c2c3c4c5c6c7")
	ct, err := r.d.AEAD(call.AEADArgs{Handle: s.Handle, Encrypt: []byte("selftest record"), AAD: aad, Sequence: 9})
	if err != nil {
		return err
	}
	pt, err := r.d.AEAD(call.AEADArgs{Handle: s.Handle, Decrypt: ct.Bytes, AAD: aad, Sequence: 9})
	if err != nil {
		return err
	}
	if string(pt.Bytes) != "selftest record" {
		return fmt.Errorf("round trip returned %q", pt.Bytes)
	}
	if _, err := r.d.AEAD(call.AEADArgs{Handle: s.Handle, Decrypt: ct.Bytes, AAD: aad, Sequence: 10}); !errors.Is(err, cryptoerr.ErrAuthentication) {
		return fmt.Errorf("wrong sequence accepted: %v", err)
	}
	return nil
}

func (r *runner) dh() error {
	a, err := r.d.DHInit(dhm.Group14G, dhm.Group14P)
	if err != nil {
		return err
	}
	defer r.release(a)
	b, err := r.d.DHInit(dhm.Group14G, dhm.Group14P)
	if err != nil {
		return err
	}
	defer r.release(b)
	return agree(
		func() (call.Result, error) { return r.d.DH(call.DHArgs{Handle: a.Handle, Public: true}) },
		func() (call.Result, error) { return r.d.DH(call.DHArgs{Handle: b.Handle, Public: true}) },
		func(peer []byte) (call.Result, error) { return r.d.DH(call.DHArgs{Handle: a.Handle, Secret: peer}) },
		func(peer []byte) (call.Result, error) { return r.d.DH(call.DHArgs{Handle: b.Handle, Secret: peer}) },
	)
}

func agree(pubA, pubB func() (call.Result, error), secA, secB func([]byte) (call.Result, error)) error {
	pa, err := pubA()
	if err != nil {
		return err
	}
	pb, err := pubB()
	if err != nil {
		return err
	}
	sa, err := secA(pb.Bytes)
	if err != nil {
		return err
	}
	sb, err := secB(pa.Bytes)
	if err != nil {
		return err
	}
	if !bytes.Equal(sa.Bytes, sb.Bytes) {
		return errors.New("shared secrets differ")
	}
	return nil
}

func (r *runner) ecdh(curve string) error {
	a, err := r.d.ECDH(call.ECDHArgs{Init: curve})
	if err != nil {
		return err
	}
	defer r.release(a)
	b, err := r.d.ECDH(call.ECDHArgs{Init: curve})
	if err != nil {
		return err
	}
	defer r.release(b)
	return agree(
		func() (call.Result, error) { return r.d.ECDH(call.ECDHArgs{Handle: a.Handle, Public: true}) },
		func() (call.Result, error) { return r.d.ECDH(call.ECDHArgs{Handle: b.Handle, Public: true}) },
		func(peer []byte) (call.Result, error) { return r.d.ECDH(call.ECDHArgs{Handle: a.Handle, Secret: peer}) },
		func(peer []byte) (call.Result, error) { return r.d.ECDH(call.ECDHArgs{Handle: b.Handle, Secret: peer}) },
	)
}

func (r *runner) ecdsa(curve string) error {
	kp, err := r.d.ECDH(call.ECDHArgs{Init: curve, Public: true})
	if err != nil {
		return err
	}
	defer r.release(kp)
	digest := sha256.Sum256([]byte("selftest " + curve))
	sig, err := r.d.ECDSA(call.ECDSAArgs{Handle: kp.Handle, Digest: digest[:], Sign: true})
	if err != nil {
		return err
	}
	ok, err := r.d.ECDSA(call.ECDSAArgs{Key: kp.Bytes, Curve: curve, Digest: digest[:], Verify: sig.Bytes})
	if err != nil {
		return err
	}
	if !ok.Bool {
		return errors.New("signature rejected")
	}
	digest[0] ^= 1
	ok, err = r.d.ECDSA(call.ECDSAArgs{Handle: kp.Handle, Digest: digest[:], Verify: sig.Bytes})
	if err != nil {
		return err
	}
	if ok.Bool {
		return errors.New("signature accepted for another digest")
	}
	return nil
}

func (r *runner) rsa() error {
	k, err := rsa.GenerateKey(r.d.Engine().Rand(), 2048)
	if err != nil {
		return err
	}
	res, err := r.d.RSAInit(call.RSAInitArgs{
		N: k.N.Bytes(),
		E: big.NewInt(int64(k.E)).Bytes(),
		Private: &call.RSAPrivate{
			D: k.D.Bytes(), P: k.Primes[0].Bytes(), Q: k.Primes[1].Bytes(),
		},
	})
	if err != nil {
		return err
	}
	defer r.release(res)

	ct, err := r.d.RSA(call.RSAArgs{Handle: res.Handle, Data: []byte("selftest"), Encrypt: true})
	if err != nil {
		return err
	}
	pt, err := r.d.RSA(call.RSAArgs{Handle: res.Handle, Data: ct.Bytes, Decrypt: true})
	if err != nil {
		return err
	}
	if string(pt.Bytes) != "selftest" {
		return fmt.Errorf("decrypt returned %q", pt.Bytes)
	}
	sig, err := r.d.RSA(call.RSAArgs{Handle: res.Handle, Data: []byte("selftest"), Sign: true})
	if err != nil {
		return err
	}
	ok, err := r.d.RSA(call.RSAArgs{Handle: res.Handle, Data: []byte("selftest"), Verify: sig.Bytes})
	if err != nil {
		return err
	}
	if !ok.Bool {
		return errors.New("signature rejected")
	}
	return nil
}
