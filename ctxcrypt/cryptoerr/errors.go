// Package cryptoerr defines the error taxonomy shared by every ctxcrypt package.
//
// Packages wrap these sentinels with context, callers match them with errors.Is.
package cryptoerr

import (
	"errors"
	"fmt"
)

var (
	// ErrFeatureUnavailable reports an algorithm, curve or digest that is disabled
	// or has no backend.
	ErrFeatureUnavailable = errors.New("ctxcrypt: feature unavailable")
	// ErrInvalidHandle reports a handle of the wrong kind, a released handle or a
	// handle that was never issued.
	ErrInvalidHandle = errors.New("ctxcrypt: invalid handle")
	// ErrInvalidArgumentCombination reports mutually exclusive options used
	// together or a missing companion argument.
	ErrInvalidArgumentCombination = errors.New("ctxcrypt: invalid argument combination")
	// ErrInvalidDataLength reports a key, nonce, tag or modulus of unsupported size.
	ErrInvalidDataLength = errors.New("ctxcrypt: invalid data length")
	// ErrCryptoOperation reports a failure inside the underlying math.
	ErrCryptoOperation = errors.New("ctxcrypt: crypto operation failed")
	// ErrAuthentication reports an AEAD tag mismatch.
	ErrAuthentication = errors.New("ctxcrypt: authentication failed")
)

// Wrap annotates one of the sentinels with a formatted message.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Length returns an ErrInvalidDataLength error naming the offending field.
func Length(what string, got int) error {
	return fmt.Errorf("%w: %s has %d bytes", ErrInvalidDataLength, what, got)
}

// Unavailable returns an ErrFeatureUnavailable error naming the feature.
func Unavailable(feature string) error {
	return fmt.Errorf("%w: %s", ErrFeatureUnavailable, feature)
}
