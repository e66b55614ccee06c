package pkcs1

import (
	"crypto"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"golang.org/x/crypto/ripemd160"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// Digest selects the hash applied to data before signing. DigestNone signs
// the data as given.
type Digest uint8

const (
	DigestNone Digest = iota
	DigestMD5
	DigestSHA1
	DigestSHA224
	DigestSHA256
	DigestSHA384
	DigestSHA512
	DigestRIPEMD160
)

// DefaultDigest is used when a caller does not name one.
const DefaultDigest = DigestSHA256

var digests = [...]struct {
	name string
	id   crypto.Hash
	fn   func() hash.Hash
}{
	DigestNone:      {"none", 0, nil},
	DigestMD5:       {"md5", crypto.MD5, md5.New},
	DigestSHA1:      {"sha1", crypto.SHA1, sha1.New},
	DigestSHA224:    {"sha224", crypto.SHA224, sha256.New224},
	DigestSHA256:    {"sha256", crypto.SHA256, sha256.New},
	DigestSHA384:    {"sha384", crypto.SHA384, sha512.New384},
	DigestSHA512:    {"sha512", crypto.SHA512, sha512.New},
	DigestRIPEMD160: {"ripemd160", crypto.RIPEMD160, ripemd160.New},
}

// ParseDigest looks a digest up by name. The empty name selects
// DefaultDigest.
func ParseDigest(name string) (Digest, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultDigest, nil
	}
	for d := range digests {
		if digests[d].name == name {
			return Digest(d), nil
		}
	}
	return DigestNone, cryptoerr.Unavailable("digest " + name)
}

func (d Digest) String() string {
	if int(d) < len(digests) {
		return digests[d].name
	}
	return "invalid"
}

// Hash returns the crypto.Hash identifying the digest in a PKCS #1
// DigestInfo. DigestNone maps to zero.
func (d Digest) Hash() crypto.Hash { return digests[d].id }

// Sum hashes data. DigestNone returns data unchanged.
func (d Digest) Sum(data []byte) []byte {
	if d == DigestNone {
		return data
	}
	h := digests[d].fn()
	h.Write(data)
	return h.Sum(nil)
}
