package ecc

import (
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/TheusHen/ctxcrypt/ctxcrypt/cryptoerr"
)

// secp192k1 and secp224k1 stay in the catalog without a backend.
func init() {
	backends[Secp256k1] = koblitz{}
}

// koblitz serves secp256k1. Signatures are deterministic (RFC 6979) so
// the random source is only used for key generation.
type koblitz struct{}

func (koblitz) size() int { return 32 }

func (koblitz) generate(rng io.Reader) ([]byte, []byte, error) {
	k, err := secp256k1.GeneratePrivateKeyFromRand(rng)
	if err != nil {
		return nil, nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "secp256k1: %v", err)
	}
	defer k.Zero()
	return k.Serialize(), k.PubKey().SerializeUncompressed(), nil
}

func (koblitz) checkPublic(pub []byte) error {
	if _, err := secp256k1.ParsePubKey(pub); err != nil {
		return cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "secp256k1: %v", err)
	}
	return nil
}

func (koblitz) shared(priv, peer []byte) ([]byte, error) {
	pk, err := secp256k1.ParsePubKey(peer)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.ErrCryptoOperation, "secp256k1: %v", err)
	}
	k := secp256k1.PrivKeyFromBytes(priv)
	defer k.Zero()
	return secp256k1.GenerateSharedSecret(k, pk), nil
}

func truncateDigest(digest []byte) []byte {
	if len(digest) > 32 {
		return digest[:32]
	}
	return digest
}

func (koblitz) sign(_ io.Reader, priv, digest []byte) (*big.Int, *big.Int, error) {
	k := secp256k1.PrivKeyFromBytes(priv)
	defer k.Zero()
	sig := secpecdsa.Sign(k, truncateDigest(digest))
	r, s := sig.R(), sig.S()
	rb, sb := r.Bytes(), s.Bytes()
	return new(big.Int).SetBytes(rb[:]), new(big.Int).SetBytes(sb[:]), nil
}

func scalar(v *big.Int) (secp256k1.ModNScalar, bool) {
	var sc secp256k1.ModNScalar
	if v.Sign() <= 0 || v.BitLen() > 256 {
		return sc, false
	}
	if overflow := sc.SetByteSlice(v.Bytes()); overflow || sc.IsZero() {
		return sc, false
	}
	return sc, true
}

func (koblitz) verify(pub, digest []byte, r, s *big.Int) bool {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	rs, ok := scalar(r)
	if !ok {
		return false
	}
	ss, ok := scalar(s)
	if !ok {
		return false
	}
	return secpecdsa.NewSignature(&rs, &ss).Verify(truncateDigest(digest), pk)
}
