// Package aead builds ChaCha20-Poly1305 by hand from the stream and mac
// packages so that 16-byte keys, 8-byte nonces and caller-supplied record
// sequence numbers are supported.
//
// A Session holds two directions. The local direction seals outgoing
// records, the remote direction opens incoming ones. For every record the
// 8-byte big-endian sequence number is xored into the tail of the
// direction's base nonce, the first 32 bytes of keystream block 0 become
// the Poly1305 key and the payload is encrypted from block 1 onwards.
//
// With a 32-byte key and a 12-byte nonce the output is identical to
// RFC 8439 AEAD_CHACHA20_POLY1305 over the derived nonce.
package aead
