// Package stream provides the stream cipher engines: RC4 and ChaCha20.
//
// Both engines keep their keystream position between calls, so a message
// may be processed in pieces of any length. Encryption and decryption are
// the same operation.
package stream
