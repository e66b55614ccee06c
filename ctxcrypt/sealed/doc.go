// Package sealed packs a payload into a self-describing container of
// ChaCha20-Poly1305 records.
//
// The payload is split into chunks. Each chunk is optionally LZ4-compressed
// and sealed with the session's local direction. Record i uses the sequence
// number base+i, where base is drawn at random for every container and
// stored in the header, and the container header plus the index as
// additional data. Reordered, dropped or spliced records therefore fail
// authentication.
//
// Optional Reed-Solomon parity records are computed over stripes of sealed
// records. On Open, records that fail authentication are treated as
// erasures and rebuilt from parity before being authenticated again.
//
// Container layout:
//
//	4 bytes: magic "CXS1"
//	1 byte:  version
//	1 byte:  flags
//	4 bytes: chunk size
//	1 byte:  data shards per stripe
//	1 byte:  parity shards per stripe
//	4 bytes: data record count
//	8 bytes: payload length
//	8 bytes: sequence number of record 0
//	then every data record followed by every parity record, each as
//	4 bytes length + bytes
package sealed
