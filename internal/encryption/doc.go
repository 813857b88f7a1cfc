// Package encryption implements the fernetcrypt container: password-based key
// derivation, the tagged and raw header layouts, and chunked authenticated
// encryption that streams inputs of any size through a fixed-size buffer.
//
// A container is a header followed by frames. Every frame but the last holds
// exactly one chunk of plaintext; the last holds less than a chunk, possibly
// nothing, and is flagged as final in its authenticated data. Chunk indices
// and the header itself are authenticated too, so dropped, reordered or
// spliced frames are rejected.
package encryption
