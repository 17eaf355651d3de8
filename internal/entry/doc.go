// Package entry implements the record of one stored file: its key material,
// the local descriptor that precedes its ciphertext in the data section, and
// the directory record the allocation table persists for it.
//
// An Entry is pending until Commit assigns it a payload offset. After that it
// is immutable and further Commit calls do nothing.
package entry
