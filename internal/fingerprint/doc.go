// Package fingerprint computes content fingerprints for library files.
//
// The fingerprint is a hex-encoded BLAKE3-256 digest of the whole file. The
// decode cache keys entries by it and the export catalog records it so runs
// can be tied back to the exact library file they read.
package fingerprint
