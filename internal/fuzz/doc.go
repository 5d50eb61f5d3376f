// Package fuzztests houses Go fuzz harnesses for the parts of rgr that read
// untrusted input: rg's JSON stream, the argument vector and the submatch
// offsets used to splice replacements. The harnesses guard against panics
// and check the invariants each stage promises to the next.
package fuzztests
