// Package salt implements the additive offset obfuscation used inside TMD
// files. Offsets are stored relative to the end of the first header segment
// (Base) plus the file's salt; arithmetic wraps at 32 bits like the on-disk
// fields do.
package salt

// Base is the size of the first TMD header segment. Every stored offset is
// relative to it.
const Base = 60

// Salt is the per-file obfuscation constant from the TMD header.
type Salt uint32

// Hide turns an absolute file offset into its stored form.
func (s Salt) Hide(off int) uint32 {
	return uint32(off) - Base + uint32(s)
}

// Reveal turns a stored offset back into an absolute file offset.
func (s Salt) Reveal(stored uint32) int {
	return int(stored + Base - uint32(s))
}

// Rebase stores an offset relative to Base without salt. The LOD block
// offset uses this form.
func Rebase(off int) uint32 {
	return uint32(off) - Base
}

// Unbase is the inverse of Rebase.
func Unbase(stored uint32) int {
	return int(stored + Base)
}
