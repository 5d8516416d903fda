// Package features implements a feature flagging mechanism, adapted from
// wazero's global environment-driven flags into a plain bitset value rather
// than a process-global flag list. Neither the Store nor the executor holds
// or reads a Set.
package features

// Set is a bitset of optional MVP behaviors. The zero Set enables the
// full WebAssembly 1.0 MVP instruction set with no extensions.
type Set uint32

const (
	// SignExtensionOps flags the i32/i64 sign-extension instructions, a
	// post-MVP addition some toolchains emit even when targeting 1.0. The
	// executor does not implement these instructions.
	SignExtensionOps Set = 1 << iota
)

// Enable returns a new Set with f added.
func (s Set) Enable(f Set) Set {
	return s | f
}

// Disable returns a new Set with f removed.
func (s Set) Disable(f Set) Set {
	return s &^ f
}

// Have returns true if f is enabled in s.
func (s Set) Have(f Set) bool {
	return s&f != 0
}
