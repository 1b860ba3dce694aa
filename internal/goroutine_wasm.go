//go:build wasm

package internal

// wasm runs every goroutine on one thread and goid has no wasm support,
// so every caller counts as the owner.
func goroutineID() int64 {
	return 0
}
