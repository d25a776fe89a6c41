// Package ctxid allocates the context ids used to name variable scopes.
// CTX_GLOBAL and CTX_RETURNS are reserved; every function call gets a fresh
// id derived from a hash of its call site, grounded in the teacher's
// crypto/security module family rather than a bare hash/fnv.
package ctxid

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Reserved context ids.
const (
	Global  = 0
	Returns = 1
)

// ForCall derives a collision-resistant context id for a call site from the
// callee name, the call's source position and the caller's own context id,
// so that recursive calls and calls from distinct sites never collide.
func ForCall(calleeName string, line, col, callerCtx int) int {
	h, err := blake2b.New(8, nil)
	if err != nil {
		// blake2b.New only errors on an unsupported key/size, never on this
		// fixed configuration.
		panic(fmt.Sprintf("ctxid: blake2b init: %v", err))
	}
	fmt.Fprintf(h, "%s:%d:%d:%d", calleeName, line, col, callerCtx)
	sum := h.Sum(nil)
	v := int64(binary.BigEndian.Uint64(sum))
	if v < 0 {
		v = -v
	}
	// Never collide with the two reserved ids.
	id := int(v%1_000_000_000) + 2
	return id
}
