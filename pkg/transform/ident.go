package transform

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"go/token"
	"math/rand"
)

// suffixFor derives a collision-resistant identifier suffix from a source
// position. The suffix is deterministic for a given position, so repeated
// expansions of the same module are reproducible, and distinct per method,
// so synthesized locals cannot capture user-written names from another
// expansion site.
func suffixFor(pos token.Position) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d", pos.Filename, pos.Line, pos.Column))
	seed := int64(binary.LittleEndian.Uint64(sum[:8]))
	r := rand.New(rand.NewSource(seed))

	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 4)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

// names hands out synthesized local names for one method expansion, steering
// around the user's parameter names.
type names struct {
	sfx   string
	taken map[string]bool
}

func newNames(pos token.Position, reserved ...string) *names {
	n := &names{sfx: suffixFor(pos), taken: map[string]bool{}}
	for _, r := range reserved {
		n.taken[r] = true
	}
	return n
}

// pick returns base if it is free, otherwise base with the suffix attached.
func (n *names) pick(base string) string {
	if !n.taken[base] {
		n.taken[base] = true
		return base
	}
	return n.local(base)
}

// local always attaches the suffix: base_<sfx>.
func (n *names) local(base string) string {
	name := base + "_" + n.sfx
	n.taken[name] = true
	return name
}
