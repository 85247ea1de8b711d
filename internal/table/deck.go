package table

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Deck kinds.
const (
	KindDeck = "deck" // uploaded deck with a custom back
	KindPile = "pile" // player-created pile, starts empty
)

// Deck is an ordered stack of card image references. The last element
// is the top of the stack.
type Deck struct {
	ID    string
	Kind  string
	Cards []string
	X, Y  float64
}

func newPileID() string {
	return "pile-" + uuid.NewString()
}

// shuffleRefs permutes refs in place with a Fisher–Yates walk from the
// last index down, so every permutation is equally likely.
func shuffleRefs(refs []string) {
	for i := len(refs) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		refs[i], refs[j] = refs[j], refs[i]
	}
}
