package table

import "math"

// MergeThreshold is how close (in board units) a dropped card must be
// to a deck's anchor to be absorbed into it.
const MergeThreshold = 20.0

// InsertTop is the insert mode that puts a merged card on top of the
// deck; any other mode puts it on the bottom.
const InsertTop = "top"

// mergeTarget returns the first deck, in creation order, strictly
// within MergeThreshold of the given position, or nil.
func (t *Table) mergeTarget(x, y float64) *Deck {
	for _, id := range t.order {
		d := t.decks[id]
		if math.Hypot(x-d.X, y-d.Y) < MergeThreshold {
			return d
		}
	}
	return nil
}

// absorb folds a loose card back into a deck and deletes the card
// record. The image reference goes on top or on the bottom depending
// on the mover's insert mode.
func (t *Table) absorb(c *Card, d *Deck, mode string) {
	if mode == InsertTop {
		d.Cards = append(d.Cards, c.Src)
	} else {
		d.Cards = append([]string{c.Src}, d.Cards...)
	}
	delete(t.cards, c.ID)
}
