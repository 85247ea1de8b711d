package table

import "tabletop/internal/protocol"

// DefaultBack is the image shown for a hidden card whose deck has no
// custom back.
const DefaultBack = "/assets/card-back.png"

// BackResolver picks the back image for cards drawn from a deck.
type BackResolver interface {
	BackImage(deckID string) string
}

// StaticBacks resolves every deck to the same back image.
type StaticBacks string

func (s StaticBacks) BackImage(string) string { return string(s) }

// viewFor builds the card payload a particular client may receive.
// The real image is disclosed when the card is face up, when it is
// public (no owner), or when the requester is the owner; otherwise
// the source is replaced by the origin deck's back image.
//
// A public face-down card shows its real image to everyone: with no
// owner there is no one to hide it from, face-down is then purely a
// visual rotation.
func (t *Table) viewFor(c *Card, requester string) protocol.CardView {
	v := protocol.CardView{
		ID:       c.ID,
		Src:      c.Src,
		X:        c.X,
		Y:        c.Y,
		Rotation: c.Rotation,
		FaceUp:   c.FaceUp,
		Owner:    c.Owner,
		DeckID:   c.DeckID,
	}
	if !c.FaceUp && c.Owner != "" && c.Owner != requester {
		v.Src = t.backs.BackImage(c.DeckID)
	}
	return v
}

// opponentView is the payload every non-owner receives. It is the
// same for all of them, so a broadcast to "others" needs only one.
func (t *Table) opponentView(c *Card) protocol.CardView {
	return t.viewFor(c, "")
}

func deckView(d *Deck) protocol.DeckView {
	return protocol.DeckView{
		ID:    d.ID,
		Kind:  d.Kind,
		Cards: d.Cards,
		X:     d.X,
		Y:     d.Y,
	}
}

// Snapshot returns the whole table filtered for one client, sent as
// the initial sync on connect.
func (t *Table) Snapshot(requester string) protocol.TableState {
	st := protocol.TableState{
		Decks: make(map[string]protocol.DeckView, len(t.decks)),
		Cards: make(map[string]protocol.CardView, len(t.cards)),
	}
	for id, d := range t.decks {
		st.Decks[id] = deckView(d)
	}
	for id, c := range t.cards {
		st.Cards[id] = t.viewFor(c, requester)
	}
	return st
}
