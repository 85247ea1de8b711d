package table

import "math/rand/v2"

// DeckSource loads a stored deck's image references so it can be
// placed back on the table. The library package provides the on-disk
// implementation.
type DeckSource interface {
	Load(deckID string) ([]string, error)
}

// Table is the authoritative store of decks and loose cards. It is
// owned by a single goroutine (the hub loop); nothing here locks.
//
// deck iteration order matters: proximity merging scans decks in
// creation order and the first deck within range wins, so the order
// slice is maintained alongside the map.
type Table struct {
	decks map[string]*Deck
	order []string
	cards map[string]*Card

	backs  BackResolver
	source DeckSource
}

// New creates an empty table. backs may be nil, in which case every
// hidden card falls back to the default back image. source may be nil
// if add_existing_deck is not needed (tests).
func New(backs BackResolver, source DeckSource) *Table {
	if backs == nil {
		backs = StaticBacks(DefaultBack)
	}
	return &Table{
		decks:  make(map[string]*Deck),
		cards:  make(map[string]*Card),
		backs:  backs,
		source: source,
	}
}

// Deck returns the deck with the given id, or nil.
func (t *Table) Deck(id string) *Deck {
	return t.decks[id]
}

// Card returns the loose card with the given id, or nil.
func (t *Table) Card(id string) *Card {
	return t.cards[id]
}

// CreateDeck registers a deck. Re-using an existing id replaces that
// deck's contents in place, keeping its slot in the scan order.
func (t *Table) CreateDeck(id string, refs []string, x, y float64) *Deck {
	d := &Deck{ID: id, Kind: KindDeck, Cards: refs, X: x, Y: y}
	if _, ok := t.decks[id]; !ok {
		t.order = append(t.order, id)
	}
	t.decks[id] = d
	return d
}

// CreatePile creates a new empty pile at the given position.
func (t *Table) CreatePile(x, y float64) *Deck {
	id := newPileID()
	d := &Deck{ID: id, Kind: KindPile, Cards: []string{}, X: x, Y: y}
	t.decks[id] = d
	t.order = append(t.order, id)
	return d
}

// DeleteDeck removes a deck. Unknown ids are a no-op.
func (t *Table) DeleteDeck(id string) bool {
	if _, ok := t.decks[id]; !ok {
		return false
	}
	delete(t.decks, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteCard removes a loose card. Unknown ids are a no-op.
func (t *Table) DeleteCard(id string) bool {
	if _, ok := t.cards[id]; !ok {
		return false
	}
	delete(t.cards, id)
	return true
}

// DrawTop pops the top (last) reference off a deck and embodies it as
// a new face-down card beside the deck. Returns nil if the deck is
// unknown or empty.
func (t *Table) DrawTop(deckID string) *Card {
	d := t.decks[deckID]
	if d == nil || len(d.Cards) == 0 {
		return nil
	}
	src := d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]

	c := &Card{
		ID:     newCardID(),
		Src:    src,
		X:      d.X + 50,
		Y:      d.Y + 50,
		FaceUp: false,
		DeckID: deckID,
	}
	t.cards[c.ID] = c
	return c
}

// PickAt removes the reference at an arbitrary index and embodies it
// as a face-up public card. Returns nil if the deck or index is
// invalid.
func (t *Table) PickAt(deckID string, index int) *Card {
	d := t.decks[deckID]
	if d == nil || index < 0 || index >= len(d.Cards) {
		return nil
	}
	src := d.Cards[index]
	d.Cards = append(d.Cards[:index], d.Cards[index+1:]...)

	c := &Card{
		ID:     newCardID(),
		Src:    src,
		X:      d.X + 50,
		Y:      d.Y + 50,
		FaceUp: true,
		DeckID: deckID,
	}
	t.cards[c.ID] = c
	return c
}

// Shuffle permutes a deck's card sequence uniformly.
func (t *Table) Shuffle(deckID string) *Deck {
	d := t.decks[deckID]
	if d == nil {
		return nil
	}
	shuffleRefs(d.Cards)
	return d
}

// MoveCard repositions a loose card.
func (t *Table) MoveCard(id string, x, y float64) *Card {
	c := t.cards[id]
	if c == nil {
		return nil
	}
	c.X, c.Y = x, y
	return c
}

// MoveDeck repositions a deck. Decks never merge into each other.
func (t *Table) MoveDeck(id string, x, y float64) *Deck {
	d := t.decks[id]
	if d == nil {
		return nil
	}
	d.X, d.Y = x, y
	return d
}

// SetFaceUp sets a card's face state.
func (t *Table) SetFaceUp(id string, up bool) *Card {
	c := t.cards[id]
	if c == nil {
		return nil
	}
	c.FaceUp = up
	return c
}

// Rotate adds exactly 90 degrees. The value accumulates and is never
// normalized; clients render it modulo 360.
func (t *Table) Rotate(id string) *Card {
	c := t.cards[id]
	if c == nil {
		return nil
	}
	c.Rotation += 90
	return c
}

// SetOwner reassigns a card's owner. Pass "" to make it public.
func (t *Table) SetOwner(id, owner string) *Card {
	c := t.cards[id]
	if c == nil {
		return nil
	}
	c.Owner = owner
	return c
}

func randomDeckPos() (float64, float64) {
	return float64(100 + rand.IntN(200)), float64(100 + rand.IntN(200))
}
