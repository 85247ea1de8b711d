package table

import "tabletop/internal/protocol"

// Scope selects which connected clients receive an outbound message.
type Scope int

const (
	ScopeAll       Scope = iota // every client, requester included
	ScopeRequester              // only the client whose event caused it
	ScopeOthers                 // every client except the requester
)

// Outbound is a message the core wants delivered. The core never
// touches connections; the hub resolves scopes to clients.
type Outbound struct {
	Scope Scope
	Env   protocol.Envelope
}

func all(typ string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeAll, Env: protocol.MustEnvelope(typ, payload)}
}

func requester(typ string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeRequester, Env: protocol.MustEnvelope(typ, payload)}
}

func others(typ string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeOthers, Env: protocol.MustEnvelope(typ, payload)}
}

// Apply runs one client event against the table and returns the
// notifications it produced. Unknown message types, payloads that fail
// to decode, and references to absent ids all return nil: a failed
// operation is indistinguishable from a no-op on the wire.
func (t *Table) Apply(clientID string, env protocol.Envelope) []Outbound {
	switch env.Type {
	case protocol.MsgMoveCard:
		var m protocol.MoveCardMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleMoveCard(m)
	case protocol.MsgMoveDeck:
		var m protocol.MoveDeckMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleMoveDeck(m)
	case protocol.MsgDrawCard:
		var m protocol.DrawCardMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleDrawCard(clientID, m)
	case protocol.MsgDrawFaceDown:
		var m protocol.DrawCardMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleDrawFaceDown(m)
	case protocol.MsgPickCard:
		var m protocol.PickCardMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handlePickCard(m)
	case protocol.MsgFlipCard:
		var m protocol.CardRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleFlipCard(m)
	case protocol.MsgRotateCard:
		var m protocol.CardRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleRotateCard(m)
	case protocol.MsgChangeLayer:
		var m protocol.ChangeLayerMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleChangeLayer(m)
	case protocol.MsgTakeCard:
		var m protocol.CardRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleTakeCard(clientID, m)
	case protocol.MsgDeleteCard:
		var m protocol.CardRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleDeleteCard(m)
	case protocol.MsgDeleteDeck:
		var m protocol.DeckRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleDeleteDeck(m)
	case protocol.MsgShuffleDeck:
		var m protocol.DeckRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleShuffleDeck(m)
	case protocol.MsgHighlightDeck:
		var m protocol.HighlightDeckMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleHighlightDeck(m)
	case protocol.MsgCreatePile:
		var m protocol.CreatePileMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleCreatePile(m)
	case protocol.MsgAddExistingDeck:
		var m protocol.DeckRefMsg
		if env.Decode(&m) != nil {
			return nil
		}
		return t.handleAddExistingDeck(m)
	}
	return nil
}

// DepositDeck places an uploaded deck on the table. Decks always
// enter play freshly shuffled, whatever order the images arrived in.
func (t *Table) DepositDeck(id string, refs []string, x, y float64) []Outbound {
	shuffleRefs(refs)
	d := t.CreateDeck(id, refs, x, y)
	return []Outbound{all(protocol.MsgDeckCreated, deckView(d))}
}

// handleMoveCard repositions a loose card and checks whether it was
// dropped onto a deck. On a merge the card stops existing and the
// move broadcast is replaced by deck notifications; otherwise the new
// position goes to everyone else (the mover already sees it locally).
func (t *Table) handleMoveCard(m protocol.MoveCardMsg) []Outbound {
	c := t.Card(m.ID)
	if c == nil {
		return nil
	}
	x, y := c.X, c.Y
	if m.X != nil {
		x = *m.X
	}
	if m.Y != nil {
		y = *m.Y
	}
	t.MoveCard(m.ID, x, y)

	if d := t.mergeTarget(c.X, c.Y); d != nil {
		t.absorb(c, d, m.InsertMode)
		return []Outbound{
			all(protocol.MsgCardDeleted, protocol.CardDeletedMsg{ID: c.ID}),
			all(protocol.MsgDeckUpdated, protocol.DeckUpdatedMsg{ID: d.ID, CardCount: len(d.Cards)}),
			all(protocol.MsgDeckCreated, deckView(d)),
		}
	}
	return []Outbound{
		others(protocol.MsgCardMoved, protocol.CardMovedMsg{ID: c.ID, X: c.X, Y: c.Y}),
	}
}

func (t *Table) handleMoveDeck(m protocol.MoveDeckMsg) []Outbound {
	d := t.Deck(m.ID)
	if d == nil {
		return nil
	}
	x, y := d.X, d.Y
	if m.X != nil {
		x = *m.X
	}
	if m.Y != nil {
		y = *m.Y
	}
	t.MoveDeck(m.ID, x, y)
	return []Outbound{
		others(protocol.MsgDeckMoved, protocol.DeckMovedMsg{ID: d.ID, X: d.X, Y: d.Y}),
	}
}

// handleDrawCard draws the top card into the drawer's hand area. Only
// the drawer learns what it is; everyone else gets the back image.
func (t *Table) handleDrawCard(clientID string, m protocol.DrawCardMsg) []Outbound {
	c := t.DrawTop(m.DeckID)
	if c == nil {
		return nil
	}
	t.SetOwner(c.ID, clientID)
	d := t.Deck(m.DeckID)
	return []Outbound{
		requester(protocol.MsgCardDrawn, t.viewFor(c, clientID)),
		others(protocol.MsgOpponentDrawn, t.opponentView(c)),
		all(protocol.MsgDeckUpdated, protocol.DeckUpdatedMsg{ID: d.ID, CardCount: len(d.Cards)}),
		all(protocol.MsgDeckCreated, deckView(d)),
	}
}

// handleDrawFaceDown draws the top card face down with no owner. The
// card is public, so its real image goes to every client.
func (t *Table) handleDrawFaceDown(m protocol.DrawCardMsg) []Outbound {
	c := t.DrawTop(m.DeckID)
	if c == nil {
		return nil
	}
	d := t.Deck(m.DeckID)
	return []Outbound{
		all(protocol.MsgOpponentDrawn, t.opponentView(c)),
		all(protocol.MsgDeckUpdated, protocol.DeckUpdatedMsg{ID: d.ID, CardCount: len(d.Cards)}),
		all(protocol.MsgDeckCreated, deckView(d)),
	}
}

// handlePickCard pulls a specific card out of the deck face up.
// Picking is always public, unlike drawing.
func (t *Table) handlePickCard(m protocol.PickCardMsg) []Outbound {
	c := t.PickAt(m.DeckID, m.Index)
	if c == nil {
		return nil
	}
	d := t.Deck(m.DeckID)
	return []Outbound{
		all(protocol.MsgCardDrawn, t.opponentView(c)),
		all(protocol.MsgDeckCreated, deckView(d)),
		all(protocol.MsgDeckUpdated, protocol.DeckUpdatedMsg{ID: d.ID, CardCount: len(d.Cards)}),
	}
}

// handleFlipCard toggles face state. A flip reveals the true image to
// every client, owners lose nothing they had not already shown.
func (t *Table) handleFlipCard(m protocol.CardRefMsg) []Outbound {
	c := t.Card(m.ID)
	if c == nil {
		return nil
	}
	t.SetFaceUp(c.ID, !c.FaceUp)
	return []Outbound{
		all(protocol.MsgCardFlipped, protocol.CardFlippedMsg{
			ID:     c.ID,
			FaceUp: c.FaceUp,
			Src:    c.Src,
			DeckID: c.DeckID,
		}),
	}
}

func (t *Table) handleRotateCard(m protocol.CardRefMsg) []Outbound {
	c := t.Rotate(m.ID)
	if c == nil {
		return nil
	}
	return []Outbound{
		all(protocol.MsgCardRotated, protocol.CardRotatedMsg{ID: c.ID, Rotation: c.Rotation}),
	}
}

// handleChangeLayer relays a z-order hint. The table stores no layer;
// the payload is echoed verbatim to everyone.
func (t *Table) handleChangeLayer(m protocol.ChangeLayerMsg) []Outbound {
	if t.Card(m.ID) == nil {
		return nil
	}
	return []Outbound{all(protocol.MsgCardLayer, m)}
}

// handleTakeCard makes the requester the private holder of a card,
// forcing it face down. The taker sees the real image, everyone else
// sees the back from then on.
func (t *Table) handleTakeCard(clientID string, m protocol.CardRefMsg) []Outbound {
	c := t.Card(m.ID)
	if c == nil {
		return nil
	}
	t.SetOwner(c.ID, clientID)
	t.SetFaceUp(c.ID, false)
	return []Outbound{
		requester(protocol.MsgCardDrawn, t.viewFor(c, clientID)),
		others(protocol.MsgOpponentDrawn, t.opponentView(c)),
	}
}

func (t *Table) handleDeleteCard(m protocol.CardRefMsg) []Outbound {
	if !t.DeleteCard(m.ID) {
		return nil
	}
	return []Outbound{all(protocol.MsgCardDeleted, protocol.CardDeletedMsg{ID: m.ID})}
}

func (t *Table) handleDeleteDeck(m protocol.DeckRefMsg) []Outbound {
	if !t.DeleteDeck(m.DeckID) {
		return nil
	}
	return []Outbound{all(protocol.MsgDeckDeleted, protocol.DeckDeletedMsg{ID: m.DeckID})}
}

func (t *Table) handleShuffleDeck(m protocol.DeckRefMsg) []Outbound {
	d := t.Shuffle(m.DeckID)
	if d == nil {
		return nil
	}
	return []Outbound{all(protocol.MsgDeckShuffled, deckView(d))}
}

// handleHighlightDeck relays a transient highlight. Nothing is stored.
func (t *Table) handleHighlightDeck(m protocol.HighlightDeckMsg) []Outbound {
	return []Outbound{all(protocol.MsgDeckHighlight, m)}
}

func (t *Table) handleCreatePile(m protocol.CreatePileMsg) []Outbound {
	x, y := 200.0, 200.0
	if m.X != nil {
		x = *m.X
	}
	if m.Y != nil {
		y = *m.Y
	}
	d := t.CreatePile(x, y)
	return []Outbound{all(protocol.MsgDeckCreated, deckView(d))}
}

// handleAddExistingDeck re-instantiates a stored deck at a random
// position with a fresh shuffle.
func (t *Table) handleAddExistingDeck(m protocol.DeckRefMsg) []Outbound {
	if t.source == nil {
		return nil
	}
	refs, err := t.source.Load(m.DeckID)
	if err != nil {
		return nil
	}
	shuffleRefs(refs)
	x, y := randomDeckPos()
	d := t.CreateDeck(m.DeckID, refs, x, y)
	return []Outbound{all(protocol.MsgDeckCreated, deckView(d))}
}
