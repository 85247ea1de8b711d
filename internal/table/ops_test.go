package table_test

import (
	"encoding/json"
	"sort"
	"testing"

	"tabletop/internal/protocol"
	"tabletop/internal/table"
)

func fp(v float64) *float64 { return &v }

func apply(tbl *table.Table, clientID, typ string, payload interface{}) []table.Outbound {
	return tbl.Apply(clientID, protocol.MustEnvelope(typ, payload))
}

// findOut returns the single outbound message of the given type, or
// fails the test.
func findOut(t *testing.T, outs []table.Outbound, typ string) table.Outbound {
	t.Helper()
	for _, out := range outs {
		if out.Env.Type == typ {
			return out
		}
	}
	t.Fatalf("no %s message in %d outbound messages", typ, len(outs))
	return table.Outbound{}
}

func decodeCard(t *testing.T, out table.Outbound) protocol.CardView {
	t.Helper()
	var v protocol.CardView
	if err := out.Env.Decode(&v); err != nil {
		t.Fatalf("decode card view: %v", err)
	}
	return v
}

func decodeDeck(t *testing.T, out table.Outbound) protocol.DeckView {
	t.Helper()
	var v protocol.DeckView
	if err := out.Env.Decode(&v); err != nil {
		t.Fatalf("decode deck view: %v", err)
	}
	return v
}

func TestDrawCardScenario(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a", "b", "c"}, 100, 100)

	outs := apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})

	drawn := findOut(t, outs, protocol.MsgCardDrawn)
	if drawn.Scope != table.ScopeRequester {
		t.Error("the real card must go to the drawer only")
	}
	mine := decodeCard(t, drawn)
	if mine.Src != "c" {
		t.Errorf("drawer should see image c, got %s", mine.Src)
	}
	if mine.Owner != "alice" {
		t.Errorf("drawn card should belong to alice, got %q", mine.Owner)
	}
	if mine.FaceUp {
		t.Error("drawn card should be face down")
	}

	hidden := findOut(t, outs, protocol.MsgOpponentDrawn)
	if hidden.Scope != table.ScopeOthers {
		t.Error("the masked card must go to everyone but the drawer")
	}
	theirs := decodeCard(t, hidden)
	if theirs.Src != "/uploads/D1/card-back.png" {
		t.Errorf("others should see the deck back, got %s", theirs.Src)
	}

	var upd protocol.DeckUpdatedMsg
	if err := findOut(t, outs, protocol.MsgDeckUpdated).Env.Decode(&upd); err != nil {
		t.Fatal(err)
	}
	if upd.CardCount != 2 {
		t.Errorf("deck should report 2 cards, got %d", upd.CardCount)
	}
	if got := decodeDeck(t, findOut(t, outs, protocol.MsgDeckCreated)).Cards; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("deck broadcast should hold [a b], got %v", got)
	}
}

func TestDrawFaceDownIsPublic(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a", "b"}, 100, 100)

	outs := apply(tbl, "alice", protocol.MsgDrawFaceDown, protocol.DrawCardMsg{DeckID: "D1"})

	hidden := findOut(t, outs, protocol.MsgOpponentDrawn)
	if hidden.Scope != table.ScopeAll {
		t.Error("a public face-down draw goes to every client")
	}
	v := decodeCard(t, hidden)
	if v.Owner != "" {
		t.Errorf("public draw must not assign an owner, got %q", v.Owner)
	}
	if v.FaceUp {
		t.Error("public draw stays face down")
	}
	// No owner means no one to hide it from.
	if v.Src != "b" {
		t.Errorf("public face-down card discloses its real image, got %s", v.Src)
	}
}

func TestPickCardIsPublic(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a", "b", "c"}, 100, 100)

	outs := apply(tbl, "alice", protocol.MsgPickCard, protocol.PickCardMsg{DeckID: "D1", Index: 0})

	drawn := findOut(t, outs, protocol.MsgCardDrawn)
	if drawn.Scope != table.ScopeAll {
		t.Error("a picked card is announced to everyone")
	}
	v := decodeCard(t, drawn)
	if v.Src != "a" || !v.FaceUp || v.Owner != "" {
		t.Errorf("picked card should be a face up, public: %+v", v)
	}
	if got := tbl.Deck("D1").Cards; len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("deck should hold [b c], got %v", got)
	}
}

func TestVisibilityNonLeakage(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"secret"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})

	for _, viewer := range []string{"bob", "carol", ""} {
		snap := tbl.Snapshot(viewer)
		for _, c := range snap.Cards {
			if c.Src == "secret" {
				t.Fatalf("client %q can see alice's hidden card", viewer)
			}
		}
	}

	snap := tbl.Snapshot("alice")
	for _, c := range snap.Cards {
		if c.Src != "secret" {
			t.Fatalf("owner should see the real image, got %s", c.Src)
		}
	}
}

func TestFlipRevealsToAll(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"secret"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	outs := apply(tbl, "bob", protocol.MsgFlipCard, protocol.CardRefMsg{ID: cardID})

	flip := findOut(t, outs, protocol.MsgCardFlipped)
	if flip.Scope != table.ScopeAll {
		t.Error("a flip is broadcast to everyone")
	}
	var v protocol.CardFlippedMsg
	if err := flip.Env.Decode(&v); err != nil {
		t.Fatal(err)
	}
	if !v.FaceUp {
		t.Error("flip should toggle the card face up")
	}
	if v.Src != "secret" {
		t.Errorf("a face-up flip reveals the true image, got %s", v.Src)
	}
}

func TestTakeCardTransfersOwnership(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"secret"}, 100, 100)
	apply(tbl, "alice", protocol.MsgPickCard, protocol.PickCardMsg{DeckID: "D1", Index: 0})
	cardID := snapshotCardID(t, tbl)

	outs := apply(tbl, "bob", protocol.MsgTakeCard, protocol.CardRefMsg{ID: cardID})

	c := tbl.Card(cardID)
	if c.Owner != "bob" {
		t.Fatalf("taker should own the card, got %q", c.Owner)
	}
	if c.FaceUp {
		t.Fatal("taking a card forces it face down")
	}

	mine := decodeCard(t, findOut(t, outs, protocol.MsgCardDrawn))
	if mine.Src != "secret" {
		t.Errorf("taker should see the real image, got %s", mine.Src)
	}
	theirs := findOut(t, outs, protocol.MsgOpponentDrawn)
	if theirs.Scope != table.ScopeOthers {
		t.Error("the masked card goes to everyone but the taker")
	}
	if v := decodeCard(t, theirs); v.Src == "secret" {
		t.Error("a formerly public card must be hidden from non-owners after a take")
	}
}

func TestRotateBroadcast(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	var outs []table.Outbound
	for i := 0; i < 4; i++ {
		outs = apply(tbl, "alice", protocol.MsgRotateCard, protocol.CardRefMsg{ID: cardID})
	}
	var v protocol.CardRotatedMsg
	if err := findOut(t, outs, protocol.MsgCardRotated).Env.Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Rotation != 360 {
		t.Fatalf("four rotations should accumulate to 360, got %d", v.Rotation)
	}
}

func TestChangeLayerIsVerbatim(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	outs := apply(tbl, "alice", protocol.MsgChangeLayer, protocol.ChangeLayerMsg{ID: cardID, Layer: 7})
	var v protocol.ChangeLayerMsg
	if err := findOut(t, outs, protocol.MsgCardLayer).Env.Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Layer != 7 {
		t.Errorf("layer hint should pass through unchanged, got %d", v.Layer)
	}

	if outs := apply(tbl, "alice", protocol.MsgChangeLayer, protocol.ChangeLayerMsg{ID: "nope", Layer: 7}); outs != nil {
		t.Errorf("layer change for an unknown card should be silent, got %v", outs)
	}
}

func TestMoveCardBroadcastsToOthers(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	outs := apply(tbl, "alice", protocol.MsgMoveCard, protocol.MoveCardMsg{ID: cardID, X: fp(400), Y: fp(300)})
	if len(outs) != 1 {
		t.Fatalf("a plain move produces one message, got %d", len(outs))
	}
	if outs[0].Scope != table.ScopeOthers {
		t.Error("the mover already sees the card at the new spot")
	}
	var v protocol.CardMovedMsg
	if err := outs[0].Env.Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.X != 400 || v.Y != 300 {
		t.Errorf("expected move to (400,300), got (%v,%v)", v.X, v.Y)
	}
}

func TestMoveCardMissingCoordinateIsIdentity(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	apply(tbl, "alice", protocol.MsgMoveCard, protocol.MoveCardMsg{ID: cardID, X: fp(400)})
	c := tbl.Card(cardID)
	if c.X != 400 {
		t.Errorf("present coordinate should apply, got %v", c.X)
	}
	if c.Y != 150 {
		t.Errorf("absent coordinate should stay put, got %v", c.Y)
	}
}

func TestMergeThresholdScenario(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a", "b"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	// Distance √(8²+0²)=8, inside the threshold of 20.
	outs := apply(tbl, "alice", protocol.MsgMoveCard, protocol.MoveCardMsg{ID: cardID, X: fp(108), Y: fp(100), InsertMode: "top"})

	findOut(t, outs, protocol.MsgCardDeleted)
	findOut(t, outs, protocol.MsgDeckUpdated)
	d := decodeDeck(t, findOut(t, outs, protocol.MsgDeckCreated))
	if len(d.Cards) != 2 {
		t.Fatalf("deck should have reabsorbed the card, got %v", d.Cards)
	}
	if tbl.Card(cardID) != nil {
		t.Fatal("merged card must disappear from the loose-card map")
	}
}

func TestDrawMergeInverse(t *testing.T) {
	for mode, want := range map[string][]string{
		"top":    {"a", "b", "c"},
		"bottom": {"c", "a", "b"},
	} {
		tbl := newTestTable()
		tbl.CreateDeck("D1", []string{"a", "b", "c"}, 100, 100)
		apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
		cardID := snapshotCardID(t, tbl)

		apply(tbl, "alice", protocol.MsgMoveCard, protocol.MoveCardMsg{ID: cardID, X: fp(105), Y: fp(100), InsertMode: mode})

		got := tbl.Deck("D1").Cards
		if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
			t.Errorf("mode %q: expected %v, got %v", mode, want, got)
		}
		if tbl.Card(cardID) != nil {
			t.Errorf("mode %q: merged card still loose", mode)
		}
	}
}

func TestMergeFirstDeckInStoreOrderWins(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("first", []string{"x"}, 100, 100)
	tbl.CreateDeck("second", []string{"y"}, 110, 100)
	tbl.CreateDeck("D1", []string{"a"}, 500, 500)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	// (105,100) is within range of both candidate decks.
	apply(tbl, "alice", protocol.MsgMoveCard, protocol.MoveCardMsg{ID: cardID, X: fp(105), Y: fp(100), InsertMode: "top"})

	if got := len(tbl.Deck("first").Cards); got != 2 {
		t.Errorf("the first created deck should absorb the card, has %d", got)
	}
	if got := len(tbl.Deck("second").Cards); got != 1 {
		t.Errorf("the later deck must stay untouched, has %d", got)
	}
}

func TestMoveDeckNeverMerges(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("one", []string{"a"}, 100, 100)
	tbl.CreateDeck("two", []string{"b"}, 500, 500)

	outs := apply(tbl, "alice", protocol.MsgMoveDeck, protocol.MoveDeckMsg{ID: "two", X: fp(101), Y: fp(101)})

	moved := findOut(t, outs, protocol.MsgDeckMoved)
	if moved.Scope != table.ScopeOthers {
		t.Error("deck moves go to everyone but the mover")
	}
	if tbl.Deck("one") == nil || tbl.Deck("two") == nil {
		t.Fatal("both decks must survive overlapping positions")
	}
	if len(tbl.Deck("one").Cards) != 1 || len(tbl.Deck("two").Cards) != 1 {
		t.Error("deck moves must never merge contents")
	}
}

func TestCreatePileScenario(t *testing.T) {
	tbl := newTestTable()
	outs := apply(tbl, "alice", protocol.MsgCreatePile, protocol.CreatePileMsg{X: fp(200), Y: fp(200)})

	created := findOut(t, outs, protocol.MsgDeckCreated)
	if created.Scope != table.ScopeAll {
		t.Error("new piles are announced to everyone")
	}
	d := decodeDeck(t, created)
	if d.Kind != table.KindPile || len(d.Cards) != 0 || d.X != 200 || d.Y != 200 {
		t.Errorf("expected an empty pile at (200,200), got %+v", d)
	}
}

func TestCreatePileDefaultPosition(t *testing.T) {
	tbl := newTestTable()
	outs := apply(tbl, "alice", protocol.MsgCreatePile, protocol.CreatePileMsg{})

	d := decodeDeck(t, findOut(t, outs, protocol.MsgDeckCreated))
	if d.X != 200 || d.Y != 200 {
		t.Errorf("absent coordinates default to (200,200), got (%v,%v)", d.X, d.Y)
	}
}

func TestAddExistingDeck(t *testing.T) {
	src := refsSource{"stored": {"a", "b", "c"}}
	tbl := table.New(nil, src)

	outs := apply(tbl, "alice", protocol.MsgAddExistingDeck, protocol.DeckRefMsg{DeckID: "stored"})

	d := decodeDeck(t, findOut(t, outs, protocol.MsgDeckCreated))
	got := append([]string(nil), d.Cards...)
	sort.Strings(got)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("re-added deck should carry the stored images, got %v", d.Cards)
	}
	if d.X < 100 || d.X >= 300 || d.Y < 100 || d.Y >= 300 {
		t.Errorf("re-added deck should land in the spawn area, got (%v,%v)", d.X, d.Y)
	}

	if outs := apply(tbl, "alice", protocol.MsgAddExistingDeck, protocol.DeckRefMsg{DeckID: "nope"}); outs != nil {
		t.Errorf("adding an unknown stored deck should be silent, got %v", outs)
	}
}

func TestShuffleDeckBroadcast(t *testing.T) {
	tbl := newTestTable()
	refs := []string{"a", "b", "c", "d", "e"}
	tbl.CreateDeck("D1", append([]string(nil), refs...), 0, 0)

	outs := apply(tbl, "alice", protocol.MsgShuffleDeck, protocol.DeckRefMsg{DeckID: "D1"})

	d := decodeDeck(t, findOut(t, outs, protocol.MsgDeckShuffled))
	got := append([]string(nil), d.Cards...)
	sort.Strings(got)
	for i, ref := range refs {
		if got[i] != ref {
			t.Fatalf("shuffle broadcast changed contents: %v", d.Cards)
		}
	}
}

func TestDeleteBroadcasts(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)
	apply(tbl, "alice", protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "D1"})
	cardID := snapshotCardID(t, tbl)

	outs := apply(tbl, "bob", protocol.MsgDeleteCard, protocol.CardRefMsg{ID: cardID})
	findOut(t, outs, protocol.MsgCardDeleted)
	if tbl.Card(cardID) != nil {
		t.Error("deleted card still in store")
	}

	outs = apply(tbl, "bob", protocol.MsgDeleteDeck, protocol.DeckRefMsg{DeckID: "D1"})
	findOut(t, outs, protocol.MsgDeckDeleted)
	if tbl.Deck("D1") != nil {
		t.Error("deleted deck still in store")
	}
}

func TestHighlightDeckIsTransient(t *testing.T) {
	tbl := newTestTable()
	outs := apply(tbl, "alice", protocol.MsgHighlightDeck, protocol.HighlightDeckMsg{ID: "D1", Color: "red", Add: true})

	hl := findOut(t, outs, protocol.MsgDeckHighlight)
	if hl.Scope != table.ScopeAll {
		t.Error("highlights go to everyone")
	}
	var v protocol.HighlightDeckMsg
	if err := hl.Env.Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Color != "red" || !v.Add {
		t.Errorf("highlight should pass through unchanged, got %+v", v)
	}
}

func TestUnknownReferencesAreSilent(t *testing.T) {
	tbl := newTestTable()
	cases := []struct {
		typ     string
		payload interface{}
	}{
		{protocol.MsgDrawCard, protocol.DrawCardMsg{DeckID: "nope"}},
		{protocol.MsgDrawFaceDown, protocol.DrawCardMsg{DeckID: "nope"}},
		{protocol.MsgPickCard, protocol.PickCardMsg{DeckID: "nope", Index: 0}},
		{protocol.MsgFlipCard, protocol.CardRefMsg{ID: "nope"}},
		{protocol.MsgRotateCard, protocol.CardRefMsg{ID: "nope"}},
		{protocol.MsgTakeCard, protocol.CardRefMsg{ID: "nope"}},
		{protocol.MsgDeleteCard, protocol.CardRefMsg{ID: "nope"}},
		{protocol.MsgDeleteDeck, protocol.DeckRefMsg{DeckID: "nope"}},
		{protocol.MsgShuffleDeck, protocol.DeckRefMsg{DeckID: "nope"}},
		{protocol.MsgMoveCard, protocol.MoveCardMsg{ID: "nope", X: fp(1), Y: fp(1)}},
		{protocol.MsgMoveDeck, protocol.MoveDeckMsg{ID: "nope", X: fp(1), Y: fp(1)}},
	}
	for _, tc := range cases {
		if outs := apply(tbl, "alice", tc.typ, tc.payload); outs != nil {
			t.Errorf("%s with unknown id should produce nothing, got %v", tc.typ, outs)
		}
	}
}

func TestUndecodableAndUnknownMessages(t *testing.T) {
	tbl := newTestTable()
	tbl.CreateDeck("D1", []string{"a"}, 100, 100)

	bad := protocol.Envelope{Type: protocol.MsgDrawCard, Payload: json.RawMessage(`{"deckId":42}`)}
	if outs := tbl.Apply("alice", bad); outs != nil {
		t.Errorf("undecodable payload should be ignored, got %v", outs)
	}
	if got := len(tbl.Deck("D1").Cards); got != 1 {
		t.Errorf("ignored message must not mutate state, deck has %d cards", got)
	}

	unknown := protocol.Envelope{Type: "explode"}
	if outs := tbl.Apply("alice", unknown); outs != nil {
		t.Errorf("unknown message type should be ignored, got %v", outs)
	}
}

func TestDepositDeckShuffles(t *testing.T) {
	tbl := newTestTable()
	refs := []string{"a", "b", "c", "d"}
	outs := tbl.DepositDeck("fresh", append([]string(nil), refs...), 100, 100)

	created := findOut(t, outs, protocol.MsgDeckCreated)
	if created.Scope != table.ScopeAll {
		t.Error("uploaded decks are announced to everyone")
	}
	d := decodeDeck(t, created)
	got := append([]string(nil), d.Cards...)
	sort.Strings(got)
	for i, ref := range refs {
		if got[i] != ref {
			t.Fatalf("deposit changed deck contents: %v", d.Cards)
		}
	}
}

// snapshotCardID returns the id of the single loose card on the table.
func snapshotCardID(t *testing.T, tbl *table.Table) string {
	t.Helper()
	snap := tbl.Snapshot("")
	if len(snap.Cards) != 1 {
		t.Fatalf("expected exactly one loose card, got %d", len(snap.Cards))
	}
	for id := range snap.Cards {
		return id
	}
	return ""
}
