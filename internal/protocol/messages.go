package protocol

// Message types: Server → Client
const (
	MsgTableState    = "table_state"
	MsgDeckCreated   = "deck_created"
	MsgDeckUpdated   = "deck_updated"
	MsgDeckMoved     = "deck_moved"
	MsgDeckShuffled  = "deck_shuffled"
	MsgDeckDeleted   = "deck_deleted"
	MsgDeckHighlight = "deck_highlight"
	MsgCardDrawn     = "card_drawn"
	MsgOpponentDrawn = "opponent_card_drawn"
	MsgCardMoved     = "card_moved"
	MsgCardFlipped   = "card_flipped"
	MsgCardRotated   = "card_rotated"
	MsgCardLayer     = "card_layer"
	MsgCardDeleted   = "card_deleted"
)

// Message types: Client → Server
const (
	MsgMoveCard        = "move_card"
	MsgMoveDeck        = "move_deck"
	MsgDrawCard        = "draw_card"
	MsgDrawFaceDown    = "draw_card_face_down"
	MsgPickCard        = "pick_card"
	MsgFlipCard        = "flip_card"
	MsgRotateCard      = "rotate_card"
	MsgChangeLayer     = "change_layer"
	MsgTakeCard        = "take_card"
	MsgDeleteCard      = "delete_card"
	MsgDeleteDeck      = "delete_deck"
	MsgShuffleDeck     = "shuffle_deck"
	MsgHighlightDeck   = "highlight_deck"
	MsgCreatePile      = "create_pile"
	MsgAddExistingDeck = "add_existing_deck"
)

// Inbound payloads. Position fields are pointers so an absent
// coordinate can be told apart from zero and left unchanged.

// MoveCardMsg moves a loose card; deckAddMode chooses where a
// proximity merge inserts the card ("top" appends, anything else
// prepends).
type MoveCardMsg struct {
	ID         string   `json:"id"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	InsertMode string   `json:"deckAddMode,omitempty"`
}

type MoveDeckMsg struct {
	ID string   `json:"id"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

type DrawCardMsg struct {
	DeckID string `json:"deckId"`
}

// PickCardMsg pulls the card at an arbitrary index out of a deck.
type PickCardMsg struct {
	DeckID string `json:"deckId"`
	Index  int    `json:"cardIndex"`
}

type CardRefMsg struct {
	ID string `json:"id"`
}

type DeckRefMsg struct {
	DeckID string `json:"deckId"`
}

type ChangeLayerMsg struct {
	ID    string `json:"id"`
	Layer int    `json:"layer"`
}

type HighlightDeckMsg struct {
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
	Add   bool   `json:"add"`
}

type CreatePileMsg struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Outbound payloads.

// CardView is a card as one particular client is allowed to see it:
// Src may be the real face image or a substitute back image.
type CardView struct {
	ID       string  `json:"id"`
	Src      string  `json:"src"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`
	FaceUp   bool    `json:"isFaceUp"`
	Owner    string  `json:"owner,omitempty"`
	DeckID   string  `json:"deckId,omitempty"`
}

// DeckView is the full public state of a deck. Deck contents are not
// hidden information; only loose cards pass through the visibility
// filter.
type DeckView struct {
	ID    string   `json:"id"`
	Kind  string   `json:"type,omitempty"`
	Cards []string `json:"cards"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
}

// TableState is the full snapshot sent to a client on connect.
type TableState struct {
	Decks map[string]DeckView `json:"decks"`
	Cards map[string]CardView `json:"cards"`
}

type DeckUpdatedMsg struct {
	ID        string `json:"id"`
	CardCount int    `json:"cardCount"`
}

type DeckMovedMsg struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type DeckDeletedMsg struct {
	ID string `json:"id"`
}

type CardMovedMsg struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type CardFlippedMsg struct {
	ID     string `json:"id"`
	FaceUp bool   `json:"isFaceUp"`
	Src    string `json:"src"`
	DeckID string `json:"deckId,omitempty"`
}

type CardRotatedMsg struct {
	ID       string `json:"id"`
	Rotation int    `json:"rotation"`
}

type CardDeletedMsg struct {
	ID string `json:"id"`
}
