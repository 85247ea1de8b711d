package table

import "github.com/google/uuid"

// Card is a loose card on the table. While an image lives inside a
// deck's sequence it has no Card record; drawing or picking creates
// one, and a proximity merge or delete destroys it.
type Card struct {
	ID       string
	Src      string
	X, Y     float64
	Rotation int
	FaceUp   bool
	Owner    string // client id holding the card privately; "" means public
	DeckID   string // deck the card came from, used only to pick a back image
}

func newCardID() string {
	return "card-" + uuid.NewString()
}
