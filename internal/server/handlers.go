package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"tabletop/internal/library"
	qr "tabletop/internal/qrcode"
)

const maxUploadBytes = 64 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	Hub *Hub
	Lib *library.Library
}

func NewHandlers(hub *Hub, lib *library.Library) *Handlers {
	return &Handlers{Hub: hub, Lib: lib}
}

// HandleWS upgrades a connection and registers it with the hub. The
// server assigns the client identity; the initial table snapshot is
// sent on register.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	client := NewClient(h.Hub, conn, GenerateClientID())
	h.Hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// HandleUpload accepts a multipart deck upload: deckName, deckImages
// files and an optional cardBack file. The stored deck is deposited
// on the table and announced to every client.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	name := r.FormValue("deckName")
	if name == "" {
		http.Error(w, "deck name is required", http.StatusBadRequest)
		return
	}
	images := r.MultipartForm.File["deckImages"]
	if len(images) == 0 {
		http.Error(w, "no files were uploaded", http.StatusBadRequest)
		return
	}

	cards := make([]library.File, 0, len(images))
	for _, fh := range images {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}
		defer f.Close()
		cards = append(cards, library.File{Name: fh.Filename, Data: f})
	}

	var back *library.File
	if backs := r.MultipartForm.File["cardBack"]; len(backs) > 0 {
		f, err := backs[0].Open()
		if err != nil {
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}
		defer f.Close()
		back = &library.File{Name: backs[0].Filename, Data: f}
	}

	id, refs, err := h.Lib.SaveDeck(name, cards, back)
	if err != nil {
		log.Printf("upload error: %v", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	h.Hub.Deposit(id, refs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "deck created",
		"deckId":  id,
	})
}

// HandleDecks lists the stored deck library.
func (h *Handlers) HandleDecks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	infos, err := h.Lib.List()
	if err != nil {
		log.Printf("list decks error: %v", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// HandleQR generates a QR code PNG for joining the table.
func (h *Handlers) HandleQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	url := fmt.Sprintf("http://%s/", r.Host)
	png, err := qr.Generate(url)
	if err != nil {
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
