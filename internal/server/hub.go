package server

import (
	"encoding/json"
	"log"

	"tabletop/internal/protocol"
	"tabletop/internal/table"
)

// Hub owns the shared table and every WebSocket connection to it. All
// state access happens on the Run goroutine: register, unregister,
// inbound events and upload deposits are serialized through channels,
// so each operation runs to completion, broadcasts included, before
// the next one starts. That is the whole locking story.
type Hub struct {
	table      *table.Table
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan IncomingMessage
	deposits   chan deposit
	quit       chan struct{}
	verbose    bool
}

// deposit is a finished upload waiting to be placed on the table.
type deposit struct {
	id   string
	refs []string
}

func NewHub(tbl *table.Table, verbose bool) *Hub {
	return &Hub{
		table:      tbl,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan IncomingMessage, 256),
		deposits:   make(chan deposit, 16),
		quit:       make(chan struct{}),
		verbose:    verbose,
	}
}

// Deposit hands a freshly uploaded deck to the hub goroutine. Called
// from HTTP handlers; the deck appears on the table and is announced
// in event order like any other mutation.
func (h *Hub) Deposit(id string, refs []string) {
	h.deposits <- deposit{id: id, refs: refs}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			client.SendEnvelope(protocol.MustEnvelope(protocol.MsgTableState, h.table.Snapshot(client.ID)))
			log.Printf("client %s connected (%d online)", client.ID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("client %s disconnected (%d online)", client.ID, len(h.clients))
			}

		case msg := <-h.incoming:
			if h.verbose {
				log.Printf("client %s: %s", msg.Client.ID, msg.Envelope.Type)
			}
			h.dispatch(msg.Client, h.table.Apply(msg.Client.ID, msg.Envelope))

		case dep := <-h.deposits:
			// Uploaded decks land at the same spot; players drag them
			// where they want them.
			h.dispatch(nil, h.table.DepositDeck(dep.id, dep.refs, 100, 100))

		case <-h.quit:
			return
		}
	}
}

// Stop terminates the Run loop.
func (h *Hub) Stop() {
	close(h.quit)
}

// dispatch delivers the core's (recipient set, message) pairs. src is
// the client whose event produced them; nil for server-originated
// mutations, which can only broadcast.
func (h *Hub) dispatch(src *Client, outs []table.Outbound) {
	for _, out := range outs {
		data, err := json.Marshal(out.Env)
		if err != nil {
			log.Printf("broadcast marshal error: %v", err)
			continue
		}
		switch out.Scope {
		case table.ScopeRequester:
			if src != nil {
				src.trySend(data)
			}
		case table.ScopeOthers:
			for c := range h.clients {
				if c != src {
					c.trySend(data)
				}
			}
		default:
			for c := range h.clients {
				c.trySend(data)
			}
		}
	}
}
