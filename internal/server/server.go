package server

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"tabletop/internal/library"
	"tabletop/internal/table"
)

// Config carries everything the server needs from the command line.
type Config struct {
	Bind        string
	Port        int
	DataDir     string // deck library root, served at /uploads/
	WebDir      string // static client files, served at /
	DefaultBack string // back image URL for decks without a custom one
	Verbose     bool
}

// Server ties together HTTP serving, the deck library and the hub.
type Server struct {
	cfg      Config
	hub      *Hub
	handlers *Handlers
}

func New(cfg Config) *Server {
	lib := library.New(cfg.DataDir, cfg.DefaultBack)
	hub := NewHub(table.New(lib, lib), cfg.Verbose)
	return &Server{
		cfg:      cfg,
		hub:      hub,
		handlers: NewHandlers(hub, lib),
	}
}

func (s *Server) Start() error {
	go s.hub.Run()

	router := httprouter.New()
	router.GET("/ws", s.handlers.HandleWS)
	router.POST("/upload", s.handlers.HandleUpload)
	router.GET("/api/decks", s.handlers.HandleDecks)
	router.GET("/api/qr", s.handlers.HandleQR)
	router.ServeFiles("/uploads/*filepath", http.Dir(s.handlers.Lib.Root()))
	router.NotFound = http.FileServer(http.Dir(s.cfg.WebDir))

	addr := net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	log.Printf("table server listening on http://%s", displayAddr(s.cfg.Bind, s.cfg.Port))
	if ip := localIP(); ip != "" {
		log.Printf("join from your network: http://%s:%d", ip, s.cfg.Port)
	}
	return srv.ListenAndServe()
}

func displayAddr(bind string, port int) string {
	if bind == "" || bind == "0.0.0.0" || bind == "::" {
		bind = "localhost"
	}
	return net.JoinHostPort(bind, strconv.Itoa(port))
}

// localIP finds a non-loopback IPv4 address so the startup log can
// print a LAN join URL.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
