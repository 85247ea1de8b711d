// Package library stores uploaded decks on disk. Each deck lives in
// its own folder under the root; a file named card-back.<ext> is the
// deck's custom back image.
package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const backPrefix = "card-back"

// backExts is the probe order for custom back images.
var backExts = []string{".png", ".jpg", ".webp"}

// imageExts are the file extensions counted as card images.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// SanitizeDeckID turns a user-supplied deck name into a filesystem-
// and URL-safe identifier.
func SanitizeDeckID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

// File is one uploaded file.
type File struct {
	Name string
	Data io.Reader
}

// Info describes a stored deck for the browsing API.
type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardBack  string `json:"cardBack"`
	CardCount int    `json:"cardCount"`
}

// Library is the on-disk deck store. Image URLs it hands out are
// rooted at /uploads/, which the server serves from the same root
// directory.
type Library struct {
	root        string
	defaultBack string
}

func New(root, defaultBack string) *Library {
	if defaultBack == "" {
		defaultBack = "/assets/card-back.png"
	}
	return &Library{root: root, defaultBack: defaultBack}
}

// Root returns the directory decks are stored under.
func (l *Library) Root() string { return l.root }

// SaveDeck persists a deck's card images and optional custom back,
// returning the deck id and the image URLs in saved order.
func (l *Library) SaveDeck(name string, cards []File, back *File) (string, []string, error) {
	id := SanitizeDeckID(name)
	dir := filepath.Join(l.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create deck folder: %w", err)
	}

	refs := make([]string, 0, len(cards))
	for _, f := range cards {
		base := filepath.Base(f.Name)
		if err := writeFile(filepath.Join(dir, base), f.Data); err != nil {
			return "", nil, err
		}
		refs = append(refs, "/uploads/"+id+"/"+base)
	}

	if back != nil {
		ext := strings.ToLower(filepath.Ext(back.Name))
		if err := writeFile(filepath.Join(dir, backPrefix+ext), back.Data); err != nil {
			return "", nil, err
		}
	}
	return id, refs, nil
}

// Load returns the stored card image URLs for a deck, excluding its
// back image.
func (l *Library) Load(deckID string) ([]string, error) {
	dir := filepath.Join(l.root, SanitizeDeckID(deckID))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read deck folder: %w", err)
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), backPrefix) {
			continue
		}
		if !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		refs = append(refs, "/uploads/"+deckID+"/"+e.Name())
	}
	sort.Strings(refs)
	return refs, nil
}

// List returns every stored deck.
func (l *Library) List() ([]Info, error) {
	entries, err := os.ReadDir(l.root)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read library root: %w", err)
	}
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		refs, err := l.Load(e.Name())
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:        e.Name(),
			Name:      e.Name(),
			CardBack:  l.BackImage(e.Name()),
			CardCount: len(refs),
		})
	}
	return infos, nil
}

// BackImage resolves the back image URL for a deck, probing the
// custom back formats in order and falling back to the shared
// default. An empty deck id means a pile, which has no folder.
func (l *Library) BackImage(deckID string) string {
	if deckID == "" {
		return l.defaultBack
	}
	dir := filepath.Join(l.root, SanitizeDeckID(deckID))
	for _, ext := range backExts {
		if _, err := os.Stat(filepath.Join(dir, backPrefix+ext)); err == nil {
			return "/uploads/" + deckID + "/" + backPrefix + ext
		}
	}
	return l.defaultBack
}

func writeFile(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}
