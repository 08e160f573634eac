// Package board holds the authoritative pixel grid for one room together
// with each connection's paint count and single-step undo slot.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/DoyleJ11/pixlnary-backend/internal/leaderboard"
	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrUnauthorized = errors.New("not allowed to draw")
var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNameConflict = errors.New("username already taken")
var ErrUnknownConnection = errors.New("unknown connection")

const (
	DefaultSize   = 50
	MaxNameLength = 20
)

// Authorizer decides whether a connection may currently touch the grid.
type Authorizer interface {
	CanDraw(connID string) bool
}

type AuthorizerFunc func(connID string) bool

func (f AuthorizerFunc) CanDraw(connID string) bool { return f(connID) }

// LastAction is what a cell looked like before the connection's most
// recent paint.
type LastAction struct {
	X             int
	Y             int
	PreviousColor string
	PreviousOwner string
}

type Painter struct {
	ID         string
	Name       string
	PaintCount int
	Last       *LastAction
}

type Store struct {
	size     int
	colors   [][]string
	owners   [][]string
	painters map[string]*Painter
	order    []string // join order, used for leaderboard ties
	joined   int
	auth     Authorizer
	validate *validator.Validate
}

func New(size int, auth Authorizer) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	s := &Store{
		size:     size,
		painters: make(map[string]*Painter),
		auth:     auth,
		validate: validator.New(),
	}
	s.colors = emptyGrid(size)
	s.owners = emptyGrid(size)
	return s
}

func emptyGrid(size int) [][]string {
	g := make([][]string, size)
	for y := range g {
		g[y] = make([]string, size)
	}
	return g
}

func (s *Store) Size() int { return s.size }

func (s *Store) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.size && y < s.size
}

// Cell returns the color and owner at (x, y); both are empty when unpainted
// or out of range.
func (s *Store) Cell(x, y int) (string, string) {
	if !s.inBounds(x, y) {
		return "", ""
	}
	return s.colors[y][x], s.owners[y][x]
}

// ValidColor accepts CSS hex colors ("#f00", "#ff0000", "#ff000080") and
// bare color names ("red").
func (s *Store) ValidColor(color string) bool {
	return s.validate.Var(color, "required,max=32,hexcolor|alpha") == nil
}

func (s *Store) Paint(connID string, x, y int, color string) (types.PixelUpdate, error) {
	p, ok := s.painters[connID]
	if !ok {
		return types.PixelUpdate{}, ErrUnknownConnection
	}
	if !s.inBounds(x, y) {
		return types.PixelUpdate{}, fmt.Errorf("pixel (%d,%d) outside %dx%d board: %w", x, y, s.size, s.size, ErrInvalidInput)
	}
	if !s.ValidColor(color) {
		return types.PixelUpdate{}, fmt.Errorf("color %q: %w", color, ErrInvalidInput)
	}
	if !s.auth.CanDraw(connID) {
		return types.PixelUpdate{}, ErrUnauthorized
	}

	p.Last = &LastAction{
		X:             x,
		Y:             y,
		PreviousColor: s.colors[y][x],
		PreviousOwner: s.owners[y][x],
	}
	s.colors[y][x] = color
	s.owners[y][x] = p.Name
	p.PaintCount++

	return types.PixelUpdate{X: x, Y: y, Color: color, Owner: p.Name}, nil
}

func (s *Store) Undo(connID string) (types.PixelUpdate, error) {
	p, ok := s.painters[connID]
	if !ok {
		return types.PixelUpdate{}, ErrUnknownConnection
	}
	if p.Last == nil {
		return types.PixelUpdate{}, ErrNothingToUndo
	}
	if !s.auth.CanDraw(connID) {
		return types.PixelUpdate{}, ErrUnauthorized
	}

	last := *p.Last
	p.Last = nil
	if !s.inBounds(last.X, last.Y) {
		return types.PixelUpdate{}, fmt.Errorf("recorded pixel (%d,%d): %w", last.X, last.Y, ErrInvalidInput)
	}

	wasPainted := s.colors[last.Y][last.X] != ""
	s.colors[last.Y][last.X] = last.PreviousColor
	s.owners[last.Y][last.X] = last.PreviousOwner
	if wasPainted && p.PaintCount > 0 {
		p.PaintCount--
	}

	return types.PixelUpdate{X: last.X, Y: last.Y, Color: last.PreviousColor, Owner: last.PreviousOwner}, nil
}

// Clear wipes the grid and every painter's count and undo slot.
func (s *Store) Clear() {
	s.colors = emptyGrid(s.size)
	s.owners = emptyGrid(s.size)
	for _, p := range s.painters {
		p.PaintCount = 0
		p.Last = nil
	}
}

// RenameOwner rewrites every cell owned by previous and reports how many
// changed.
func (s *Store) RenameOwner(previous, next string) int {
	if previous == "" || previous == next {
		return 0
	}
	n := 0
	for y := range s.owners {
		for x, owner := range s.owners[y] {
			if owner == previous {
				s.owners[y][x] = next
				n++
			}
		}
	}
	return n
}

// SanitizeName collapses whitespace runs, trims, and cuts the result to
// MaxNameLength runes.
func SanitizeName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if r := []rune(name); len(r) > MaxNameLength {
		name = strings.TrimSpace(string(r[:MaxNameLength]))
	}
	return name
}

func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func (s *Store) nameTaken(name, except string) bool {
	for id, p := range s.painters {
		if id != except && sameName(p.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) Rename(connID, raw string) (types.NameChange, error) {
	p, ok := s.painters[connID]
	if !ok {
		return types.NameChange{}, ErrUnknownConnection
	}
	name := SanitizeName(raw)
	if name == "" {
		return types.NameChange{}, fmt.Errorf("empty username: %w", ErrInvalidInput)
	}
	change := types.NameChange{ConnectionID: connID, Previous: p.Name, Next: name}
	if name == p.Name {
		return change, nil
	}
	if s.nameTaken(name, connID) {
		return types.NameChange{}, fmt.Errorf("%q: %w", name, ErrNameConflict)
	}

	s.RenameOwner(p.Name, name)
	p.Name = name
	return change, nil
}

// Join registers a connection under the next free "Player #N" name. Joining
// twice returns the existing record.
func (s *Store) Join(connID string) Painter {
	if p, ok := s.painters[connID]; ok {
		return *p
	}
	var name string
	for {
		s.joined++
		name = fmt.Sprintf("Player #%d", s.joined)
		if !s.nameTaken(name, connID) {
			break
		}
	}
	p := &Painter{ID: connID, Name: name}
	s.painters[connID] = p
	s.order = append(s.order, connID)
	return *p
}

// Leave forgets the connection. Cells it painted keep their owner name.
func (s *Store) Leave(connID string) bool {
	if _, ok := s.painters[connID]; !ok {
		return false
	}
	delete(s.painters, connID)
	for i, id := range s.order {
		if id == connID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Painter(connID string) (Painter, bool) {
	p, ok := s.painters[connID]
	if !ok {
		return Painter{}, false
	}
	cp := *p
	if p.Last != nil {
		last := *p.Last
		cp.Last = &last
	}
	return cp, true
}

func (s *Store) Count() int { return len(s.painters) }

func (s *Store) Leaderboard() []types.LeaderboardEntry {
	entries := make([]types.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		p := s.painters[id]
		entries = append(entries, types.LeaderboardEntry{Username: p.Name, Count: p.PaintCount})
	}
	return leaderboard.Rank(entries)
}

// FullState returns a deep copy safe to hand to other goroutines.
func (s *Store) FullState() types.BoardState {
	return types.BoardState{
		Size:        s.size,
		Pixels:      copyGrid(s.colors),
		Owners:      copyGrid(s.owners),
		Leaderboard: s.Leaderboard(),
	}
}

func copyGrid(g [][]string) [][]string {
	out := make([][]string, len(g))
	for y := range g {
		out[y] = append([]string(nil), g[y]...)
	}
	return out
}
