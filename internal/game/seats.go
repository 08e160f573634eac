package game

import "github.com/samber/lo"

type Role string

const (
	RoleDrawer    Role = "drawer"
	RoleGuesser   Role = "guesser"
	RoleSpectator Role = "spectator"
)

// Seats is one room's role layout. Methods never modify the receiver.
type Seats struct {
	Drawer     string
	Guesser    string
	Spectators []string
}

// Promotion tells a connection its role changed because someone left.
type Promotion struct {
	ConnID string
	Role   Role
}

func (s Seats) RoleOf(id string) (Role, bool) {
	switch {
	case id == "":
		return "", false
	case s.Drawer == id:
		return RoleDrawer, true
	case s.Guesser == id:
		return RoleGuesser, true
	case lo.Contains(s.Spectators, id):
		return RoleSpectator, true
	}
	return "", false
}

// Prune drops every seated id the live predicate rejects.
func (s Seats) Prune(live func(string) bool) Seats {
	out := Seats{Drawer: s.Drawer, Guesser: s.Guesser}
	if out.Drawer != "" && !live(out.Drawer) {
		out.Drawer = ""
	}
	if out.Guesser != "" && !live(out.Guesser) {
		out.Guesser = ""
	}
	out.Spectators = lo.Filter(s.Spectators, func(id string, _ int) bool { return live(id) })
	return out
}

// Assign seats id as drawer, then guesser, then at the back of the
// spectator queue. An id already seated keeps its role.
func (s Seats) Assign(id string, live func(string) bool) (Seats, Role) {
	out := s.Prune(live)
	if role, ok := out.RoleOf(id); ok {
		return out, role
	}
	switch {
	case out.Drawer == "":
		out.Drawer = id
		return out, RoleDrawer
	case out.Guesser == "":
		out.Guesser = id
		return out, RoleGuesser
	default:
		out.Spectators = append(out.Spectators, id)
		return out, RoleSpectator
	}
}

// Remove unseats id. A departing drawer is replaced by the guesser, a
// departing guesser by the head of the spectator queue.
func (s Seats) Remove(id string) (Seats, []Promotion) {
	out := Seats{Drawer: s.Drawer, Guesser: s.Guesser, Spectators: append([]string(nil), s.Spectators...)}
	var promoted []Promotion

	switch {
	case id == "":
	case out.Drawer == id:
		out.Drawer = ""
		if out.Guesser != "" {
			out.Drawer, out.Guesser = out.Guesser, ""
			promoted = append(promoted, Promotion{ConnID: out.Drawer, Role: RoleDrawer})
		}
	case out.Guesser == id:
		out.Guesser = ""
		if len(out.Spectators) > 0 {
			out.Guesser, out.Spectators = out.Spectators[0], out.Spectators[1:]
			promoted = append(promoted, Promotion{ConnID: out.Guesser, Role: RoleGuesser})
		}
	default:
		out.Spectators = lo.Without(out.Spectators, id)
	}
	return out, promoted
}

func (s Seats) Empty() bool {
	return s.Drawer == "" && s.Guesser == "" && len(s.Spectators) == 0
}
