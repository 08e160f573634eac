package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ClientMessage struct {
	Type  string `json:"type" validate:"required,oneof=join-game paint undo clear guess rename start-round room-state"`
	X     *int   `json:"x,omitempty" validate:"required_if=Type paint"`
	Y     *int   `json:"y,omitempty" validate:"required_if=Type paint"`
	Color string `json:"color,omitempty" validate:"max=32"`
	Text  string `json:"text,omitempty" validate:"max=200"`
	Name  string `json:"name,omitempty" validate:"max=200"`
}

// Validate checks the frame's shape. Board rules (bounds, colors, roles)
// are left to the lobby.
func (m ClientMessage) Validate() error {
	return validate.Struct(m)
}
