package models

import (
	"strings"
	"time"
)

// Prompt is a user-authored reminder text. Rules attach to a prompt by its text.
type Prompt struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	Text      string    `json:"text" yaml:"text"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// IsBlank reports whether the prompt has no visible text.
func (p Prompt) IsBlank() bool {
	return strings.TrimSpace(p.Text) == ""
}
