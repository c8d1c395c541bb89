// Package prompts manages the instructions sent to models by the ocr, parse
// and coherence stages. Built-in defaults can be replaced per stage by an
// active override stored in the database.
package prompts

import "time"

// Prompt is a named instruction override for a stage.
type Prompt struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to create a new prompt override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// UpdateCommand carries the data needed to update an existing prompt override.
type UpdateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

func (c CreateCommand) validate() error {
	if c.Name == "" || c.Instructions == "" {
		return ErrInvalidPrompt
	}
	return nil
}

func (c UpdateCommand) validate() error {
	if c.Name == "" || c.Instructions == "" {
		return ErrInvalidPrompt
	}
	return nil
}
