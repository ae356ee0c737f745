package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultIngredientGroup is used when an ingredient carries no group label
const DefaultIngredientGroup = "Main"

// RecipeIngredient is a named, quantified requirement within a recipe
type RecipeIngredient struct {
	Name             string   `json:"name"`
	Quantity         Quantity `json:"quantity"`
	Unit             string   `json:"unit"`
	PreparationNotes string   `json:"preparation_notes,omitempty"`
	Group            string   `json:"group"`
}

// Step is a single numbered instruction
type Step struct {
	StepNumber      int    `json:"step_number"`
	InstructionText string `json:"instruction_text"`
}

// InstructionsKind tells which variant an Instructions value holds
type InstructionsKind int

const (
	// InstructionsNone means the recipe has no instructions
	InstructionsNone InstructionsKind = iota
	// InstructionsFreeform holds a single block of text
	InstructionsFreeform
	// InstructionsSteps holds numbered steps
	InstructionsSteps
)

// Instructions is either freeform text or a list of structured steps.
// Construct with FreeformInstructions or StepInstructions.
type Instructions struct {
	kind  InstructionsKind
	text  string
	steps []Step
}

// FreeformInstructions wraps a block of instruction text
func FreeformInstructions(text string) Instructions {
	text = strings.TrimSpace(text)
	if text == "" {
		return Instructions{}
	}
	return Instructions{kind: InstructionsFreeform, text: text}
}

// StepInstructions wraps structured steps, renumbering them 1..n in order
func StepInstructions(steps []Step) Instructions {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		text := strings.TrimSpace(s.InstructionText)
		if text == "" {
			continue
		}
		out = append(out, Step{StepNumber: len(out) + 1, InstructionText: text})
	}
	if len(out) == 0 {
		return Instructions{}
	}
	return Instructions{kind: InstructionsSteps, steps: out}
}

// Kind returns the active variant
func (i Instructions) Kind() InstructionsKind { return i.kind }

// Text returns the freeform text, or the steps joined by newlines
func (i Instructions) Text() string {
	switch i.kind {
	case InstructionsFreeform:
		return i.text
	case InstructionsSteps:
		lines := make([]string, len(i.steps))
		for n, s := range i.steps {
			lines[n] = s.InstructionText
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

// Steps returns numbered steps. Freeform text is split on non-empty lines.
func (i Instructions) Steps() []Step {
	switch i.kind {
	case InstructionsSteps:
		out := make([]Step, len(i.steps))
		copy(out, i.steps)
		return out
	case InstructionsFreeform:
		var out []Step
		for _, line := range strings.Split(i.text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out = append(out, Step{StepNumber: len(out) + 1, InstructionText: line})
		}
		return out
	}
	return nil
}

// MarshalJSON renders freeform instructions as a string and steps as an array
func (i Instructions) MarshalJSON() ([]byte, error) {
	switch i.kind {
	case InstructionsFreeform:
		return json.Marshal(i.text)
	case InstructionsSteps:
		return json.Marshal(i.steps)
	}
	return []byte("[]"), nil
}

// UnmarshalJSON accepts a string, an array of steps, an array of strings or null.
// Steps that all carry a step_number are put in step_number order before
// renumbering; otherwise array order is kept.
func (i *Instructions) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*i = Instructions{}
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*i = FreeformInstructions(text)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: instructions must be text or a list of steps", ErrInvalidRequest)
	}
	steps := make([]Step, 0, len(raw))
	for _, r := range raw {
		var text string
		if err := json.Unmarshal(r, &text); err == nil {
			steps = append(steps, Step{InstructionText: text})
			continue
		}
		var s Step
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("%w: malformed instruction step", ErrInvalidRequest)
		}
		steps = append(steps, s)
	}
	if allNumbered(steps) {
		sort.SliceStable(steps, func(a, b int) bool { return steps[a].StepNumber < steps[b].StepNumber })
	}
	*i = StepInstructions(steps)
	return nil
}

func allNumbered(steps []Step) bool {
	for _, s := range steps {
		if s.StepNumber <= 0 {
			return false
		}
	}
	return len(steps) > 0
}

// Recipe is a named list of ingredients and instructions.
// A nil Source means the recipe was authored by the user.
type Recipe struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Source       *string            `json:"source"`
	SourceURL    *string            `json:"sourceUrl"`
	PrepTime     int                `json:"prepTime"`
	CookTime     int                `json:"cookTime"`
	Servings     int                `json:"servings"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions Instructions       `json:"instructions"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// IsUserAuthored reports whether the recipe has no external source
func (r Recipe) IsUserAuthored() bool {
	return r.Source == nil && r.SourceURL == nil
}
