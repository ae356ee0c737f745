package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepInstructions(t *testing.T) {
	in := StepInstructions([]Step{
		{StepNumber: 4, InstructionText: "Boil water"},
		{StepNumber: 9, InstructionText: "   "},
		{StepNumber: 2, InstructionText: " Add pasta "},
	})

	assert.Equal(t, InstructionsSteps, in.Kind())
	assert.Equal(t, []Step{
		{StepNumber: 1, InstructionText: "Boil water"},
		{StepNumber: 2, InstructionText: "Add pasta"},
	}, in.Steps())
	assert.Equal(t, "Boil water\nAdd pasta", in.Text())

	assert.Equal(t, InstructionsNone, StepInstructions(nil).Kind())
}

func TestInstructionsJSONStepOrder(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"numbered steps follow step_number", `[{"step_number": 3, "instruction_text": "Serve"}, {"step_number": 1, "instruction_text": "Chop"}, {"step_number": 2, "instruction_text": "Fry"}]`, []string{"Chop", "Fry", "Serve"}},
		{"unnumbered steps keep array order", `["Chop", {"step_number": 5, "instruction_text": "Fry"}, "Serve"]`, []string{"Chop", "Fry", "Serve"}},
		{"repeated numbers keep array order", `[{"step_number": 1, "instruction_text": "Chop"}, {"step_number": 1, "instruction_text": "Fry"}]`, []string{"Chop", "Fry"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var in Instructions
			require.NoError(t, json.Unmarshal([]byte(tc.input), &in))

			steps := in.Steps()
			require.Len(t, steps, len(tc.want))
			for n, s := range steps {
				assert.Equal(t, n+1, s.StepNumber)
				assert.Equal(t, tc.want[n], s.InstructionText)
			}
		})
	}
}

func TestFreeformInstructions(t *testing.T) {
	in := FreeformInstructions("Preheat oven.\n\n  Bake 20 minutes.  ")

	assert.Equal(t, InstructionsFreeform, in.Kind())
	steps := in.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, Step{StepNumber: 2, InstructionText: "Bake 20 minutes."}, steps[1])

	assert.Equal(t, InstructionsNone, FreeformInstructions("  ").Kind())
}

func TestInstructionsJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantKind InstructionsKind
		wantLen  int
	}{
		{"text", `"Mix everything"`, InstructionsFreeform, 1},
		{"steps", `[{"step_number": 1, "instruction_text": "Chop"}, {"step_number": 2, "instruction_text": "Fry"}]`, InstructionsSteps, 2},
		{"plain strings", `["Chop", "Fry", "Serve"]`, InstructionsSteps, 3},
		{"null", `null`, InstructionsNone, 0},
		{"empty array", `[]`, InstructionsNone, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var in Instructions
			require.NoError(t, json.Unmarshal([]byte(tc.input), &in))
			assert.Equal(t, tc.wantKind, in.Kind())
			assert.Len(t, in.Steps(), tc.wantLen)
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		var in Instructions
		assert.ErrorIs(t, json.Unmarshal([]byte(`42`), &in), ErrInvalidRequest)
	})

	t.Run("recipe keeps the variant it was given", func(t *testing.T) {
		var r Recipe
		require.NoError(t, json.Unmarshal([]byte(`{"name": "Tea", "instructions": "Steep"}`), &r))
		out, err := json.Marshal(r)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"instructions":"Steep"`)
		assert.True(t, r.IsUserAuthored())
	})
}
