package prompts

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Stage names the model call an override replaces the instructions of.
type Stage string

const (
	StageOCR       Stage = "ocr"
	StageParse     Stage = "parse"
	StageCoherence Stage = "coherence"
)

// Stages lists every stage that accepts an override, in pipeline order.
func Stages() []Stage {
	return []Stage{StageOCR, StageParse, StageCoherence}
}

func (s Stage) valid() bool {
	return slices.Contains(Stages(), s)
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage returns ErrInvalidStage, naming the rejected value, for
// anything outside Stages.
func ParseStage(s string) (Stage, error) {
	if v := Stage(s); v.valid() {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
}
