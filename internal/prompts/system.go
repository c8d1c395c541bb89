package prompts

import (
	"context"
	"log/slog"

	"github.com/trackerzenith/docpipe/pkg/pagination"
)

// Source resolves the instructions a stage should send to its model.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
}

// System defines the public contract for prompt domain operations.
type System interface {
	Source

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prompt], error)

	Find(ctx context.Context, id int64) (*Prompt, error)
	Spec(ctx context.Context, stage Stage) (string, error)
	Create(ctx context.Context, cmd CreateCommand) (*Prompt, error)
	Update(ctx context.Context, id int64, cmd UpdateCommand) (*Prompt, error)
	Delete(ctx context.Context, id int64) error
	Activate(ctx context.Context, id int64) (*Prompt, error)
	Deactivate(ctx context.Context, id int64) (*Prompt, error)
}

// Defaults is a Source that always returns the built-in instructions.
type Defaults struct{}

func (Defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return Instructions(stage)
}

// Resolve returns the system prompt for stage: the instructions from src
// composed with the stage spec. When src fails the built-in instructions are
// used and the failure is logged.
func Resolve(ctx context.Context, src Source, stage Stage, logger *slog.Logger) (string, error) {
	instructions, err := src.Instructions(ctx, stage)
	if err != nil {
		logger.Warn("prompt override unavailable, using built-in instructions", "stage", stage, "error", err)
		if instructions, err = Instructions(stage); err != nil {
			return "", err
		}
	}
	return Compose(instructions, stage)
}
