package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// VisionConfidence is the confidence hint reported for vision-model transcriptions.
const VisionConfidence = 0.85

// Vision transcribes images by sending them to a multimodal language model.
type Vision struct {
	name         string
	client       llm.Client
	instructions string
}

// NewVision creates a Vision provider named name that prompts client with instructions.
func NewVision(name string, client llm.Client, instructions string) *Vision {
	return &Vision{name: name, client: client, instructions: instructions}
}

func (v *Vision) Name() string { return v.name }

func (v *Vision) Recognize(ctx context.Context, in Input) (*Result, error) {
	if !IsImage(in.MimeType) {
		return nil, fmt.Errorf("%s: %w: %s", v.name, ErrUnsupportedFormat, in.MimeType)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty input", v.name, ErrEmptyText)
	}

	resp, err := v.client.Complete(ctx, llm.Request{
		Prompt:      v.instructions,
		Images:      []llm.Image{{Data: in.Data, MimeType: in.MimeType}},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.name, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", v.name, ErrEmptyText)
	}

	return &Result{Text: text, Confidence: VisionConfidence}, nil
}
