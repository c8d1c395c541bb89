package pdftext_test

import (
	"errors"
	"testing"

	"github.com/trackerzenith/docpipe/pkg/pdftext"
)

func TestExtractUnreadable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("STARBUCKS TOTAL 10.60")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pdftext.Extract(tt.data)
			if !errors.Is(err, pdftext.ErrUnreadable) {
				t.Errorf("error = %v, want ErrUnreadable", err)
			}
		})
	}
}

func TestInspectGarbage(t *testing.T) {
	info, err := pdftext.Inspect([]byte("not a pdf"))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
	if info.Invalid == nil {
		t.Error("expected validation failure to be recorded")
	}
	if !errors.Is(err, pdftext.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestChars(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"  abc  ", 3},
		{"kopi ais RM3.50", 15},
		{"咖啡", 2},
	}

	for _, tt := range tests {
		if got := pdftext.Chars(tt.text); got != tt.want {
			t.Errorf("Chars(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
