// Package render rasterizes PDF pages to PNG images through ImageMagick.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"golang.org/x/sync/errgroup"
)

const sourcePDF = "source.pdf"

// ErrRenderFailed wraps every rasterization failure.
var ErrRenderFailed = errors.New("pdf render failed")

// Rasterizer converts a PDF into one PNG image per page.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// ImageMagick renders pages with the document-context ImageMagick renderer.
type ImageMagick struct {
	dpi int
}

// New creates an ImageMagick rasterizer at dpi. Non-positive values use 200.
func New(dpi int) *ImageMagick {
	if dpi <= 0 {
		dpi = 200
	}
	return &ImageMagick{dpi: dpi}
}

func (r *ImageMagick) imageConfig() config.ImageConfig {
	return config.ImageConfig{
		Format:  "png",
		DPI:     r.dpi,
		Options: map[string]any{"background": "white"},
	}
}

// Rasterize writes data to a temporary directory, then renders every page
// concurrently, bounded by the CPU count. Pages are returned in order.
func (r *ImageMagick) Rasterize(ctx context.Context, data []byte) ([][]byte, error) {
	tempDir, err := os.MkdirTemp("", "docpipe-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %w", ErrRenderFailed, err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, sourcePDF)
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: write temp pdf: %w", ErrRenderFailed, err)
	}

	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrRenderFailed, err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(r.imageConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrRenderFailed, err)
	}

	allPages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pages: %w", ErrRenderFailed, err)
	}

	images := make([][]byte, len(allPages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(WorkerCount(len(allPages)))

	for i, page := range allPages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			img, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	return images, nil
}

// WorkerCount bounds page fan-out by the CPU count, never below one.
func WorkerCount(pageCount int) int {
	return max(min(runtime.NumCPU(), pageCount), 1)
}
