// Package imaging derives the stored rendition set from an uploaded image.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // registered so uploads are recognized and rejected by name
	"image/jpeg"
	_ "image/png"
	"sync"

	dimaging "github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/pawdex/pawdex/internal/config"
	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/report"
)

// Derivation errors. Input problems wrap domain.ErrValidation so the
// transport maps them to 400; everything else wraps domain.ErrFile.
var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported image format", domain.ErrValidation)
	ErrTooSmall          = fmt.Errorf("%w: image is too small", domain.ErrValidation)
	ErrTooLarge          = fmt.Errorf("%w: image is too large", domain.ErrValidation)
	ErrDecode            = fmt.Errorf("%w: cannot decode image", domain.ErrFile)
)

// allowedFormats are the upload formats the pipeline accepts, keyed by the
// format name image.DecodeConfig reports.
var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// renditionStore persists derived rendition files.
type renditionStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, names ...string) error
}

// Pipeline decodes an upload and produces the three renditions.
type Pipeline struct {
	store renditionStore
	cfg   config.MediaConfig
}

// NewPipeline creates an image derivation pipeline.
func NewPipeline(store renditionStore, cfg config.MediaConfig) *Pipeline {
	return &Pipeline{store: store, cfg: cfg}
}

type target struct {
	name    string
	box     int
	quality int
}

// Derive validates raw, derives the three renditions, and writes them
// through the rendition store. The write is all-or-nothing: on any failure
// every file written so far is removed and an error is returned.
func (p *Pipeline) Derive(ctx context.Context, reportID string, raw []byte) (report.Renditions, error) {
	cfgImg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return report.Renditions{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !allowedFormats[format] {
		return report.Renditions{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if min(cfgImg.Width, cfgImg.Height) < p.cfg.MinSidePx {
		return report.Renditions{}, fmt.Errorf(
			"%w: %dx%d is below the %dpx minimum side",
			ErrTooSmall, cfgImg.Width, cfgImg.Height, p.cfg.MinSidePx,
		)
	}
	if max(cfgImg.Width, cfgImg.Height) > p.cfg.MaxSidePx {
		return report.Renditions{}, fmt.Errorf(
			"%w: %dx%d exceeds the %dpx maximum side",
			ErrTooLarge, cfgImg.Width, cfgImg.Height, p.cfg.MaxSidePx,
		)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return report.Renditions{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	ren := report.Renditions{
		Thumbnail: reportID + "_thumb.jpg",
		Medium:    reportID + "_medium.jpg",
		Large:     reportID + "_large.jpg",
	}
	targets := []target{
		{name: ren.Thumbnail, box: p.cfg.Thumbnail.BoxPx, quality: p.cfg.Thumbnail.Quality},
		{name: ren.Medium, box: p.cfg.Medium.BoxPx, quality: p.cfg.Medium.Quality},
		{name: ren.Large, box: p.cfg.Large.BoxPx, quality: p.cfg.Large.Quality},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			if err := p.encodeAndSave(ctx, src, t); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	if firstErr != nil {
		// Best effort: the rendition set is all-or-nothing.
		_ = p.store.Remove(ctx, ren.Thumbnail, ren.Medium, ren.Large)
		return report.Renditions{}, fmt.Errorf("%w: derive renditions: %w", domain.ErrFile, firstErr)
	}
	return ren, nil
}

// encodeAndSave fits src into the target box (never upscaling), encodes it
// as JPEG at the target quality, and writes it through the store.
func (p *Pipeline) encodeAndSave(ctx context.Context, src image.Image, t target) error {
	fitted := dimaging.Fit(src, t.box, t.box, dimaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: t.quality}); err != nil {
		return fmt.Errorf("encode %s: %w", t.name, err)
	}
	if err := p.store.Save(ctx, t.name, buf.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", t.name, err)
	}
	return nil
}
