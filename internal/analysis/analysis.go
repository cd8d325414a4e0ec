// Package analysis runs a complete land-cover analysis for one image: seed
// selection, segmentation, the dashboard figure and the serialisable report.
// The CLI and the HTTP server share it.
package analysis

import (
	"context"
	"fmt"
	goimage "image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/landtint/internal/compression"
	"github.com/jmylchreest/landtint/internal/dashboard"
	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/report"
	"github.com/jmylchreest/landtint/internal/seed"
	"github.com/jmylchreest/landtint/internal/segment"
)

// Options configures an analysis.
type Options struct {
	Segment   segment.Options
	Seed      seed.Config
	Dashboard bool
	Layout    dashboard.Options
	Logger    hclog.Logger
}

// DefaultOptions returns options with the dashboard enabled.
func DefaultOptions() Options {
	return Options{
		Segment:   segment.DefaultOptions(),
		Seed:      seed.Config{Mode: seed.ModeContent},
		Dashboard: true,
		Layout:    dashboard.DefaultOptions(),
	}
}

// Outcome is everything produced for one image.
type Outcome struct {
	Result   *segment.Result
	Document *report.Document

	// Dashboard is nil when rendering was disabled.
	Dashboard *goimage.NRGBA
}

// Analyze segments src. source names the image for seeding and reporting.
func Analyze(ctx context.Context, src goimage.Image, source string, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no image", segment.ErrInvalidImage)
	}

	img := segment.FromImage(src)
	s, err := seed.Resolve(img, source, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve seed: %w", err)
	}
	logger.Debug("resolved seed", "mode", opts.Seed.Mode, "seed", s)

	segOpts := opts.Segment
	segOpts.Seed = s
	if segOpts.Logger == nil {
		segOpts.Logger = logger.Named("segment")
	}
	res, err := segment.Run(ctx, img, segOpts)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Result:   res,
		Document: report.Build(res, report.Meta{Source: source}),
	}
	if opts.Dashboard {
		out.Dashboard, err = dashboard.Render(res, opts.Layout)
		if err != nil {
			return nil, fmt.Errorf("failed to render dashboard: %w", err)
		}
	}
	return out, nil
}

// BundleEntries returns the files written to an analysis bundle: the JSON
// report, the segmented image, the dashboard when present and one
// mask-<id>.png per extracted mask.
func (o *Outcome) BundleEntries() ([]compression.Entry, error) {
	doc, err := o.Document.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	entries := []compression.Entry{{Name: "report.json", Data: doc}}

	add := func(name string, img goimage.Image) error {
		data, err := image.EncodePNG(img)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		entries = append(entries, compression.Entry{Name: name, Data: data})
		return nil
	}

	if err := add("segmented.png", o.Result.Segmented.ToRGBA()); err != nil {
		return nil, err
	}
	if o.Dashboard != nil {
		if err := add("dashboard.png", o.Dashboard); err != nil {
			return nil, err
		}
	}
	for _, m := range o.Result.Masks {
		if err := add(fmt.Sprintf("mask-%d.png", m.ClusterID), m.Image.ToRGBA()); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
