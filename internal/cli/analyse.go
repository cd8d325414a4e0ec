package cli

import (
	"fmt"
	goimage "image"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/landtint/internal/analysis"
	"github.com/jmylchreest/landtint/internal/colour"
	"github.com/jmylchreest/landtint/internal/compression"
	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/report"
)

type analyseFlags struct {
	cluster clusterFlags
	imagery imageryFlags

	format        string
	output        string
	dashboard     string
	noDashboard   bool
	saveSegmented string
	saveMasks     string
	bundle        string
}

func newAnalyseCmd() *cobra.Command {
	f := &analyseFlags{}
	cmd := &cobra.Command{
		Use:     "analyse [image] [k]",
		Aliases: []string{"analyze"},
		Short:   "Segment an image into K colour clusters and report coverage",
		Long: `Segment an image into K colour clusters and report how much of the image
each cluster covers.

The image may be a local file (JPEG, PNG, GIF, WebP, TIFF, BMP), an HTTP(S)
URL, or omitted when --lat and --lon select imagery to fetch. Clusters are
reported largest first.

Examples:
  # Four clusters (default), text report and field_analysis.png dashboard
  landtint analyse field.png

  # Six clusters as JSON
  landtint analyse field.png 6 --format json

  # Fetch imagery around a coordinate and analyse it
  landtint analyse --lat 40.4168 --lon -3.7038 -k 5

  # Save everything into one archive
  landtint analyse field.png --bundle field.tar.xz`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(cmd, args, f)
		},
	}

	fs := cmd.Flags()
	f.cluster.register(fs)
	f.imagery.register(fs)
	fs.StringVarP(&f.format, "format", "f", "text", "report format (text, json)")
	fs.StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")
	fs.StringVar(&f.dashboard, "dashboard", "", "dashboard PNG path (default: <image>_analysis.png)")
	fs.BoolVar(&f.noDashboard, "no-dashboard", false, "skip rendering the dashboard")
	fs.StringVar(&f.saveSegmented, "save-segmented", "", "write the segmented image to this PNG path")
	fs.StringVar(&f.saveMasks, "save-masks", "", "write mask-<id>.png files into this directory")
	fs.StringVar(&f.bundle, "bundle", "", "write report and images to a .tar.xz or .tar.gz archive")
	return cmd
}

func runAnalyse(cmd *cobra.Command, args []string, f *analyseFlags) error {
	logger := newLogger(cmd)
	ctx := cmd.Context()
	fs := cmd.Flags()

	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("invalid format %q (valid: text, json)", f.format)
	}

	var source string
	switch {
	case f.imagery.requested(fs):
		if len(args) == 2 {
			return fmt.Errorf("an image argument cannot be combined with --lat/--lon")
		}
		if len(args) == 1 {
			// With coordinates the single positional argument is K.
			args = []string{"", args[0]}
		}
		p, err := f.imagery.fetch(ctx, fs, logger)
		if err != nil {
			return err
		}
		source = p
	case len(args) == 0:
		return fmt.Errorf("an image path or --lat/--lon is required")
	default:
		source = args[0]
	}

	if len(args) == 2 {
		k, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid cluster count %q: %w", args[1], err)
		}
		if fs.Changed("clusters") && k != f.cluster.clusters {
			return fmt.Errorf("cluster count given as both argument (%d) and --clusters (%d)", k, f.cluster.clusters)
		}
		f.cluster.clusters = k
	}

	opts, err := f.cluster.options(fs, logger)
	if err != nil {
		return err
	}
	opts.Dashboard = !f.noDashboard

	if err := image.ValidateImagePath(source); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}
	logger.Debug("loading image", "source", source)

	loader := image.NewSmartLoader()
	var img goimage.Image
	if image.IsURL(source) {
		img, err = loader.LoadURL(ctx, source)
	} else {
		img, err = loader.Load(source)
	}
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	out, err := analysis.Analyze(ctx, img, source, opts)
	if err != nil {
		return fmt.Errorf("failed to analyse image: %w", err)
	}

	if err := saveArtifacts(out, source, f, logger); err != nil {
		return err
	}
	verbose, _ := fs.GetBool("verbose")
	return writeReport(cmd, out.Document, f, verbose)
}

// saveArtifacts writes the dashboard, segmented image, masks and bundle.
// The dashboard path is recorded in the report.
func saveArtifacts(out *analysis.Outcome, source string, f *analyseFlags, logger hclog.Logger) error {
	if out.Dashboard != nil {
		p := f.dashboard
		if p == "" {
			p = defaultDashboardPath(source)
		}
		if err := image.SavePNG(p, out.Dashboard); err != nil {
			return fmt.Errorf("failed to save dashboard: %w", err)
		}
		out.Document.OutputImage = p
		logger.Info("saved dashboard", "path", p)
	}

	if f.saveSegmented != "" {
		if err := image.SavePNG(f.saveSegmented, out.Result.Segmented.ToRGBA()); err != nil {
			return fmt.Errorf("failed to save segmented image: %w", err)
		}
		logger.Info("saved segmented image", "path", f.saveSegmented)
	}

	if f.saveMasks != "" {
		for _, m := range out.Result.Masks {
			p := filepath.Join(f.saveMasks, fmt.Sprintf("mask-%d.png", m.ClusterID))
			if err := image.SavePNG(p, m.Image.ToRGBA()); err != nil {
				return fmt.Errorf("failed to save mask for cluster %d: %w", m.ClusterID, err)
			}
		}
		logger.Info("saved masks", "dir", f.saveMasks, "count", len(out.Result.Masks))
	}

	if f.bundle != "" {
		entries, err := out.BundleEntries()
		if err != nil {
			return err
		}
		if err := compression.WriteFile(f.bundle, entries); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		logger.Info("saved bundle", "path", f.bundle, "files", len(entries))
	}
	return nil
}

// defaultDashboardPath places the dashboard next to a local image, or in the
// working directory for URLs.
func defaultDashboardPath(source string) string {
	if !image.IsURL(source) {
		return image.AnalysisPath(source)
	}
	name := "image"
	if u, err := url.Parse(source); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}
	return image.AnalysisPath(name)
}

func writeReport(cmd *cobra.Command, doc *report.Document, f *analyseFlags, verbose bool) error {
	var w io.Writer = cmd.OutOrStdout()
	preview := false
	if f.output != "" {
		file, err := os.Create(f.output) // #nosec G304 - User-specified output path
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		w = file
	} else if out, ok := w.(*os.File); ok {
		preview = colour.SupportsANSIColours(out)
	}

	if f.format == "json" {
		data, err := doc.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return report.WriteText(w, doc, report.TextOptions{Preview: preview, Verbose: verbose})
}
