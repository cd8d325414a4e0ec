package cli_test

import (
	"bytes"
	"encoding/json"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/landtint/internal/cli"
	"github.com/jmylchreest/landtint/internal/compression"
	"github.com/jmylchreest/landtint/internal/report"
)

// writeScene writes a 10x4 PNG: 30 water pixels and 10 sand pixels.
func writeScene(t *testing.T, dir string) string {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 10, 4))
	for y := range 4 {
		for x := range 10 {
			c := color.RGBA{R: 20, G: 70, B: 140, A: 255}
			if y == 3 {
				c = color.RGBA{R: 210, G: 190, B: 140, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, "coast.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyseJSON(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir)

	out, err := execute(t, "analyse", scene, "2", "--format", "json", "-q")
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if !doc.Success || doc.K != 2 || len(doc.Clusters) != 2 {
		t.Fatalf("Unexpected report: %+v", doc)
	}
	if doc.Clusters[0].Percentage != 75 || doc.Clusters[0].Hex != "#14468c" {
		t.Errorf("Expected water cluster first at 75%%, got %+v", doc.Clusters[0])
	}

	wantDashboard := filepath.Join(dir, "coast_analysis.png")
	if doc.OutputImage != wantDashboard {
		t.Errorf("Expected output_image %s, got %s", wantDashboard, doc.OutputImage)
	}
	if _, err := os.Stat(wantDashboard); err != nil {
		t.Errorf("Expected dashboard to be written: %v", err)
	}
}

func TestAnalyseTextAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir)
	segmented := filepath.Join(dir, "seg.png")
	masks := filepath.Join(dir, "masks")
	bundle := filepath.Join(dir, "coast.tar.xz")

	out, err := execute(t, "analyse", scene, "-k", "2", "--no-dashboard", "-q",
		"--save-segmented", segmented, "--save-masks", masks, "--bundle", bundle)
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if !strings.Contains(out, "75.00% -> RGB (20, 70, 140)") {
		t.Errorf("Expected water cluster line, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "coast_analysis.png")); err == nil {
		t.Error("Expected no dashboard with --no-dashboard")
	}
	for _, p := range []string{segmented, filepath.Join(masks, "mask-0.png"), filepath.Join(masks, "mask-1.png")} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected %s to exist: %v", p, err)
		}
	}

	f, err := os.Open(bundle)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	defer f.Close()
	entries, err := compression.Read(f, compression.FormatTarXz)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if len(entries) != 4 || entries[0].Name != "report.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name)
		}
		t.Errorf("Expected report, segmented and two masks, got %v", names)
	}
}

func TestAnalyseEnvironment(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir)

	t.Setenv("LANDTINT_CLUSTERS", "1")
	out, err := execute(t, "analyse", scene, "--format", "json", "--no-dashboard", "-q")
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.K != 1 {
		t.Errorf("Expected K from environment, got %d", doc.K)
	}

	// Flags take precedence over the environment.
	out, err = execute(t, "analyse", scene, "--clusters", "2", "--format", "json", "--no-dashboard", "-q")
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.K != 2 {
		t.Errorf("Expected K from flag, got %d", doc.K)
	}

	// A positional K overrides the environment too.
	out, err = execute(t, "analyse", scene, "2", "--format", "json", "--no-dashboard", "-q")
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.K != 2 {
		t.Errorf("Expected K from argument, got %d", doc.K)
	}

	// --seed switches to manual mode even when the environment picks another.
	t.Setenv("LANDTINT_SEED_MODE", "content")
	out, err = execute(t, "analyse", scene, "--seed", "5", "--format", "json", "--no-dashboard", "-q")
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Seed != 5 {
		t.Errorf("Expected seed 5, got %d", doc.Seed)
	}

	t.Setenv("LANDTINT_RESTARTS", "lots")
	if _, err := execute(t, "analyse", scene, "--no-dashboard", "-q"); err == nil {
		t.Error("Expected error for invalid LANDTINT_RESTARTS")
	}
}

func TestAnalyseManualSeedIsReproducible(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir)

	args := []string{"analyse", scene, "3", "--seed", "99", "--format", "json", "--no-dashboard", "-q"}
	first, err := execute(t, args...)
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	second, err := execute(t, args...)
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if first != second {
		t.Error("Expected identical output for the same manual seed")
	}
	if !strings.Contains(first, `"seed": 99`) {
		t.Errorf("Expected seed 99 in report, got:\n%s", first)
	}
}

func TestAnalyseErrors(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no image", []string{"analyse"}, "required"},
		{"missing file", []string{"analyse", filepath.Join(dir, "nope.png")}, "not found"},
		{"bad k", []string{"analyse", scene, "two"}, "invalid cluster count"},
		{"k too large", []string{"analyse", scene, "41", "--no-dashboard"}, "cluster count"},
		{"conflicting k", []string{"analyse", scene, "2", "-k", "3"}, "both argument"},
		{"bad format", []string{"analyse", scene, "--format", "xml"}, "invalid format"},
		{"bad seed mode", []string{"analyse", scene, "--seed-mode", "lunar"}, "invalid seed mode"},
		{"seed conflicts with mode", []string{"analyse", scene, "--seed", "1", "--seed-mode", "random"}, "--seed requires"},
		{"bad bundle", []string{"analyse", scene, "--no-dashboard", "--bundle", filepath.Join(dir, "x.zip")}, "unsupported bundle"},
		{"bad latitude", []string{"analyse", "--lat", "95", "--lon", "0"}, "latitude"},
		{"lat without lon", []string{"fetch", "--lat", "10"}, "--lat and --lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "-q")...)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "landtint version") {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info["version"] == "" || info["go_version"] == "" {
		t.Errorf("Expected version fields, got %v", info)
	}
}
