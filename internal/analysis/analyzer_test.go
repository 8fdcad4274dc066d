package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// splitImage is 75% red on the left and 25% blue on the right.
func splitImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 100; x++ {
			if x < 75 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

type fixture struct {
	dir      string
	store    *store.Store
	analyzer *Analyzer
	profile  *store.BrandProfile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "store.yml"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}

	profile, err := st.CreateProfile(store.ProfileInput{
		Name:      "Acme",
		Tolerance: 5,
		Colors: []store.BrandColor{
			{Name: "Red", Hex: "#FF0000"},
			{Name: "Blue", Hex: "#0000C8"},
		},
	})
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	a := New(nil, st, Options{Workers: 2})
	t.Cleanup(a.Close)

	return &fixture{dir: dir, store: st, analyzer: a, profile: profile}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	f := newFixture(t)
	path := writePNG(t, f.dir, "package.png", splitImage())

	result, err := f.analyzer.Analyze(context.Background(), Request{Path: path, ProfileID: f.profile.ID})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.FileName != "package.png" {
		t.Errorf("FileName: got %s", result.FileName)
	}
	if len(result.Comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(result.Comparisons))
	}

	red := result.Comparisons[0]
	if red.Sample.Hex != "#FF0000" || red.Closest.Name != "Red" || !red.IsWithinTolerance {
		t.Errorf("red comparison: %+v", red)
	}

	// 25% area gets the lenient 5.5 tolerance; #0000FF vs #0000C8 is ~7.02.
	blue := result.Comparisons[1]
	if blue.Closest.Name != "Blue" || blue.IsWithinTolerance {
		t.Errorf("blue comparison: %+v", blue)
	}

	if result.Passed != 1 || result.Compliance != 50 {
		t.Errorf("passed %d compliance %d, want 1 and 50", result.Passed, result.Compliance)
	}
	if result.Status != matcher.StatusNonCompliant {
		t.Errorf("Status: got %s", result.Status)
	}

	history := f.store.ListHistory(0)
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	if history[0].ID != result.ID || history[0].Compliance != 50 || history[0].ProfileName != "Acme" {
		t.Errorf("history record: %+v", history[0])
	}
}

func TestAnalyze_Base64(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, splitImage()); err != nil {
		t.Fatal(err)
	}

	result, err := f.analyzer.Analyze(context.Background(), Request{
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		ProfileID:   f.profile.ID,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.FileName != "upload.png" {
		t.Errorf("FileName: got %s", result.FileName)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	f := newFixture(t)
	path := writePNG(t, f.dir, "ok.png", splitImage())

	empty, err := f.store.CreateProfile(store.ProfileInput{Name: "Empty"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{"no profile", Request{Path: path}, ErrInvalidRequest},
		{"no image", Request{ProfileID: f.profile.ID}, ErrInvalidRequest},
		{"unknown profile", Request{Path: path, ProfileID: "missing"}, store.ErrNotFound},
		{"empty palette", Request{Path: path, ProfileID: empty.ID}, matcher.ErrInvalidArgument},
		{"missing file", Request{Path: filepath.Join(f.dir, "nope.png"), ProfileID: f.profile.ID}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.analyzer.Analyze(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Analyze should fail")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	if n := len(f.store.ListHistory(0)); n != 0 {
		t.Errorf("failed analyses should not be recorded, got %d records", n)
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	f := newFixture(t)
	path := writePNG(t, f.dir, "ok.png", splitImage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.analyzer.Analyze(ctx, Request{Path: path, ProfileID: f.profile.ID}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompare_PreservesOrder(t *testing.T) {
	f := newFixture(t)

	var samples []matcher.SampleColor
	for i := 0; i < 50; i++ {
		rgb := colorspace.RGBColor{R: uint8(i * 5), B: uint8(255 - i*5)}
		samples = append(samples, matcher.NewSampleColor(rgb, float64(i)))
	}

	results, err := f.analyzer.Compare(samples, f.profile)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(results) != len(samples) {
		t.Fatalf("expected %d results, got %d", len(samples), len(results))
	}
	for i, r := range results {
		if r.Sample != samples[i] {
			t.Fatalf("result %d is for %s, want %s", i, r.Sample.Hex, samples[i].Hex)
		}
		want, _ := matcher.Match(samples[i], []matcher.ReferenceColor{
			matcher.NewReferenceColor("Red", colorspace.RGBColor{R: 255}),
			matcher.NewReferenceColor("Blue", colorspace.RGBColor{B: 200}),
		}, 5)
		if r.Closest.Name != want.Closest.Name || r.DeltaE != want.DeltaE {
			t.Errorf("result %d: got %s %.4f, want %s %.4f", i, r.Closest.Name, r.DeltaE, want.Closest.Name, want.DeltaE)
		}
	}
}

func TestCompare_EmptyProfile(t *testing.T) {
	f := newFixture(t)
	empty := &store.BrandProfile{Name: "Empty", Tolerance: 3}

	_, err := f.analyzer.Compare([]matcher.SampleColor{matcher.NewSampleColor(colorspace.RGBColor{}, 10)}, empty)
	if !errors.Is(err, matcher.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCompare_CustomPolicy(t *testing.T) {
	dir := t.TempDir()
	st, _ := store.Open(filepath.Join(dir, "store.yml"))
	policy := matcher.Policy{AreaThreshold: 10, StrictFactor: 2, LenientFactor: 2}
	a := New(nil, st, Options{Workers: 1, Policy: &policy})
	defer a.Close()

	profile := &store.BrandProfile{Name: "Blue", Tolerance: 4, Colors: []store.BrandColor{{Name: "Blue", Hex: "#0000C8"}}}
	results, err := a.Compare([]matcher.SampleColor{matcher.NewSampleColor(colorspace.RGBColor{B: 255}, 50)}, profile)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if results[0].Tolerance != 8 || !results[0].IsWithinTolerance {
		t.Errorf("custom policy not applied: %+v", results[0])
	}
}

func TestAnalyzeBatch(t *testing.T) {
	f := newFixture(t)
	good := writePNG(t, f.dir, "good.png", splitImage())

	reqs := []Request{
		{Path: good, ProfileID: f.profile.ID},
		{Path: filepath.Join(f.dir, "missing.png"), ProfileID: f.profile.ID},
		{Path: good, ProfileID: f.profile.ID, FileName: "renamed.png"},
	}

	items := f.analyzer.AnalyzeBatch(context.Background(), reqs)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].Err != nil || items[0].Result == nil {
		t.Errorf("item 0 failed: %v", items[0].Err)
	}
	if items[1].Err == nil || items[1].Result != nil {
		t.Errorf("item 1 should fail, got %+v", items[1])
	}
	if items[2].Err != nil || items[2].Result.FileName != "renamed.png" {
		t.Errorf("item 2: %+v", items[2])
	}

	if n := len(f.store.ListHistory(0)); n != 2 {
		t.Errorf("expected 2 history records, got %d", n)
	}
}

func TestAnalyzeBatch_Cancelled(t *testing.T) {
	f := newFixture(t)
	good := writePNG(t, f.dir, "good.png", splitImage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := f.analyzer.AnalyzeBatch(ctx, []Request{
		{Path: good, ProfileID: f.profile.ID},
		{Path: good, ProfileID: f.profile.ID},
	})
	for i, item := range items {
		if !errors.Is(item.Err, context.Canceled) {
			t.Errorf("item %d: expected context.Canceled, got %v", i, item.Err)
		}
	}
}

func TestAnalyze_RequestExtractOverride(t *testing.T) {
	f := newFixture(t)
	path := writePNG(t, f.dir, "package.png", splitImage())

	// The red left half only.
	result, err := f.analyzer.Analyze(context.Background(), Request{
		Path:      path,
		ProfileID: f.profile.ID,
		Extract:   imaging.ExtractOptions{Region: &imaging.Region{X1: 0, Y1: 0, X2: 50, Y2: 20}},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Colors) != 1 || result.Colors[0].Hex != "#FF0000" || result.Colors[0].Percentage != 100 {
		t.Errorf("unexpected colors: %+v", result.Colors)
	}
	if result.Compliance != 100 || result.Status != matcher.StatusCompliant {
		t.Errorf("compliance %d status %s, want 100 and Compliant", result.Compliance, result.Status)
	}
}
