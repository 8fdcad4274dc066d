// Package analysis runs the brand compliance workflow: load an image, extract
// its dominant colors, match every color against a brand profile and record
// the outcome in the history.
package analysis

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// ErrInvalidRequest is returned when a request names no image or no profile.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Options configures an Analyzer. Zero values select defaults.
type Options struct {
	// Workers bounds concurrent matching and batch analysis (default NumCPU).
	Workers int

	// Policy is the area-weighted tolerance policy (default
	// matcher.DefaultPolicy).
	Policy *matcher.Policy

	// Extract holds the default extraction settings. Request values override
	// them field by field.
	Extract imaging.ExtractOptions
}

// Analyzer runs analyses against the profiles of a store.
type Analyzer struct {
	cache   *imaging.ImageCache
	store   *store.Store
	policy  matcher.Policy
	extract imaging.ExtractOptions

	// Matching tasks never wait on other tasks, so batch image tasks can block
	// on them without starving their own pool.
	matchPool *pond.WorkerPool
	imagePool *pond.WorkerPool
}

// New creates an Analyzer. Close must be called to release its workers.
func New(cache *imaging.ImageCache, st *store.Store, opts Options) *Analyzer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	policy := matcher.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	if cache == nil {
		cache = imaging.NewImageCache()
	}

	panicHandler := func(p interface{}) {
		log.Error().Interface("panic", p).Msg("analysis task panicked")
	}

	return &Analyzer{
		cache:     cache,
		store:     st,
		policy:    policy,
		extract:   opts.Extract,
		matchPool: pond.New(workers, 1000, pond.MinWorkers(workers), pond.PanicHandler(panicHandler)),
		imagePool: pond.New(workers, 1000, pond.PanicHandler(panicHandler)),
	}
}

// Close waits for running tasks and stops the worker pools.
func (a *Analyzer) Close() {
	a.imagePool.StopAndWait()
	a.matchPool.StopAndWait()
}

// Policy returns the tolerance policy in use.
func (a *Analyzer) Policy() matcher.Policy {
	return a.policy
}

// Compare matches every sample against the profile's colors. Results are in
// sample order.
//
// Returns an error wrapping matcher.ErrInvalidArgument, before any matching is
// done, if the profile has no colors.
func (a *Analyzer) Compare(samples []matcher.SampleColor, profile *store.BrandProfile) ([]matcher.ComparisonResult, error) {
	refs, err := profile.References()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("profile %q has no brand colors: %w", profile.Name, matcher.ErrInvalidArgument)
	}

	results := make([]matcher.ComparisonResult, len(samples))
	errs := make([]error, len(samples))

	group := a.matchPool.Group()
	for i := range samples {
		i := i
		group.Submit(func() {
			results[i], errs[i] = a.policy.Match(samples[i], refs, profile.Tolerance)
		})
	}
	group.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		r := results[i]
		log.Debug().
			Str("sample", r.Sample.Hex).
			Float64("area", r.Sample.AreaWeight).
			Str("closest", r.Closest.Name).
			Float64("delta_e", r.DeltaE).
			Float64("tolerance", r.Tolerance).
			Bool("pass", r.IsWithinTolerance).
			Msg("compared")
	}

	return results, nil
}

// Request describes one image to analyze. Exactly one of Path and ImageBase64
// should be set.
type Request struct {
	Path        string                 `json:"path,omitempty"`
	ImageBase64 string                 `json:"image_base64,omitempty"`
	FileName    string                 `json:"file_name,omitempty"`
	ProfileID   string                 `json:"profile_id"`
	Extract     imaging.ExtractOptions `json:"extract,omitempty"`
}

// Result is the complete outcome of one analysis.
type Result struct {
	ID          string                     `json:"id"`
	FileName    string                     `json:"file_name"`
	ProfileID   string                     `json:"profile_id"`
	ProfileName string                     `json:"profile_name"`
	Tolerance   float64                    `json:"tolerance"`
	Method      imaging.Method             `json:"method"`
	Colors      []imaging.ExtractedColor   `json:"extracted_colors"`
	Comparisons []matcher.ComparisonResult `json:"comparisons"`
	Passed      int                        `json:"passed"`
	Compliance  int                        `json:"overall_compliance"`
	Status      matcher.Status             `json:"status"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// Analyze runs the full workflow for one image and appends the outcome to the
// store's history.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ProfileID == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "profile_id is required")
	}

	profile, err := a.store.GetProfile(req.ProfileID)
	if err != nil {
		return nil, err
	}

	img, fileName, err := a.loadImage(req)
	if err != nil {
		return nil, err
	}

	opts := a.extract.Merge(req.Extract)
	extracted, err := imaging.ExtractColors(img, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to extract colors from %s", fileName)
	}

	comparisons, err := a.Compare(extracted.Samples(), profile)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	passed := 0
	for _, c := range comparisons {
		if c.IsWithinTolerance {
			passed++
		}
	}
	compliance := matcher.Compliance(comparisons)
	status := matcher.StatusFor(compliance)

	rec, err := a.store.AddRecord(store.AnalysisRecord{
		FileName:    fileName,
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
		Compliance:  compliance,
		Status:      status,
		ColorCount:  len(comparisons),
		Passed:      passed,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to record analysis")
	}

	log.Info().
		Str("file", fileName).
		Str("profile", profile.Name).
		Int("colors", len(comparisons)).
		Int("passed", passed).
		Int("compliance", compliance).
		Str("status", string(status)).
		Msg("analysis complete")

	return &Result{
		ID:          rec.ID,
		FileName:    fileName,
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
		Tolerance:   profile.Tolerance,
		Method:      extracted.Method,
		Colors:      extracted.Colors,
		Comparisons: comparisons,
		Passed:      passed,
		Compliance:  compliance,
		Status:      status,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// BatchItem pairs a batch request with its result or error.
type BatchItem struct {
	Request Request `json:"request"`
	Result  *Result `json:"result,omitempty"`
	Err     error   `json:"-"`
}

// AnalyzeBatch analyzes several images concurrently. Items are returned in
// request order; a failed image does not stop the others. Once ctx is done no
// further images are started and the remaining items carry ctx's error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request) []BatchItem {
	items := make([]BatchItem, len(reqs))
	for i, req := range reqs {
		items[i].Request = req
	}

	group, gctx := a.imagePool.GroupContext(ctx)
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(reqs); j++ {
				items[j].Err = err
			}
			break
		}

		i := i
		group.Submit(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = a.Analyze(gctx, reqs[i])
			if items[i].Err != nil {
				log.Warn().Err(items[i].Err).Str("file", reqs[i].FileName).Str("path", reqs[i].Path).Msg("batch item failed")
			}
			return nil
		})
	}
	_ = group.Wait()

	return items
}

func (a *Analyzer) loadImage(req Request) (image.Image, string, error) {
	switch {
	case req.Path != "":
		img, err := a.cache.Load(req.Path)
		if err != nil {
			return nil, "", errors.Wrapf(err, "unable to load %s", req.Path)
		}
		name := req.FileName
		if name == "" {
			name = filepath.Base(req.Path)
		}
		return img, name, nil

	case req.ImageBase64 != "":
		img, format, err := imaging.DecodeBase64(req.ImageBase64)
		if err != nil {
			return nil, "", errors.Wrap(err, "unable to decode uploaded image")
		}
		name := req.FileName
		if name == "" {
			name = "upload." + format
		}
		return img, name, nil
	}

	return nil, "", errors.Wrap(ErrInvalidRequest, "path or image_base64 is required")
}
