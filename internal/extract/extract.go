// Package extract recovers an embedded identity payload from an arbitrary
// capture. It orchestrates geometry correction, ROI enhancement, and an
// ordered chain of decode strategies, returning the first structurally valid
// candidate from the highest-priority strategy that clears the adaptive
// confidence threshold.
package extract

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/screenmark/internal/common"
	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/enhance"
	"github.com/MeKo-Tech/screenmark/internal/geometry"
	"github.com/MeKo-Tech/screenmark/internal/mcode"
	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// ErrDecodeNotFound indicates the full strategy chain was exhausted without
// a valid payload. It means "no watermark present", not a failure.
var ErrDecodeNotFound = errors.New("no watermark payload found")

// Result is the outcome of a successful extraction.
type Result struct {
	Payload    string
	Confidence float64
	Method     string
}

// Config holds the extraction tunables.
type Config struct {
	// ConfidenceThreshold is the base acceptance threshold, scaled per
	// capture by the adaptive multiplier.
	ConfidenceThreshold float64

	// ScreenDetection enables geometry correction for photographed screens.
	ScreenDetection bool

	// SimpleMode restricts the chain to the fast direct-decode strategies
	// for trusted digital screenshots.
	SimpleMode bool

	// MaxWorkers fans strategy-internal region work out over a worker
	// pool. Values <= 1 run the deterministic sequential order.
	MaxWorkers int

	// PresenceVarianceFloor is the minimum channel variance for a capture
	// to be considered as possibly carrying a payload.
	PresenceVarianceFloor float64

	// Placement mirrors the embedder's stamp placement.
	Placement embed.StampPlacement

	// Enhance configures the ROI enhancement pipelines.
	Enhance enhance.Config

	// Spread and Frequency mirror the embedding parameters so the decode
	// side regenerates the same carriers.
	Spread    embed.SpreadConfig
	Frequency embed.FrequencyConfig

	// Geometry configures the screen detector.
	Geometry geometry.Config

	// FinderTolerance is the minimum structural agreement for stamp
	// validation.
	FinderTolerance float64
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:   0.35,
		ScreenDetection:       true,
		SimpleMode:            false,
		MaxWorkers:            1,
		PresenceVarianceFloor: 0.004,
		Placement:             embed.DefaultStampPlacement(),
		Enhance:               enhance.DefaultConfig(),
		Spread:                embed.DefaultSpreadConfig(),
		Frequency:             embed.DefaultFrequencyConfig(),
		Geometry:              geometry.DefaultConfig(),
		FinderTolerance:       0.8,
	}
}

// Engine runs the extraction chain.
type Engine struct {
	cfg       Config
	reader    mcode.Backend
	corrector *geometry.Corrector
	enhancer  *enhance.Enhancer
}

// NewEngine creates an engine. reader may be nil (the reader strategy is
// skipped); detector may be nil (the external geometry strategy is skipped).
func NewEngine(cfg Config, reader mcode.Backend, detector geometry.RectangleDetector) *Engine {
	if cfg.ConfidenceThreshold <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Placement.ModuleSize <= 0 {
		cfg.Placement = embed.DefaultStampPlacement()
	}
	return &Engine{
		cfg:       cfg,
		reader:    reader,
		corrector: geometry.NewCorrector(cfg.Geometry, detector),
		enhancer:  enhance.NewEnhancer(cfg.Enhance),
	}
}

// capture is the per-extraction state shared by strategies.
type capture struct {
	buf       *pixel.Buffer // rectified (or original) buffer
	luma      []uint8
	threshold float64 // effective confidence threshold for this capture
}

// candidate is one strategy outcome before validation.
type candidate struct {
	value      string
	confidence float64
}

// strategyFunc attempts one decode approach; ok is false when the strategy
// produced nothing.
type strategyFunc func(*capture) (candidate, bool)

type strategy struct {
	name   string
	simple bool // included in simple mode
	run    strategyFunc
}

// Extract runs the chain and returns the first valid result in priority
// order. Chain exhaustion yields ErrDecodeNotFound.
func (e *Engine) Extract(buf *pixel.Buffer) (Result, error) {
	timer := common.NewNamedTimer("extract")
	defer func() { slog.Debug("extraction finished", "elapsed", timer.Stop()) }()

	if buf.Empty() {
		return Result{}, fmt.Errorf("empty capture: %w", ErrDecodeNotFound)
	}
	if !e.payloadPresent(buf) {
		return Result{}, fmt.Errorf("capture carries no payload signal: %w", ErrDecodeNotFound)
	}

	work := buf
	if e.cfg.ScreenDetection && !e.cfg.SimpleMode {
		rectified, applied := e.corrector.Correct(buf)
		if applied {
			work = rectified
		}
	}

	shot := &capture{
		buf:       work,
		luma:      work.Luminance(),
		threshold: e.effectiveThreshold(work),
	}

	chain := e.chain()
	if e.cfg.MaxWorkers > 1 {
		return e.runParallel(shot, chain)
	}
	return e.runSequential(shot, chain)
}

// chain returns the strategies in priority order. Earlier entries are more
// specific and intentionally preempt later ones.
func (e *Engine) chain() []strategy {
	return []strategy{
		{name: "roi-reader", simple: false, run: e.decodeROIReader},
		{name: "overlay-scan", simple: false, run: e.decodeOverlayScan},
		{name: "quadrant-lsb", simple: true, run: e.decodeQuadrantLSB},
		{name: "stamp-sampling", simple: true, run: e.decodeStampSampling},
		{name: "frequency", simple: true, run: e.decodeFrequency},
		{name: "spread-correlation", simple: false, run: e.decodeSpreadCorrelation},
	}
}

func (e *Engine) runSequential(shot *capture, chain []strategy) (Result, error) {
	stages := common.NewStageRecorder()
	defer func() { slog.Debug("strategy timings", "stages", stages.String()) }()

	for _, s := range chain {
		if e.cfg.SimpleMode && !s.simple {
			continue
		}
		var (
			cand candidate
			ok   bool
		)
		stages.Time(s.name, func() { cand, ok = s.run(shot) })
		if !ok {
			continue
		}
		if res, accepted := e.accept(cand, s.name, shot.threshold); accepted {
			return res, nil
		}
	}
	return Result{}, ErrDecodeNotFound
}

// accept applies structural validation and the adaptive threshold.
func (e *Engine) accept(cand candidate, method string, threshold float64) (Result, bool) {
	if !payload.StructurallyValid(cand.value) {
		slog.Debug("candidate rejected structurally", "method", method, "length", len(cand.value))
		return Result{}, false
	}
	if cand.confidence < threshold {
		slog.Debug("candidate below threshold", "method", method,
			"confidence", cand.confidence, "threshold", threshold)
		return Result{}, false
	}
	return Result{Payload: cand.value, Confidence: cand.confidence, Method: method}, true
}

// payloadPresent is the cheap strategy-zero check: a capture whose channels
// are essentially constant cannot carry payload bits (marker-only overlays
// and blank buffers). The blue channel is checked alongside luminance since
// the steganographic schemes may live entirely in blue LSBs that barely move
// luma.
func (e *Engine) payloadPresent(buf *pixel.Buffer) bool {
	floor := e.cfg.PresenceVarianceFloor
	if floor <= 0 {
		return true
	}
	_, lumaVar := pixel.MeanVariance(buf.Luminance())
	if lumaVar >= floor {
		return true
	}
	_, blueVar := pixel.MeanVariance(buf.Channel(pixel.ChannelB))
	return blueVar >= floor
}
