// Package embed writes an identity payload into a pixel buffer. Five schemes
// are available; each is a pure function from buffer and payload to a new
// buffer, and the hybrid composition layers the robust ones.
package embed

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// ErrBufferTooSmall indicates a buffer without enough capacity for the
// requested scheme. Hybrid composition treats this as skippable.
var ErrBufferTooSmall = errors.New("buffer too small for embedding scheme")

// ErrNoSchemeApplied indicates that every scheme in a hybrid composition
// failed.
var ErrNoSchemeApplied = errors.New("no embedding scheme could be applied")

// Scheme identifies an embedding scheme.
type Scheme int

const (
	SchemeLSB Scheme = iota
	SchemeRegional
	SchemeSpread
	SchemeFrequency
	SchemeStamp
)

// String returns the scheme name used in logs and results.
func (s Scheme) String() string {
	switch s {
	case SchemeLSB:
		return "lsb"
	case SchemeRegional:
		return "regional"
	case SchemeSpread:
		return "spread"
	case SchemeFrequency:
		return "frequency"
	case SchemeStamp:
		return "stamp"
	default:
		return "unknown"
	}
}

// Config collects per-scheme tunables.
type Config struct {
	Stamp     StampConfig
	Spread    SpreadConfig
	Frequency FrequencyConfig

	// Opacity (1-255) blends stamp modules toward the background; 255 paints
	// them opaque.
	Opacity uint8

	// Luminous selects the bright stamp palette for dark UI themes.
	Luminous bool

	// WithSpread adds the spread-spectrum layer to hybrid composition.
	WithSpread bool
}

// DefaultConfig returns the scheme defaults.
func DefaultConfig() Config {
	return Config{
		Stamp:     DefaultStampConfig(),
		Spread:    DefaultSpreadConfig(),
		Frequency: DefaultFrequencyConfig(),
		Opacity:   255,
		Luminous:  false,
	}
}

// Engine applies embedding schemes configured once at construction.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, sanitizing the configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.Opacity == 0 {
		cfg.Opacity = 255
	}
	if cfg.Stamp.Placement.ModuleSize <= 0 {
		cfg.Stamp = DefaultStampConfig()
	}
	return &Engine{cfg: cfg}
}

// Embed applies a single scheme and returns a new buffer.
func (e *Engine) Embed(buf *pixel.Buffer, p payload.Payload, scheme Scheme) (*pixel.Buffer, error) {
	if buf.Empty() {
		return nil, fmt.Errorf("scheme %s: %w", scheme, ErrBufferTooSmall)
	}
	wire := p.String()
	switch scheme {
	case SchemeLSB:
		return EmbedLSB(buf, wire)
	case SchemeRegional:
		return EmbedRegional(buf, wire)
	case SchemeSpread:
		return EmbedSpread(buf, wire, e.cfg.Spread)
	case SchemeFrequency:
		return EmbedFrequency(buf, wire, e.cfg.Frequency)
	case SchemeStamp:
		return EmbedStamp(buf, wire, e.stampConfig())
	default:
		return nil, fmt.Errorf("unknown scheme %d", scheme)
	}
}

// EmbedHybrid layers the robust schemes: regional-redundant, then the
// pattern stamp, then (optionally) spread-spectrum. A failing scheme is
// skipped; the composition fails only when every scheme does.
func (e *Engine) EmbedHybrid(buf *pixel.Buffer, p payload.Payload) (*pixel.Buffer, error) {
	if buf.Empty() {
		return nil, ErrBufferTooSmall
	}
	wire := p.String()
	out := buf
	applied := 0

	schemes := []struct {
		name  Scheme
		apply func(*pixel.Buffer) (*pixel.Buffer, error)
	}{
		{SchemeRegional, func(b *pixel.Buffer) (*pixel.Buffer, error) { return EmbedRegional(b, wire) }},
		{SchemeStamp, func(b *pixel.Buffer) (*pixel.Buffer, error) { return EmbedStamp(b, wire, e.stampConfig()) }},
	}
	if e.cfg.WithSpread {
		schemes = append(schemes, struct {
			name  Scheme
			apply func(*pixel.Buffer) (*pixel.Buffer, error)
		}{SchemeSpread, func(b *pixel.Buffer) (*pixel.Buffer, error) { return EmbedSpread(b, wire, e.cfg.Spread) }})
	}

	for _, s := range schemes {
		next, err := s.apply(out)
		if err != nil {
			slog.Debug("embedding scheme skipped", "scheme", s.name.String(), "error", err)
			continue
		}
		out = next
		applied++
	}
	if applied == 0 {
		return nil, ErrNoSchemeApplied
	}
	return out, nil
}

func (e *Engine) stampConfig() StampConfig {
	cfg := e.cfg.Stamp
	cfg.Opacity = e.cfg.Opacity
	if e.cfg.Luminous {
		cfg.High = luminousHigh
		cfg.Low = luminousLow
	}
	return cfg
}
