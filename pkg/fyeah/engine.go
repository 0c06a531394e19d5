package fyeah

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/fyeah-lang/fyeah/internal/compiler/cache"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/parser"
	"github.com/fyeah-lang/fyeah/internal/compiler/scanner"
	"github.com/fyeah-lang/fyeah/internal/evaluator"
)

const (
	// DefaultMaxLength is the longest template source accepted, in bytes
	DefaultMaxLength = math.MaxInt32
	// DefaultCacheSize keeps every parsed template
	DefaultCacheSize = 0
	// DefaultMaxDepth bounds nested brackets, format specs and f-strings
	DefaultMaxDepth = scanner.DefaultMaxDepth
)

// CacheStats is a snapshot of an engine's template cache counters
type CacheStats = cache.Stats

// Engine parses, caches and renders templates. It is safe for concurrent use.
type Engine struct {
	cacheSize int
	maxLength int
	maxDepth  int
	locale    language.Tag
	logger    *zap.Logger

	cache     *cache.TemplateCache
	evaluator *evaluator.Evaluator
}

// Option configures an Engine
type Option func(*Engine)

// WithCacheSize bounds the template cache; zero or less keeps every template
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		e.cacheSize = size
	}
}

// WithMaxLength rejects template sources longer than n bytes. Values outside
// (0, DefaultMaxLength] use DefaultMaxLength.
func WithMaxLength(n int) Option {
	return func(e *Engine) {
		if n <= 0 || n > DefaultMaxLength {
			n = DefaultMaxLength
		}
		e.maxLength = n
	}
}

// WithMaxDepth bounds nesting while parsing and evaluating
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth <= 0 {
			depth = DefaultMaxDepth
		}
		e.maxDepth = depth
	}
}

// WithLocale selects the separators used by the 'n' format type
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) {
		e.locale = tag
	}
}

// WithLogger sets the logger for cache and render diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = zap.NewNop()
		}
		e.logger = logger
	}
}

// NewEngine creates an Engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cacheSize: DefaultCacheSize,
		maxLength: DefaultMaxLength,
		maxDepth:  DefaultMaxDepth,
		locale:    language.Und,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.cache = cache.New(e.cacheSize).WithParseOptions(parser.Options{MaxDepth: e.maxDepth})
	e.evaluator = evaluator.New(evaluator.Options{MaxDepth: e.maxDepth, Locale: e.locale})
	return e
}

// Compile parses source, or returns the cached parse of an identical source
func (e *Engine) Compile(source string) (*Template, error) {
	if len(source) > e.maxLength {
		err := errors.NewTemplateTooLong(len(source), e.maxLength)
		e.logger.Debug("template rejected",
			zap.Int("length", len(source)),
			zap.Int("max_length", e.maxLength))
		return nil, err
	}

	tpl, hit, err := e.cache.Fetch(source)
	if err != nil {
		if structured, ok := errors.As(err); ok && structured.Context == nil {
			structured.WithSource(source)
		}
		e.logger.Debug("parse failed",
			zap.String("source", source),
			zap.Error(err))
		return nil, err
	}
	if hit {
		e.logger.Debug("template cache hit", zap.Int("length", len(source)))
	} else {
		e.logger.Debug("template cache miss",
			zap.Int("length", len(source)),
			zap.Int("sites", len(tpl.Interpolations())))
	}
	return &Template{tpl: tpl, engine: e}, nil
}

// F compiles source and renders it against env
func (e *Engine) F(source string, env Environment) (string, error) {
	t, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return t.Render(env)
}

// T compiles source and evaluates its interpolations against env without
// converting or formatting them
func (e *Engine) T(source string, env Environment) (*Interpolated, error) {
	t, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return t.Interpolate(env)
}

// Stats returns the template cache counters
func (e *Engine) Stats() CacheStats {
	return e.cache.Stats()
}

// Purge empties the template cache
func (e *Engine) Purge() {
	e.cache.Purge()
}

// trace starts a debug span for one render. The returned func logs the outcome.
func (e *Engine) trace(op string, t *Template) func(err error) {
	if !e.logger.Core().Enabled(zapcore.DebugLevel) {
		return func(error) {}
	}

	logger := e.logger.With(
		zap.String("render_id", uuid.NewString()),
		zap.String("op", op),
	)
	start := time.Now()
	return func(err error) {
		if err != nil {
			logger.Debug("render failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("sites", len(t.tpl.Interpolations())),
				zap.Error(err))
			return
		}
		logger.Debug("render complete",
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("sites", len(t.tpl.Interpolations())))
	}
}
