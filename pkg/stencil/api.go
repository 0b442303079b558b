package stencil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InlineTemplateID is the identifier reported for templates rendered with
// RenderString.
const InlineTemplateID = "inline"

// Engine provides the main API for registering and rendering templates.
// Use New() to create an engine; engines are safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	clock    func() time.Time
	store    *TemplateStore
	helpers  *HelperRegistry
	themes   *ThemeSet
	messages *MessageCatalog
	renderer *Renderer
	history  *renderHistory

	extraHelpers []Helper
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration. Unset fields
// take their default values.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithLogger returns an option that sets the logger. Engines log nothing by
// default.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock returns an option that sets the time source used for timestamps and
// the now helper.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithHelper returns an option that registers a custom helper, replacing a
// built-in helper of the same name.
func WithHelper(h Helper) Option {
	return func(e *Engine) {
		e.extraHelpers = append(e.extraHelpers, h)
	}
}

// WithThemes returns an option that sets the theme palettes.
func WithThemes(themes *ThemeSet) Option {
	return func(e *Engine) {
		e.themes = themes
	}
}

// WithMessages returns an option that sets the localization tables.
func WithMessages(messages *MessageCatalog) Option {
	return func(e *Engine) {
		e.messages = messages
	}
}

// WithStore returns an option that sets the template store, e.g. to share one
// store between engines.
func WithStore(store *TemplateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// New creates a new engine with the specified options.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: zerolog.Nop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.config = NewConfigWithDefaults(e.config)
	e.helpers = NewDefaultHelperRegistry(e.clock)
	for _, h := range e.extraHelpers {
		if err := e.helpers.Register(h); err != nil {
			e.logger.Warn().Err(err).Msg("Skipping invalid helper")
		}
	}
	if e.store == nil {
		e.store = NewTemplateStore(e.config.StoreCapacity)
	}
	if e.themes == nil {
		e.themes = NewThemeSet()
	}
	if e.messages == nil {
		e.messages = NewMessageCatalog()
	}
	e.renderer = NewRenderer(e.helpers, e.config.MaxRenderDepth)
	e.history = newRenderHistory(e.config.HistorySize)

	return e
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return *e.config
}

// Register parses content and stores it under id.
func (e *Engine) Register(id, content string, opts ...TemplateOption) (*Template, error) {
	now := e.clock()
	t, err := NewTemplate(id, content, append([]TemplateOption{WithTimestamps(now, now)}, opts...)...)
	if err != nil {
		return nil, err
	}
	e.put(t)
	return t, nil
}

// RegisterTemplate stores an already built template.
func (e *Engine) RegisterTemplate(t *Template) error {
	if t == nil {
		return errors.New("template cannot be nil")
	}
	e.put(t)
	return nil
}

func (e *Engine) put(t *Template) {
	if evicted, ok := e.store.Put(t); ok {
		e.logger.Debug().
			Str("template", t.ID).
			Str("evicted", evicted).
			Msg("Template store full, evicted oldest entry")
	}
	e.logger.Debug().
		Str("template", t.ID).
		Str("parent", t.Parent).
		Int("blocks", len(t.blocks)).
		Msg("Template registered")
}

// RegisterHelper adds a helper after construction.
func (e *Engine) RegisterHelper(h Helper) error {
	return e.helpers.Register(h)
}

// Template returns the registered template with the given identifier.
func (e *Engine) Template(id string) (*Template, bool) {
	return e.store.Get(id)
}

// Templates returns the registered identifiers, oldest first.
func (e *Engine) Templates() []string {
	return e.store.IDs()
}

// Remove deletes a registered template.
func (e *Engine) Remove(id string) bool {
	return e.store.Remove(id)
}

// Helpers returns the names of the registered helpers, sorted.
func (e *Engine) Helpers() []string {
	return e.helpers.Names()
}

// History returns the most recent render results, oldest first.
func (e *Engine) History() []RenderResult {
	return e.history.snapshot()
}

// Render renders the registered template id with ctx. It never panics and never
// returns nil: failures are reported through the result.
func (e *Engine) Render(id string, ctx *Context) *RenderResult {
	return e.renderID(id, ctx, "")
}

func (e *Engine) renderID(id string, ctx *Context, outputPath string) *RenderResult {
	t, ok := e.store.Get(id)
	if !ok {
		result := newRenderResult(id, e.clock())
		result.fail(&TemplateNotFoundError{ID: id})
		e.finish(result, time.Now())
		return result
	}
	return e.render(t, ctx, outputPath)
}

// RenderString renders content without registering it. Its parent, if any, is
// looked up among the registered templates.
func (e *Engine) RenderString(content string, ctx *Context) *RenderResult {
	now := e.clock()
	t, err := NewTemplate(InlineTemplateID, content, WithTimestamps(now, now))
	if err != nil {
		result := newRenderResult(InlineTemplateID, now)
		result.fail(err)
		e.finish(result, time.Now())
		return result
	}
	return e.render(t, ctx, "")
}

// RenderToFile renders id and writes the output to path, creating parent
// directories. A write failure makes the render fail.
func (e *Engine) RenderToFile(id string, ctx *Context, path string) *RenderResult {
	return e.renderID(id, ctx, path)
}

func writeOutput(path, output string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// render produces the result for t and, when outputPath is set, writes the
// output there. The result is recorded in the history once complete.
func (e *Engine) render(t *Template, ctx *Context, outputPath string) (result *RenderResult) {
	start := time.Now()
	result = newRenderResult(t.ID, e.clock())

	logger := e.logger.With().
		Str("template", t.ID).
		Str("render_id", result.RenderID).
		Logger()
	logger.Debug().Msg("Rendering template")

	defer func() {
		if r := recover(); r != nil {
			result.fail(RecoverError(r))
		}
		e.finish(result, start)
	}()

	if ctx == nil {
		ctx = NewContext(nil)
	}
	theme := ctx.Theme
	if theme == "" {
		theme = e.config.DefaultTheme
	}
	locale := ctx.Locale
	if locale == "" {
		locale = e.config.DefaultLocale
	}
	ctx = ctx.WithTheme(e.themes.Resolve(theme)).WithLocale(locale)

	w := &warnings{}
	localize := func(text string) string {
		out, missing := e.themes.Apply(text, theme)
		for _, key := range missing {
			w.add("unknown theme key %q in theme %q", key, ctx.Theme)
		}
		out, missing = e.messages.Apply(out, locale)
		for _, key := range missing {
			w.add("unknown message key %q for locale %q", key, e.messages.Resolve(locale))
		}
		return out
	}

	merged, err := NewInheritanceResolver(e.store.Get, e.config.MaxRenderDepth, localize).Resolve(t)
	if err != nil {
		result.fail(err)
		return result
	}

	output, renderWarnings := e.renderer.Render(merged, ctx)
	for _, msg := range renderWarnings {
		w.add("%s", msg)
	}
	result.Warnings = w.list

	if e.config.StrictMode && len(result.Warnings) > 0 {
		merr := NewMultiError()
		for _, msg := range result.Warnings {
			merr.Add(NewTemplateError("strict mode: "+msg, 0, 0))
		}
		result.fail(merr.Err())
		return result
	}

	if outputPath != "" {
		if err := writeOutput(outputPath, output); err != nil {
			logger.Warn().Err(err).Str("path", outputPath).Msg("Failed to write rendered output")
			result.fail(err)
			return result
		}
		result.OutputPath = outputPath
	}

	result.succeed(output)
	return result
}

func (e *Engine) finish(result *RenderResult, start time.Time) {
	result.Duration = time.Since(start)
	e.history.record(result)

	if !result.Success {
		e.logger.Warn().
			Str("template", result.TemplateID).
			Str("render_id", result.RenderID).
			Strs("errors", result.Errors).
			Msg("Render failed")
		return
	}
	e.logger.Debug().
		Str("template", result.TemplateID).
		Str("render_id", result.RenderID).
		Dur("duration", result.Duration).
		Int("warnings", len(result.Warnings)).
		Msg("Template rendered")
}

// Validate checks the registered template id.
func (e *Engine) Validate(id string) (*ValidationReport, error) {
	t, ok := e.store.Get(id)
	if !ok {
		return nil, &TemplateNotFoundError{ID: id}
	}
	return ValidateWithOptions(t.Content, ValidateOptions{TemplateID: id, Helpers: e.helpers})
}

// ValidateContent checks template text against the engine's helpers.
func (e *Engine) ValidateContent(content string) *ValidationReport {
	report, _ := ValidateWithOptions(content, ValidateOptions{Helpers: e.helpers})
	return report
}

// ValidateFile reads and checks a template file without registering it.
func (e *Engine) ValidateFile(path string, maxIssues int) (*ValidationReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ValidateWithOptions(string(content), ValidateOptions{
		TemplateID: TemplateIDFromPath(path),
		MaxIssues:  maxIssues,
		Helpers:    e.helpers,
	})
}

// TemplateIDFromPath derives a template identifier from a file name by dropping
// the directory and extensions: templates/base.html.tmpl becomes "base".
func TemplateIDFromPath(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{".tmpl", ".tpl"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// LoadFile reads a template file and registers it under TemplateIDFromPath.
func (e *Engine) LoadFile(path string) (*Template, error) {
	t, err := readTemplateFile(path)
	if err != nil {
		return nil, err
	}
	e.put(t)
	return t, nil
}

func readTemplateFile(path string) (*Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return NewTemplate(
		TemplateIDFromPath(path),
		string(content),
		WithName(filepath.Base(path)),
		WithContentType(ContentTypeFromPath(path)),
		WithTimestamps(info.ModTime(), info.ModTime()),
	)
}

// LoadGlob registers every file matching a doublestar pattern such as
// "templates/**/*.html". Files are read concurrently and registered in path
// order; any read error aborts before anything is registered.
func (e *Engine) LoadGlob(pattern string) ([]*Template, error) {
	done := LogOperationStart(e.logger, "load templates")
	defer done()

	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid template pattern %q: %w", pattern, err)
	}
	slices.Sort(paths)

	templates := make([]*Template, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			t, err := readTemplateFile(path)
			if err != nil {
				return err
			}
			templates[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, t := range templates {
		e.put(t)
	}
	return templates, nil
}
