package stencil

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

// Helper represents a function callable from template text as {{name arg1 arg2}}.
//
// A helper receives its argument tokens exactly as written (quoted strings keep their
// quotes) and decides itself whether to resolve them against the context. Helpers
// must not modify the context or keep references to it after returning.
type Helper interface {
	// Call executes the helper with raw argument tokens
	Call(args []string, ctx *Context) string

	// Name returns the helper name
	Name() string

	// MinArgs returns the minimum number of arguments required
	MinArgs() int

	// MaxArgs returns the maximum number of arguments allowed (-1 for unlimited)
	MaxArgs() int
}

// HelperFunc is the function form of a helper body.
type HelperFunc func(args []string, ctx *Context) string

// SimpleHelper provides a basic implementation of Helper
type SimpleHelper struct {
	name    string
	minArgs int
	maxArgs int
	handler HelperFunc
}

// NewSimpleHelper wraps fn as a Helper with the given arity bounds.
func NewSimpleHelper(name string, minArgs, maxArgs int, fn HelperFunc) Helper {
	return &SimpleHelper{
		name:    name,
		minArgs: minArgs,
		maxArgs: maxArgs,
		handler: fn,
	}
}

func (h *SimpleHelper) Call(args []string, ctx *Context) string {
	return h.handler(args, ctx)
}

func (h *SimpleHelper) Name() string {
	return h.name
}

func (h *SimpleHelper) MinArgs() int {
	return h.minArgs
}

func (h *SimpleHelper) MaxArgs() int {
	return h.maxArgs
}

// checkArity validates the argument count of a helper invocation.
func checkArity(h Helper, args []string) error {
	argCount := len(args)
	if argCount < h.MinArgs() {
		return NewHelperError(h.Name(), args, fmt.Sprintf("requires at least %d arguments, got %d", h.MinArgs(), argCount))
	}
	if h.MaxArgs() >= 0 && argCount > h.MaxArgs() {
		return NewHelperError(h.Name(), args, fmt.Sprintf("accepts at most %d arguments, got %d", h.MaxArgs(), argCount))
	}
	return nil
}

// HelperRegistry maps helper names to helpers. Registration and lookup are safe
// for concurrent use.
type HelperRegistry struct {
	helpers map[string]Helper
	mutex   sync.RWMutex
}

// NewHelperRegistry creates an empty registry.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{
		helpers: make(map[string]Helper),
	}
}

// NewDefaultHelperRegistry creates a registry holding the built-in helpers. clock
// supplies the current time to the time-based helpers; nil means time.Now.
func NewDefaultHelperRegistry(clock func() time.Time) *HelperRegistry {
	if clock == nil {
		clock = time.Now
	}
	r := NewHelperRegistry()
	registerDateHelpers(r, clock)
	registerStringHelpers(r)
	registerMathHelpers(r)
	registerComparisonHelpers(r)
	registerListHelpers(r)
	registerFormatHelpers(r)
	return r
}

// Register adds a helper, replacing any helper of the same name.
func (r *HelperRegistry) Register(h Helper) error {
	if h == nil {
		return fmt.Errorf("helper cannot be nil")
	}
	name := h.Name()
	if name == "" {
		return fmt.Errorf("helper name cannot be empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.helpers[name] = h
	return nil
}

// mustRegister registers built-in helpers, whose names are known to be valid.
func (r *HelperRegistry) mustRegister(h Helper) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Lookup retrieves a helper by name.
func (r *HelperRegistry) Lookup(name string) (Helper, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	h, exists := r.helpers[name]
	return h, exists
}

// Names returns all registered helper names, sorted.
func (r *HelperRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// argString resolves a helper argument and formats it; unresolved arguments are
// empty.
func argString(arg string, ctx *Context) string {
	s, _ := ResolveString(arg, ctx)
	return s
}

// argNumber resolves a helper argument to a number.
func argNumber(arg string, ctx *Context) (float64, bool) {
	v, ok := Resolve(arg, ctx)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// argInt resolves a helper argument to an integer, using def when it is absent or
// not numeric. Values outside the int range saturate.
func argInt(args []string, i int, ctx *Context, def int) int {
	if i >= len(args) {
		return def
	}
	n, ok := argNumber(args[i], ctx)
	if !ok || math.IsNaN(n) {
		return def
	}
	switch {
	case n >= math.MaxInt:
		return math.MaxInt
	case n <= math.MinInt:
		return math.MinInt
	}
	return int(n)
}

// optionalArg returns the resolved text of args[i], or def when it is not given.
func optionalArg(args []string, i int, ctx *Context, def string) string {
	if i >= len(args) {
		return def
	}
	if s, ok := ResolveString(args[i], ctx); ok {
		return s
	}
	return def
}
