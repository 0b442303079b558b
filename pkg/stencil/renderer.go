package stencil

import (
	"fmt"
	"strings"
)

// Renderer evaluates directive text against a context.
//
// Each nesting level runs four passes over its node list: conditionals are
// decided, loops are expanded (every iteration recursively running all four
// passes with its own child context), helpers are invoked and finally
// variables are substituted. Nothing in a render is fatal; problems degrade to
// literal text or empty output and are reported as warnings.
type Renderer struct {
	helpers  *HelperRegistry
	maxDepth int
}

// NewRenderer creates a renderer using helpers. maxDepth bounds loop nesting;
// zero or less means unbounded.
func NewRenderer(helpers *HelperRegistry, maxDepth int) *Renderer {
	if helpers == nil {
		helpers = NewHelperRegistry()
	}
	return &Renderer{helpers: helpers, maxDepth: maxDepth}
}

// Render parses input and renders it with ctx. The warnings include parse
// warnings, each distinct message reported once.
func (r *Renderer) Render(input string, ctx *Context) (string, []string) {
	if ctx == nil {
		ctx = NewContext(nil)
	}

	w := &warnings{}
	nodes, parseWarnings := Parse(input)
	for _, msg := range parseWarnings {
		w.add("%s", msg)
	}

	output := r.renderNodes(nodes, ctx, w)
	return output, w.list
}

// RenderNodes renders an already parsed node list.
func (r *Renderer) RenderNodes(nodes []Node, ctx *Context) (string, []string) {
	if ctx == nil {
		ctx = NewContext(nil)
	}
	w := &warnings{}
	return r.renderNodes(nodes, ctx, w), w.list
}

type warnings struct {
	list []string
	seen map[string]bool
}

func (w *warnings) add(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
}

func (r *Renderer) renderNodes(nodes []Node, ctx *Context, w *warnings) string {
	nodes = r.conditionalPass(nodes, ctx, w)
	nodes = r.loopPass(nodes, ctx, w)
	nodes = r.helperPass(nodes, ctx, w)
	return r.variablePass(nodes, ctx, w)
}

// conditionalPass replaces each conditional by its chosen branch. Block
// declarations are replaced by their body and extends directives are dropped,
// so the result holds only text, variables, helpers and loops.
func (r *Renderer) conditionalPass(nodes []Node, ctx *Context, w *warnings) []Node {
	out := make([]Node, 0, len(nodes))

	for _, node := range nodes {
		switch n := node.(type) {
		case *ConditionalNode:
			branch := n.Else
			if r.evalCondition(n, ctx, w) {
				branch = n.Then
			}
			out = append(out, r.conditionalPass(branch, ctx, w)...)

		case *BlockDeclNode:
			out = append(out, r.conditionalPass(n.Body, ctx, w)...)

		case *ExtendsNode:
			// Inheritance is resolved before rendering.

		case *ThemeTokenNode, *I18nTokenNode, *BlockRefNode:
			out = append(out, &TextNode{Content: n.Source()})

		default:
			out = append(out, node)
		}
	}

	return out
}

func (r *Renderer) evalCondition(n *ConditionalNode, ctx *Context, w *warnings) bool {
	result := r.evalExpression(n.Condition, ctx, w)
	if n.Negate {
		return !result
	}
	return result
}

func (r *Renderer) evalExpression(c Condition, ctx *Context, w *warnings) bool {
	if c.Err != nil {
		w.add("condition %q: %v", c.Left, NewEvaluationError(c.String(), c.Err))
		return false
	}

	left, ok := Resolve(c.Left, ctx)
	if !ok {
		w.add("condition %q: unresolved operand %q", c.String(), c.Left)
		return false
	}

	if c.Operator == "" {
		return IsTruthy(left, true)
	}

	right, ok := Resolve(c.Right, ctx)
	if !ok {
		w.add("condition %q: unresolved operand %q", c.String(), c.Right)
		return false
	}

	equal := valuesEqual(left, right)
	if c.Operator == "!=" {
		return !equal
	}
	return equal
}

// loopPass expands each loop into the concatenated output of its iterations.
func (r *Renderer) loopPass(nodes []Node, ctx *Context, w *warnings) []Node {
	out := make([]Node, 0, len(nodes))

	for _, node := range nodes {
		loop, ok := node.(*LoopNode)
		if !ok {
			out = append(out, node)
			continue
		}
		out = append(out, &TextNode{Content: r.expandLoop(loop, ctx, w)})
	}

	return out
}

func (r *Renderer) expandLoop(loop *LoopNode, ctx *Context, w *warnings) string {
	if r.maxDepth > 0 && ctx.Depth() >= r.maxDepth {
		w.add("each %q: nesting exceeds maximum depth %d", loop.Target, r.maxDepth)
		return ""
	}

	value, ok := Resolve(loop.Target, ctx)
	if !ok {
		w.add("each %q: list not found", loop.Target)
		return ""
	}
	items, ok := asList(value)
	if !ok {
		w.add("each %q: value is not a list", loop.Target)
		return ""
	}

	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(r.renderNodes(loop.Body, ctx.child(item, i, len(items)), w))
	}
	return sb.String()
}

// helperPass replaces each helper invocation by its output.
func (r *Renderer) helperPass(nodes []Node, ctx *Context, w *warnings) []Node {
	out := make([]Node, 0, len(nodes))

	for _, node := range nodes {
		call, ok := node.(*HelperNode)
		if !ok {
			out = append(out, node)
			continue
		}

		helper, found := r.helpers.Lookup(call.Name)
		if !found {
			w.add("unknown helper %q in %s", call.Name, call.Raw)
			out = append(out, &TextNode{Content: call.Raw})
			continue
		}

		out = append(out, &TextNode{Content: r.callHelper(helper, call.Args, call.Raw, ctx, w)})
	}

	return out
}

func (r *Renderer) callHelper(h Helper, args []string, raw string, ctx *Context, w *warnings) string {
	if err := checkArity(h, args); err != nil {
		w.add("%s: %v", raw, err)
		return ""
	}
	return h.Call(args, ctx)
}

// variablePass substitutes the remaining placeholders and joins the output. A
// placeholder that does not resolve but names a helper taking no arguments
// invokes that helper.
func (r *Renderer) variablePass(nodes []Node, ctx *Context, w *warnings) string {
	var sb strings.Builder

	for _, node := range nodes {
		switch n := node.(type) {
		case *TextNode:
			sb.WriteString(n.Content)

		case *VariableNode:
			if value, ok := Resolve(n.Expr, ctx); ok {
				sb.WriteString(FormatValue(value))
				continue
			}
			if h, ok := r.helpers.Lookup(n.Expr); ok && h.MinArgs() == 0 {
				sb.WriteString(r.callHelper(h, nil, n.Raw, ctx, w))
				continue
			}
			w.add("unresolved variable %q", n.Expr)
			sb.WriteString(n.Raw)

		default:
			sb.WriteString(node.Source())
		}
	}

	return sb.String()
}
