package stencil

import (
	"fmt"
	"strings"
)

// TemplateLookup finds a template by identifier.
type TemplateLookup func(id string) (*Template, bool)

// InheritanceResolver merges a template with its ancestors.
//
// The chain is walked from the child to the root ancestor. Block declarations
// are merged with descendants overriding ancestors, and the merged blocks are
// spliced into the root's content: every {{block:name}} placeholder and every
// {{block name}}...{{/block}} declaration of the root is replaced by the merged
// content for name.
type InheritanceResolver struct {
	lookup   TemplateLookup
	maxDepth int
	// transform is applied to each piece of text before merging.
	transform func(text string) string
}

// NewInheritanceResolver creates a resolver reading ancestors through lookup.
// maxDepth bounds the chain length; zero or less means unbounded. transform may
// be nil.
func NewInheritanceResolver(lookup TemplateLookup, maxDepth int, transform func(string) string) *InheritanceResolver {
	if transform == nil {
		transform = func(s string) string { return s }
	}
	return &InheritanceResolver{
		lookup:    lookup,
		maxDepth:  maxDepth,
		transform: transform,
	}
}

// Chain returns t followed by its ancestors, root last. A revisited identifier
// yields an InheritanceCycleError and a missing ancestor a
// TemplateNotFoundError.
func (r *InheritanceResolver) Chain(t *Template) ([]*Template, error) {
	chain := []*Template{t}
	ids := []string{t.ID}
	seen := map[string]bool{t.ID: true}

	for current := t; current.HasParent(); {
		if seen[current.Parent] {
			return nil, &InheritanceCycleError{Chain: append(ids, current.Parent)}
		}
		parent, ok := r.lookup(current.Parent)
		if !ok {
			return nil, &TemplateNotFoundError{ID: current.Parent, ReferencedBy: current.ID}
		}
		if r.maxDepth > 0 && len(chain) >= r.maxDepth {
			return nil, NewTemplateError(fmt.Sprintf("inheritance chain of %q exceeds maximum depth %d", t.ID, r.maxDepth), 0, 0)
		}

		seen[parent.ID] = true
		ids = append(ids, parent.ID)
		chain = append(chain, parent)
		current = parent
	}

	return chain, nil
}

// Resolve returns the merged text of t. A template without a parent is returned
// as written, after the transform.
func (r *InheritanceResolver) Resolve(t *Template) (string, error) {
	if !t.HasParent() {
		return r.transform(t.Content), nil
	}

	chain, err := r.Chain(t)
	if err != nil {
		return "", err
	}

	merged := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, content := range chain[i].blocks {
			merged[name] = r.transform(content)
		}
	}

	root := chain[len(chain)-1]
	output := r.transform(root.Content)

	// Inserted blocks may hold placeholders of their own.
	for pass := 0; pass <= len(chain); pass++ {
		var changed bool
		output, changed = spliceBlocks(output, merged)
		if !changed {
			break
		}
	}

	return output, nil
}

// spliceBlocks replaces block placeholders and declarations in text with merged
// content. Placeholders without merged content stay literal; declarations
// without an override keep their own body.
func spliceBlocks(text string, merged map[string]string) (string, bool) {
	if !strings.Contains(text, "{{") {
		return text, false
	}

	tokens := Tokenize(text)
	var out strings.Builder
	out.Grow(len(text))
	changed := false

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case TokenBlockRef:
			if content, ok := merged[tok.Value]; ok {
				out.WriteString(content)
				changed = true
				continue
			}
			out.WriteString(tok.Raw)

		case TokenBlock:
			end := matchingEndBlock(tokens, i)
			if end < 0 {
				out.WriteString(tok.Raw)
				continue
			}
			if content, ok := merged[tok.Value]; ok {
				out.WriteString(content)
			} else {
				start := tok.Pos + len(tok.Raw)
				out.WriteString(text[start:tokens[end].Pos])
			}
			changed = true
			i = end

		default:
			out.WriteString(tok.Raw)
		}
	}

	return out.String(), changed
}

func matchingEndBlock(tokens []Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].Type {
		case TokenBlock:
			depth++
		case TokenEndBlock:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
