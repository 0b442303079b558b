package stencil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(t *testing.T, sources map[string]string) TemplateLookup {
	t.Helper()
	templates := make(map[string]*Template, len(sources))
	for id, content := range sources {
		templates[id] = mustTemplate(t, id, content)
	}
	return func(id string) (*Template, bool) {
		tmpl, ok := templates[id]
		return tmpl, ok
	}
}

func resolveTemplate(t *testing.T, sources map[string]string, id string) (string, error) {
	t.Helper()
	lookup := lookupFrom(t, sources)
	tmpl, ok := lookup(id)
	require.True(t, ok)
	return NewInheritanceResolver(lookup, 0, nil).Resolve(tmpl)
}

func TestInheritanceResolve(t *testing.T) {
	tests := []struct {
		name    string
		sources map[string]string
		id      string
		want    string
	}{
		{
			name: "single level",
			sources: map[string]string{
				"parent": "H{{block:x}}T",
				"child":  `{{extends "parent"}}{{block x}}M{{/block}}`,
			},
			id:   "child",
			want: "HMT",
		},
		{
			name: "no parent is returned as written",
			sources: map[string]string{
				"solo": "A{{block:x}}B{{block y}}C{{/block}}",
			},
			id:   "solo",
			want: "A{{block:x}}B{{block y}}C{{/block}}",
		},
		{
			name: "most derived block wins",
			sources: map[string]string{
				"base":   "<{{block:a}}|{{block:b}}>",
				"layout": `{{extends "base"}}{{block a}}LA{{/block}}{{block b}}LB{{/block}}`,
				"page":   `{{extends "layout"}}{{block a}}PA{{/block}}`,
			},
			id:   "page",
			want: "<PA|LB>",
		},
		{
			name: "root declaration keeps its default",
			sources: map[string]string{
				"base":  "[{{block title}}Report{{/block}}|{{block body}}empty{{/block}}]",
				"child": `{{extends "base"}}{{block body}}rows{{/block}}`,
			},
			id:   "child",
			want: "[Report|rows]",
		},
		{
			name: "unmatched placeholder stays literal",
			sources: map[string]string{
				"base":  "H{{block:y}}T",
				"child": `{{extends "base"}}{{block x}}unused{{/block}}`,
			},
			id:   "child",
			want: "H{{block:y}}T",
		},
		{
			name: "inserted block holds a placeholder",
			sources: map[string]string{
				"base":  "A{{block:x}}B",
				"child": `{{extends "base"}}{{block x}}<{{block:y}}>{{/block}}{{block y}}Y{{/block}}`,
			},
			id:   "child",
			want: "A<Y>B",
		},
		{
			name: "directives inside blocks are kept for rendering",
			sources: map[string]string{
				"base":  "{{block:body}}",
				"child": `{{extends "base"}}{{block body}}{{#each items}}{{this}}{{/each}}{{/block}}`,
			},
			id:   "child",
			want: "{{#each items}}{{this}}{{/each}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTemplate(t, tt.sources, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInheritanceCycle(t *testing.T) {
	_, err := resolveTemplate(t, map[string]string{
		"a": `{{extends "b"}}A`,
		"b": `{{extends "a"}}B`,
	}, "a")
	require.Error(t, err)
	assert.True(t, IsInheritanceCycle(err))

	var cycle *InheritanceCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Chain)
	assert.Equal(t, "inheritance cycle detected: a -> b -> a", err.Error())
}

func TestInheritanceSelfReference(t *testing.T) {
	_, err := resolveTemplate(t, map[string]string{
		"self": `{{extends "self"}}{{block:x}}`,
	}, "self")
	assert.True(t, IsInheritanceCycle(err))
}

func TestInheritanceMissingParent(t *testing.T) {
	_, err := resolveTemplate(t, map[string]string{
		"child": `{{extends "ghost"}}{{block x}}M{{/block}}`,
	}, "child")
	require.Error(t, err)
	assert.True(t, IsTemplateNotFound(err))

	var notFound *TemplateNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ghost", notFound.ID)
	assert.Equal(t, "child", notFound.ReferencedBy)
}

func TestInheritanceChainDepth(t *testing.T) {
	lookup := lookupFrom(t, map[string]string{
		"a": "{{block:x}}",
		"b": `{{extends "a"}}`,
		"c": `{{extends "b"}}{{block x}}C{{/block}}`,
	})
	c, _ := lookup("c")

	chain, err := NewInheritanceResolver(lookup, 3, nil).Chain(c)
	require.NoError(t, err)
	ids := make([]string, len(chain))
	for i, tmpl := range chain {
		ids[i] = tmpl.ID
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	_, err = NewInheritanceResolver(lookup, 2, nil).Resolve(c)
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
}

func TestInheritanceTransform(t *testing.T) {
	lookup := lookupFrom(t, map[string]string{
		"base":  "H{{block:x}}@@",
		"child": `{{extends "base"}}{{block x}}M@@{{/block}}`,
	})
	child, _ := lookup("child")

	var pieces []string
	transform := func(s string) string {
		pieces = append(pieces, s)
		return strings.ReplaceAll(s, "@@", "!!")
	}

	got, err := NewInheritanceResolver(lookup, 0, transform).Resolve(child)
	require.NoError(t, err)
	assert.Equal(t, "HM!!!!", got)
	assert.ElementsMatch(t, []string{"M@@", "H{{block:x}}@@"}, pieces)
}
