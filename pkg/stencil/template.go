package stencil

import (
	"errors"
	"maps"
	"path/filepath"
	"strings"
	"time"
)

// ContentType tags the kind of document a template produces.
type ContentType string

const (
	ContentMarkup      ContentType = "markup"
	ContentPDF         ContentType = "pdf"
	ContentWord        ContentType = "word"
	ContentSpreadsheet ContentType = "spreadsheet"
	ContentEmail       ContentType = "email"
	ContentCustom      ContentType = "custom"
)

var contentTypesByExt = map[string]ContentType{
	".html":  ContentMarkup,
	".htm":   ContentMarkup,
	".xhtml": ContentMarkup,
	".xml":   ContentMarkup,
	".md":    ContentMarkup,
	".pdf":   ContentPDF,
	".fo":    ContentPDF,
	".doc":   ContentWord,
	".docx":  ContentWord,
	".rtf":   ContentWord,
	".csv":   ContentSpreadsheet,
	".tsv":   ContentSpreadsheet,
	".xlsx":  ContentSpreadsheet,
	".eml":   ContentEmail,
	".mjml":  ContentEmail,
}

// ContentTypeFromPath infers the content type from a file name. The template
// suffixes .tmpl and .tpl are ignored, so report.html.tmpl is markup.
func ContentTypeFromPath(path string) ContentType {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".tmpl", ".tpl"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if ct, ok := contentTypesByExt[filepath.Ext(name)]; ok {
		return ct
	}
	return ContentCustom
}

// Template is a registered template record. Parent and blocks are filled by the
// structural parse in NewTemplate; the record is read-only afterwards.
type Template struct {
	ID          string
	Name        string
	ContentType ContentType
	Content     string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Parent      string

	blocks map[string]string
}

// TemplateOption customizes a Template built by NewTemplate.
type TemplateOption func(*Template)

// WithName sets the display name.
func WithName(name string) TemplateOption {
	return func(t *Template) { t.Name = name }
}

// WithContentType sets the content type tag.
func WithContentType(ct ContentType) TemplateOption {
	return func(t *Template) { t.ContentType = ct }
}

// WithTimestamps sets the creation and modification times.
func WithTimestamps(created, modified time.Time) TemplateOption {
	return func(t *Template) {
		t.CreatedAt = created
		t.ModifiedAt = modified
	}
}

// NewTemplate builds a template record and extracts its inheritance structure:
// the parent named by {{extends "id"}} and every {{block name}}...{{/block}}
// declaration. A block name declared twice keeps the last declaration.
func NewTemplate(id, content string, opts ...TemplateOption) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("template id cannot be empty")
	}

	now := time.Now()
	t := &Template{
		ID:          id,
		Name:        id,
		ContentType: ContentMarkup,
		Content:     content,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.Parent, t.blocks = parseStructure(content)
	return t, nil
}

// Block returns the content declared for name.
func (t *Template) Block(name string) (string, bool) {
	content, ok := t.blocks[name]
	return content, ok
}

// Blocks returns a copy of the declared blocks.
func (t *Template) Blocks() map[string]string {
	return maps.Clone(t.blocks)
}

// HasParent reports whether the template extends another one.
func (t *Template) HasParent() bool {
	return t.Parent != ""
}

// parseStructure scans the raw tokens for the extends directive and block
// declarations. Block content is the raw text between the declaration tags, so
// nested directives stay untouched until rendering.
func parseStructure(content string) (string, map[string]string) {
	tokens := Tokenize(content)
	blocks := make(map[string]string)
	parent := ""

	type openBlock struct {
		name  string
		start int
	}
	var stack []openBlock

	for _, tok := range tokens {
		switch tok.Type {
		case TokenExtends:
			if parent == "" {
				parent = tok.Value
			}
		case TokenBlock:
			stack = append(stack, openBlock{name: tok.Value, start: tok.Pos + len(tok.Raw)})
		case TokenEndBlock:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			blocks[top.name] = content[top.start:tok.Pos]
		}
	}

	return parent, blocks
}
