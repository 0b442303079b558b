package stencil

import (
	"fmt"
	"strings"
)

// Node is one element of a parsed template.
type Node interface {
	String() string
	// Source returns the template text the node was parsed from, used when a
	// directive degrades to literal output.
	Source() string
}

// TextNode represents plain text content
type TextNode struct {
	Content string
}

func (n *TextNode) String() string { return fmt.Sprintf("Text(%q)", n.Content) }
func (n *TextNode) Source() string { return n.Content }

// VariableNode is a plain placeholder such as {{ user.name }}.
type VariableNode struct {
	Expr string
	Raw  string
}

func (n *VariableNode) String() string { return fmt.Sprintf("Variable(%s)", n.Expr) }
func (n *VariableNode) Source() string { return n.Raw }

// HelperNode is a helper invocation such as {{truncate title 20}}. Args are the raw
// tokens; the helper resolves them itself.
type HelperNode struct {
	Name string
	Args []string
	Raw  string
}

func (n *HelperNode) String() string {
	return fmt.Sprintf("Helper(%s, [%s])", n.Name, strings.Join(n.Args, ", "))
}
func (n *HelperNode) Source() string { return n.Raw }

// ConditionalNode represents {{#if}} and {{#unless}} blocks with an optional
// {{else}} branch.
type ConditionalNode struct {
	Condition Condition
	Negate    bool
	Then      []Node
	Else      []Node
	Raw       string
}

func (n *ConditionalNode) String() string {
	keyword := "If"
	if n.Negate {
		keyword = "Unless"
	}
	if len(n.Else) > 0 {
		return fmt.Sprintf("%s(%s) Else", keyword, n.Condition.String())
	}
	return fmt.Sprintf("%s(%s)", keyword, n.Condition.String())
}
func (n *ConditionalNode) Source() string { return n.Raw }

// LoopNode represents an {{#each list}} block.
type LoopNode struct {
	Target string
	Body   []Node
	Raw    string
}

func (n *LoopNode) String() string { return fmt.Sprintf("Each(%s)", n.Target) }
func (n *LoopNode) Source() string { return n.Raw }

// ThemeTokenNode is a {{theme:key}} token left after theme application.
type ThemeTokenNode struct {
	Key string
	Raw string
}

func (n *ThemeTokenNode) String() string { return fmt.Sprintf("Theme(%s)", n.Key) }
func (n *ThemeTokenNode) Source() string { return n.Raw }

// I18nTokenNode is an {{i18n:key}} token left after localization.
type I18nTokenNode struct {
	Key string
	Raw string
}

func (n *I18nTokenNode) String() string { return fmt.Sprintf("I18n(%s)", n.Key) }
func (n *I18nTokenNode) Source() string { return n.Raw }

// BlockDeclNode is a {{block name}}...{{/block}} declaration.
type BlockDeclNode struct {
	Name string
	Body []Node
	Raw  string
}

func (n *BlockDeclNode) String() string { return fmt.Sprintf("Block(%s)", n.Name) }
func (n *BlockDeclNode) Source() string { return n.Raw }

// BlockRefNode is a {{block:name}} placeholder the inheritance merge did not fill.
type BlockRefNode struct {
	Name string
	Raw  string
}

func (n *BlockRefNode) String() string { return fmt.Sprintf("BlockRef(%s)", n.Name) }
func (n *BlockRefNode) Source() string { return n.Raw }

// ExtendsNode is an {{extends "parent"}} directive.
type ExtendsNode struct {
	Parent string
	Raw    string
}

func (n *ExtendsNode) String() string { return fmt.Sprintf("Extends(%s)", n.Parent) }
func (n *ExtendsNode) Source() string { return n.Raw }

// Condition is the parsed form of an if/unless expression: either a single token
// tested for truthiness, or two tokens compared with == or !=.
type Condition struct {
	Left     string
	Operator string
	Right    string
	// Err is set when the expression is malformed; such a condition evaluates to false.
	Err error
}

// ParseCondition parses the expression of an {{#if}} or {{#unless}} tag. The
// comparison operators need no surrounding whitespace: a==b equals a == b.
func ParseCondition(expr string) Condition {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Condition{Err: fmt.Errorf("missing condition")}
	}
	malformed := Condition{Left: expr, Err: fmt.Errorf("malformed condition %q", expr)}

	if i := operatorIndex(expr); i >= 0 {
		left, lerr := splitArgs(expr[:i])
		right, rerr := splitArgs(expr[i+2:])
		if lerr != nil || rerr != nil || len(left) != 1 || len(right) != 1 {
			return malformed
		}
		return Condition{Left: left[0], Operator: expr[i : i+2], Right: right[0]}
	}

	args, err := splitArgs(expr)
	if err != nil {
		return Condition{Left: expr, Err: err}
	}
	if len(args) != 1 {
		return malformed
	}
	return Condition{Left: args[0]}
}

// operatorIndex returns the offset of the first == or != outside a quoted
// string, or -1.
func operatorIndex(expr string) int {
	inQuote := false
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && (c == '=' || c == '!') && i+1 < len(expr) && expr[i+1] == '=':
			return i
		}
	}
	return -1
}

func (c Condition) String() string {
	if c.Operator != "" {
		return fmt.Sprintf("%s %s %s", c.Left, c.Operator, c.Right)
	}
	return c.Left
}

// Operands returns the tokens the condition resolves.
func (c Condition) Operands() []string {
	if c.Err != nil {
		return nil
	}
	if c.Operator != "" {
		return []string{c.Left, c.Right}
	}
	return []string{c.Left}
}
