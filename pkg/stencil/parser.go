package stencil

import (
	"fmt"
	"slices"
)

// Parse turns template text into a node tree.
//
// Parsing never fails. Closing tags without a matching opener, {{else}} outside a
// conditional, unclosed blocks and unrecognized tags are kept as literal text, and a
// warning describing each is returned alongside the nodes.
func Parse(input string) ([]Node, []string) {
	p := &parser{
		input:  input,
		tokens: Tokenize(input),
	}
	nodes := p.parseBody()
	return nodes, p.warnings
}

type parser struct {
	input    string
	tokens   []Token
	pos      int
	open     []TokenType // closers of the enclosing blocks, innermost last
	warnings []string
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenText}
	}
	return p.tokens[p.pos]
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) warnf(tok Token, format string, args ...interface{}) {
	line, col := lineColumn(p.input, tok.Pos)
	p.warnings = append(p.warnings, fmt.Sprintf("line %d, column %d: %s", line, col, fmt.Sprintf(format, args...)))
}

// parseBody parses nodes until one of stopTokens, a closer owned by an enclosing
// block, or the end of input.
func (p *parser) parseBody(stopTokens ...TokenType) []Node {
	var body []Node

	for !p.atEnd() {
		tok := p.current()

		if slices.Contains(stopTokens, tok.Type) {
			return body
		}

		switch tok.Type {
		case TokenText:
			if tok.Value != "" {
				body = append(body, &TextNode{Content: tok.Value})
			}
			p.advance()

		case TokenVariable:
			body = append(body, &VariableNode{Expr: tok.Value, Raw: tok.Raw})
			p.advance()

		case TokenHelper:
			body = append(body, &HelperNode{Name: tok.Value, Args: tok.Args, Raw: tok.Raw})
			p.advance()

		case TokenTheme:
			body = append(body, &ThemeTokenNode{Key: tok.Value, Raw: tok.Raw})
			p.advance()

		case TokenI18n:
			body = append(body, &I18nTokenNode{Key: tok.Value, Raw: tok.Raw})
			p.advance()

		case TokenBlockRef:
			body = append(body, &BlockRefNode{Name: tok.Value, Raw: tok.Raw})
			p.advance()

		case TokenExtends:
			body = append(body, &ExtendsNode{Parent: tok.Value, Raw: tok.Raw})
			p.advance()

		case TokenIf, TokenUnless:
			body = append(body, p.parseConditional()...)

		case TokenEach:
			body = append(body, p.parseLoop()...)

		case TokenBlock:
			body = append(body, p.parseBlock()...)

		case TokenEndIf, TokenEndUnless, TokenEndEach, TokenEndBlock:
			if slices.Contains(p.open, tok.Type) {
				// Belongs to an enclosing block; the inner one is unclosed.
				return body
			}
			p.warnf(tok, "unexpected closing tag %s", tok.Raw)
			body = append(body, &TextNode{Content: tok.Raw})
			p.advance()

		case TokenElse:
			p.warnf(tok, "%s outside of a conditional block", tok.Raw)
			body = append(body, &TextNode{Content: tok.Raw})
			p.advance()

		default:
			p.warnf(tok, "invalid directive %s: %s", tok.Raw, tok.Value)
			body = append(body, &TextNode{Content: tok.Raw})
			p.advance()
		}
	}

	return body
}

func (p *parser) push(closer TokenType) {
	p.open = append(p.open, closer)
}

func (p *parser) pop() {
	p.open = p.open[:len(p.open)-1]
}

func (p *parser) parseConditional() []Node {
	opening := p.current()
	p.advance()

	closer := TokenEndIf
	if opening.Type == TokenUnless {
		closer = TokenEndUnless
	}

	p.push(closer)
	defer p.pop()

	node := &ConditionalNode{
		Condition: ParseCondition(opening.Value),
		Negate:    opening.Type == TokenUnless,
		Raw:       opening.Raw,
	}

	node.Then = p.parseBody(TokenElse, closer)

	var elseTok *Token
	if !p.atEnd() && p.current().Type == TokenElse {
		tok := p.current()
		elseTok = &tok
		p.advance()
		node.Else = p.parseBody(closer)
	}

	if !p.atEnd() && p.current().Type == closer {
		p.advance()
		return []Node{node}
	}

	p.warnf(opening, "unclosed %s", opening.Raw)
	degraded := []Node{&TextNode{Content: opening.Raw}}
	degraded = append(degraded, node.Then...)
	if elseTok != nil {
		degraded = append(degraded, &TextNode{Content: elseTok.Raw})
		degraded = append(degraded, node.Else...)
	}
	return degraded
}

func (p *parser) parseLoop() []Node {
	opening := p.current()
	p.advance()

	p.push(TokenEndEach)
	defer p.pop()

	node := &LoopNode{Target: opening.Value, Raw: opening.Raw}
	node.Body = p.parseBody(TokenEndEach)

	if !p.atEnd() && p.current().Type == TokenEndEach {
		p.advance()
		return []Node{node}
	}

	p.warnf(opening, "unclosed %s", opening.Raw)
	return append([]Node{&TextNode{Content: opening.Raw}}, node.Body...)
}

func (p *parser) parseBlock() []Node {
	opening := p.current()
	p.advance()

	p.push(TokenEndBlock)
	defer p.pop()

	node := &BlockDeclNode{Name: opening.Value, Raw: opening.Raw}
	node.Body = p.parseBody(TokenEndBlock)

	if !p.atEnd() && p.current().Type == TokenEndBlock {
		p.advance()
		return []Node{node}
	}

	p.warnf(opening, "unclosed %s", opening.Raw)
	return append([]Node{&TextNode{Content: opening.Raw}}, node.Body...)
}
