package script

import (
	"path/filepath"
	"strings"

	"prun/internal/value"
)

// FileReader resolves `@include`/`@import` paths. internal/fsscan's OS
// filesystem implementation satisfies this; tests use an in-memory map.
type FileReader interface {
	ReadFile(path string) (string, error)
}

// Parser walks a flat token buffer (populated ahead of time by Tokenize)
// and mutates a shared *Script. Multiple Parsers are chained together by
// @include/@import, all writing into the same Script so the flat scope and
// process/execution namespaces stay global across source files.
type Parser struct {
	toks []Token
	pos  int
	file string

	sc *Script
	fr FileReader

	imported     map[string]bool
	currentShell *Shell
}

// NewParser tokenizes src and returns a Parser ready to run against sc.
// imported is shared across every file reached through this parse so
// `@import` dedup works across the whole inclusion tree.
func NewParser(file, src string, fr FileReader, sc *Script, imported map[string]bool) (*Parser, error) {
	toks, err := Tokenize(file, src)
	if err != nil {
		return nil, err
	}
	if imported == nil {
		imported = map[string]bool{}
	}
	return &Parser{toks: toks, file: file, sc: sc, fr: fr, imported: imported, currentShell: sc.Shells["default"]}, nil
}

// Parse parses the top-level file, script-wide pragmas, processes and
// executions into p.sc.
func Parse(file, src string, fr FileReader, sc *Script) error {
	p, err := NewParser(file, src, fr, sc, nil)
	if err != nil {
		return err
	}
	UpdateScriptVar(sc.Scopes, file)
	return p.parseStatements(tokenIsEOF)
}

func tokenIsEOF(t Token) bool { return t.Type == TokEOF }

func (p *Parser) cur() Token           { return p.toks[p.pos] }
func (p *Parser) here() value.LineInfo { return p.cur().Line }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.cur().Type != tt {
		return Token{}, newSyntaxError(p.here(), "expected %s, got %s %q", tt, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) isIdent(text string) bool {
	return p.cur().Type == TokIdent && strings.EqualFold(p.cur().Text, text)
}

func (p *Parser) expectIdent(text string) error {
	if !p.isIdent(text) {
		return newSyntaxError(p.here(), "expected %q, got %q", text, p.cur().Text)
	}
	p.advance()
	return nil
}

// parseStatements consumes statements until stop(cur token) is true.
func (p *Parser) parseStatements(stop func(Token) bool) error {
	for !stop(p.cur()) {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseStatement() error {
	switch p.cur().Type {
	case TokAt:
		return p.parsePragma()
	case TokIdent:
		if p.isIdent("unset") {
			return p.parseUnset()
		}
		if p.isIdent("process") && p.peekType(1) == TokColon {
			return p.parseProcess()
		}
		if p.isIdent("execution") && p.peekType(1) == TokColon {
			return p.parseExecution()
		}
		return p.parseAssignment(p.sc.Scopes)
	default:
		return newSyntaxError(p.here(), "unexpected token %q", p.cur().Text)
	}
}

func (p *Parser) peekType(off int) TokenType {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return TokEOF
	}
	return p.toks[idx].Type
}

func (p *Parser) parseAssignment(scopes *value.Scopes) error {
	name, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokEquals); err != nil {
		return err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return err
	}
	scopes.Set(name.Text, lit)
	return nil
}

func (p *Parser) parseLiteral() (value.StringLiteral, error) {
	tok, err := p.expect(TokString)
	if err != nil {
		return value.StringLiteral{}, err
	}
	return ParseLiteralText(tok.Text, tok.Line)
}

func (p *Parser) parseUnset() error {
	p.advance() // "unset"
	for {
		name, err := p.expect(TokIdent)
		if err != nil {
			return err
		}
		p.sc.Scopes.Unset(name.Text)
		if p.cur().Type != TokComma {
			return nil
		}
		p.advance()
	}
}

// resolveIncludePath joins a relative include path against the directory
// of the including file, matching how the source resolves nested scripts.
func resolveIncludePath(fromFile, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(fromFile), target)
}
