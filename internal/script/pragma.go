package script

import (
	"strings"

	"prun/internal/value"
)

func (p *Parser) parsePragma() error {
	at := p.here()
	p.advance() // '@'
	kw, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	switch kw.Text {
	case "enable":
		return p.parseEnableDisable(true)
	case "disable":
		return p.parseEnableDisable(false)
	case "verbosity":
		lvl, err := p.expect(TokIdent)
		if err != nil {
			return err
		}
		p.sc.Verbosity = lvl.Text
		return nil
	case "shell":
		return p.parseShellPragma()
	case "include":
		return p.parseIncludeOrImport(false)
	case "import":
		return p.parseIncludeOrImport(true)
	case "if":
		return p.parseIf()
	case "error":
		msg, err := p.expect(TokString)
		if err != nil {
			return err
		}
		return &ScriptError{Line: at, Message: msg.Text}
	default:
		return newSyntaxError(at, "unknown pragma @%s", kw.Text)
	}
}

func (p *Parser) parseEnableDisable(on bool) error {
	name, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if !p.sc.Flags.Set(name.Text, on) {
		return newSyntaxError(name.Line, "unknown flag %q", name.Text)
	}
	return nil
}

func (p *Parser) parseShellPragma() error {
	id, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if p.cur().Type != TokLBrace {
		// `@shell <id>` with no body selects an already-declared shell as
		// the default for subsequently parsed commands.
		existing, ok := p.sc.Shells[id.Text]
		if !ok {
			return newSyntaxError(id.Line, "unknown shell %q", id.Text)
		}
		p.currentShell = existing
		return nil
	}
	sh := &Shell{ID: id.Text, OutputEncoding: UTF8}
	p.advance() // '{'
	for p.cur().Type != TokRBrace {
		key, err := p.expect(TokIdent)
		if err != nil {
			return err
		}
		switch {
		case key.Text == "path":
			if _, err := p.expect(TokEquals); err != nil {
				return err
			}
			v, err := p.expect(TokString)
			if err != nil {
				return err
			}
			sh.Path = v.Text
		case key.Text == "commandLine":
			if _, err := p.expect(TokEquals); err != nil {
				return err
			}
			lit, err := p.parseLiteral()
			if err != nil {
				return err
			}
			sh.CmdLine = lit
		case key.Text == "replace":
			if _, err := p.expect(TokLBracket); err != nil {
				return err
			}
			if _, err := p.expect(TokNumber); err != nil {
				return err
			}
			if _, err := p.expect(TokRBracket); err != nil {
				return err
			}
			if _, err := p.expect(TokEquals); err != nil {
				return err
			}
			v, err := p.expect(TokString)
			if err != nil {
				return err
			}
			rule, err := parseReplaceRule(v.Text, v.Line)
			if err != nil {
				return err
			}
			sh.Replacements = append(sh.Replacements, rule)
		case key.Text == "outputEncoding":
			if _, err := p.expect(TokEquals); err != nil {
				return err
			}
			v, err := p.expect(TokIdent)
			if err != nil {
				return err
			}
			switch v.Text {
			case "utf8", "utf-8":
				sh.OutputEncoding = UTF8
			case "utf16", "utf-16":
				sh.OutputEncoding = UTF16
			default:
				return newSyntaxError(v.Line, "unknown outputEncoding %q", v.Text)
			}
		case key.Text == "raw":
			sh.RawCmdLine = true
		default:
			return newSyntaxError(key.Line, "unknown shell key %q", key.Text)
		}
	}
	p.advance() // '}'
	p.sc.Shells[sh.ID] = sh
	p.currentShell = sh
	return nil
}

// parseReplaceRule splits a `<sep><regex><sep><repl><sep>` string into its
// pattern and replacement, per §4.2.
func parseReplaceRule(s string, li value.LineInfo) (ReplaceRule, error) {
	if len(s) < 3 {
		return ReplaceRule{}, newSyntaxError(li, "replace rule too short: %q", s)
	}
	sep := s[0]
	rest := s[1:]
	var parts []string
	start := 0
	for i := 0; i < len(rest); i++ {
		if rest[i] == sep {
			parts = append(parts, rest[start:i])
			start = i + 1
		}
	}
	if len(parts) < 2 {
		return ReplaceRule{}, newSyntaxError(li, "replace rule needs two separators: %q", s)
	}
	return ReplaceRule{Pattern: parts[0], Replacement: parts[1]}, nil
}

func (p *Parser) parseIncludeOrImport(isImport bool) error {
	tok, err := p.expect(TokString)
	if err != nil {
		return err
	}
	path := resolveIncludePath(p.file, tok.Text)

	if isImport {
		if p.imported[path] {
			return nil
		}
		p.imported[path] = true
	}

	if p.fr == nil {
		return newSyntaxError(tok.Line, "%v: %s", ErrFileNotFound, path)
	}
	src, err := p.fr.ReadFile(path)
	if err != nil {
		return newSyntaxError(tok.Line, "%v: %s: %v", ErrFileNotFound, path, err)
	}

	savedFile := p.file
	UpdateScriptVar(p.sc.Scopes, path)
	sub, err := NewParser(path, src, p.fr, p.sc, p.imported)
	if err != nil {
		return err
	}
	if err := sub.parseStatements(tokenIsEOF); err != nil {
		return err
	}
	UpdateScriptVar(p.sc.Scopes, savedFile)
	return nil
}

func (p *Parser) parseIf() error {
	if _, err := p.expect(TokLParen); err != nil {
		return err
	}
	cond, err := p.parseBoolExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(TokRParen); err != nil {
		return err
	}
	env := p.boolEnv()
	take, err := value.Eval(cond, env)
	if err != nil {
		return err
	}

	if err := p.parseBranchBody(take); err != nil {
		return err
	}

	for p.matchAtKeyword("elseif") {
		if _, err := p.expect(TokLParen); err != nil {
			return err
		}
		cond, err := p.parseBoolExpr()
		if err != nil {
			return err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return err
		}
		branchTake := false
		if !take {
			branchTake, err = value.Eval(cond, p.boolEnv())
			if err != nil {
				return err
			}
		}
		if err := p.parseBranchBody(branchTake); err != nil {
			return err
		}
		take = take || branchTake
	}

	if p.matchAtKeyword("else") {
		if err := p.parseBranchBody(!take); err != nil {
			return err
		}
	}
	return nil
}

// matchAtKeyword consumes a `@<name>` pair (two tokens: '@' then the
// identifier) if present, reporting whether it matched.
func (p *Parser) matchAtKeyword(name string) bool {
	if p.cur().Type != TokAt {
		return false
	}
	if p.peekType(1) != TokIdent || !strings.EqualFold(p.toks[p.pos+1].Text, name) {
		return false
	}
	p.advance() // '@'
	p.advance() // name
	return true
}

// parseBranchBody parses a `{ ... }` block, applying its statements to the
// shared Script only when take is true; when false, the body's tokens are
// skipped by skipBalancedBraces without being parsed, so a syntax error
// inside a branch that is not taken is not reported.
func (p *Parser) parseBranchBody(take bool) error {
	if _, err := p.expect(TokLBrace); err != nil {
		return err
	}
	if take {
		if err := p.parseStatements(func(t Token) bool { return t.Type == TokRBrace }); err != nil {
			return err
		}
	} else {
		if err := p.skipBalancedBraces(); err != nil {
			return err
		}
	}
	_, err := p.expect(TokRBrace)
	return err
}

// skipBalancedBraces advances past a `{ ... }` body's statements without
// interpreting them, tracking nested braces so an inner `@shell id { }`
// doesn't terminate the skip early.
func (p *Parser) skipBalancedBraces() error {
	depth := 1
	for depth > 0 {
		switch p.cur().Type {
		case TokEOF:
			return newSyntaxError(p.here(), "unexpected end of file inside a conditional block")
		case TokLBrace:
			depth++
		case TokRBrace:
			depth--
			if depth == 0 {
				return nil
			}
		}
		p.advance()
	}
	return nil
}

func (p *Parser) boolEnv() *value.Env {
	return &value.Env{
		Scopes:  p.sc.Scopes,
		Dynamic: p.sc.Dynamic,
	}
}
