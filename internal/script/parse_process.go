package script

import "strings"

func (p *Parser) parseProcess() error {
	line := p.here()
	p.advance() // "process"
	if _, err := p.expect(TokColon); err != nil {
		return err
	}
	id, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return err
	}
	proc := &Process{ID: id.Text, Line: line}
	for p.cur().Type != TokRBrace {
		if p.cur().Type == TokAt {
			if err := p.parseProcessInclude(proc); err != nil {
				return err
			}
			continue
		}
		block, err := p.parseProcessBlock()
		if err != nil {
			return err
		}
		proc.Blocks = append(proc.Blocks, block)
	}
	p.advance() // '}'
	return p.sc.AddProcess(proc)
}

// parseProcessInclude handles the identifier form of `@include <id>` inside
// a process body (§4.2: "Include forms inside processes and executions"),
// splicing the named process's already-parsed blocks onto proc in place.
// Unlike the file-level `@include "path"`/`@import "path"` pragma, this form
// takes an identifier and can only reference a process declared earlier in
// the same parse.
func (p *Parser) parseProcessInclude(proc *Process) error {
	at := p.here()
	p.advance() // '@'
	kw, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if !strings.EqualFold(kw.Text, "include") {
		return newSyntaxError(at, "only @include is allowed inside a process body, got @%s", kw.Text)
	}
	id, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	other, ok := p.sc.Processes[id.Text]
	if !ok {
		return newSyntaxError(id.Line, "%v: process %q", ErrSymbolUnknown, id.Text)
	}
	proc.Blocks = append(proc.Blocks, other.Blocks...)
	return nil
}

func (p *Parser) parseProcessBlock() (ProcessBlock, error) {
	line := p.here()
	block := ProcessBlock{Line: line}

	switch {
	case p.isIdent("foreach"):
		p.advance()
		block.Kind = Foreach
		re, err := p.expect(TokString)
		if err != nil {
			return block, err
		}
		block.Filter = re.Text
	case p.isIdent("all"):
		p.advance()
		block.Kind = All
		re, err := p.expect(TokString)
		if err != nil {
			return block, err
		}
		block.Filter = re.Text
	case p.cur().Type == TokBang:
		p.advance()
		if !p.isIdent("all") {
			return block, newSyntaxError(p.here(), "expected 'all' after '!'")
		}
		p.advance()
		block.Kind = All
		block.Invert = true
		re, err := p.expect(TokString)
		if err != nil {
			return block, err
		}
		block.Filter = re.Text
	case p.isIdent("none"):
		p.advance()
		block.Kind = None
	default:
		return block, newSyntaxError(line, "expected foreach/all/none, got %q", p.cur().Text)
	}

	if _, err := p.expect(TokLBrace); err != nil {
		return block, err
	}
	for p.cur().Type != TokRBrace {
		if err := p.parseBlockItem(&block); err != nil {
			return block, err
		}
	}
	p.advance() // '}'
	return block, nil
}

func (p *Parser) parseBlockItem(block *ProcessBlock) error {
	if p.cur().Type == TokString {
		cmdTok := p.advance()
		lit, err := ParseLiteralText(cmdTok.Text, cmdTok.Line)
		if err != nil {
			return err
		}
		block.Commands = append(block.Commands, Command{Shell: p.currentShell, Command: lit})
		return nil
	}

	if p.isIdent("destination") {
		return p.parseIndexedAssignment(&block.Destinations, true)
	}
	if p.isIdent("dependency") {
		return p.parseIndexedAssignment(&block.Dependencies, false)
	}

	// Free assignment, only meaningful when nested-variables is enabled;
	// the flag check happens at prepare time so the parser stays agnostic
	// to parse order between @enable and process bodies.
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
	block.FreeVars.Set(name.Text, lit, false)
	return nil
}

func (p *Parser) parseIndexedAssignment(dst *OrderedLiterals, allowTemporary bool) error {
	p.advance() // "destination" / "dependency"
	if _, err := p.expect(TokLBracket); err != nil {
		return err
	}
	idxTok, err := p.expect(TokNumber)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return err
	}
	if _, err := p.expect(TokEquals); err != nil {
		return err
	}
	temporary := false
	if allowTemporary && p.cur().Type == TokTilde {
		p.advance()
		temporary = true
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return err
	}
	dst.Set(idxTok.Text, lit, temporary)
	return nil
}
