package script

import "prun/internal/value"

// parseBoolExpr parses an `@if (...)` condition directly off the shared
// token buffer (precedence not > and > or, matching internal/value's
// string-based parser but avoiding a second lex pass over re-joined text).
func (p *Parser) parseBoolExpr() (value.BoolExpr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (value.BoolExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isIdent("or") || p.cur().Type == TokPipePipe {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = value.OrExpr{L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (value.BoolExpr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isIdent("and") || p.cur().Type == TokAmpAmp {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = value.AndExpr{L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (value.BoolExpr, error) {
	if p.isIdent("not") || p.cur().Type == TokBang {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return value.NotExpr{X: x}, nil
	}
	return p.parseBoolAtom()
}

func (p *Parser) parseBoolAtom() (value.BoolExpr, error) {
	if p.cur().Type == TokLParen {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parsePredicate()
}

func (p *Parser) parsePrimary() (value.Primary, error) {
	switch p.cur().Type {
	case TokString:
		return value.Primary{Literal: p.advance().Text}, nil
	case TokIdent:
		return value.Primary{VarName: p.advance().Text}, nil
	default:
		return value.Primary{}, newSyntaxError(p.here(), "expected a variable or literal, got %q", p.cur().Text)
	}
}

func (p *Parser) parsePredicate() (value.BoolExpr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isIdent("is"):
		p.advance()
		negated := false
		if p.isIdent("not") {
			negated = true
			p.advance()
		}
		kind, arg, err := p.parsePredicateTail()
		if err != nil {
			return nil, err
		}
		return value.PredicateExpr{Primary: primary, Kind: kind, Arg: arg, Negated: negated}, nil

	case p.cur().Type == TokBangTilde:
		p.advance()
		arg, err := p.parseBoolStringArg()
		if err != nil {
			return nil, err
		}
		return value.PredicateExpr{Primary: primary, Kind: value.IsLike, Arg: arg, Negated: true}, nil

	case p.cur().Type == TokBangEquals:
		p.advance()
		arg, err := p.parseBoolStringArg()
		if err != nil {
			return nil, err
		}
		return value.PredicateExpr{Primary: primary, Kind: value.IsLiteral, Arg: arg, Negated: true}, nil

	default:
		return value.PredicateExpr{Primary: primary, Kind: value.IsSet}, nil
	}
}

func (p *Parser) parsePredicateTail() (value.PredicateKind, string, error) {
	switch {
	case p.isIdent("set"):
		p.advance()
		return value.IsSet, "", nil
	case p.isIdent("file"):
		p.advance()
		return value.IsFile, "", nil
	case p.isIdent("directory"):
		p.advance()
		return value.IsDirectory, "", nil
	case p.isIdent("regex"):
		p.advance()
		return value.IsRegex, "", nil
	case p.isIdent("true"):
		p.advance()
		return value.IsTrue, "", nil
	case p.isIdent("false"):
		p.advance()
		return value.IsFalse, "", nil
	case p.isIdent("like"):
		p.advance()
		arg, err := p.parseBoolStringArg()
		return value.IsLike, arg, err
	case p.cur().Type == TokString || p.cur().Type == TokIdent:
		arg, err := p.parseBoolStringArg()
		return value.IsLiteral, arg, err
	default:
		return 0, "", newSyntaxError(p.here(), "expected a predicate after 'is', got %q", p.cur().Text)
	}
}

func (p *Parser) parseBoolStringArg() (string, error) {
	if p.cur().Type != TokString && p.cur().Type != TokIdent {
		return "", newSyntaxError(p.here(), "expected a literal, got %q", p.cur().Text)
	}
	return p.advance().Text, nil
}
