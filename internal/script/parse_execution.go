package script

import "strings"

func (p *Parser) parseExecution() error {
	line := p.here()
	p.advance() // "execution"
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
	root, err := p.parseChain()
	if err != nil {
		return err
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return err
	}
	return p.sc.AddExecution(&Execution{ID: id.Text, Line: line, Root: root})
}

// parseChain implements `>` (sequential, lowest precedence): each step
// nests the previous chain state as its single sequential dependency, so
// `a > b > c` builds c{seq:[b{seq:[a]}]}.
func (p *Parser) parseChain() (*ProcessNode, error) {
	cur, err := p.parseParallel()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokGT {
		p.advance()
		next, err := p.parseParallel()
		if err != nil {
			return nil, err
		}
		next.Sequential = append(next.Sequential, cur)
		cur = next
	}
	return cur, nil
}

// parseParallel implements `|` (higher precedence than `>`).
func (p *Parser) parseParallel() (*ProcessNode, error) {
	first, err := p.parseChainAtom()
	if err != nil {
		return nil, err
	}
	var siblings []*ProcessNode
	for p.cur().Type == TokPipe {
		p.advance()
		next, err := p.parseChainAtom()
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, next)
	}
	if len(siblings) == 0 {
		return first, nil
	}
	return &ProcessNode{Parallel: append([]*ProcessNode{first}, siblings...)}, nil
}

func (p *Parser) parseChainAtom() (*ProcessNode, error) {
	if p.cur().Type == TokLParen {
		p.advance()
		inner, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	if p.cur().Type == TokAt {
		return p.parseChainInclude()
	}
	return p.parseLeaf()
}

// parseChainInclude handles the identifier form of `@include <id>` inside
// an execution chain (§4.2): explicit syntax for splicing in the named
// process/execution's nodes in place of a leaf. Resolution against both
// namespaces is deferred to internal/graph at build time exactly like a
// bare `<processId>`/`<executionId>` leaf (ProcessLeaf carries a single ID
// field for this reason -- see parseLeaf), so `@include foo` and a bare
// `foo` leaf reference the same node and both support forward references.
func (p *Parser) parseChainInclude() (*ProcessNode, error) {
	at := p.here()
	p.advance() // '@'
	kw, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(kw.Text, "include") {
		return nil, newSyntaxError(at, "only @include is allowed inside an execution chain, got @%s", kw.Text)
	}
	id, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	return &ProcessNode{Leaf: &ProcessLeaf{ID: id.Text}}, nil
}

func (p *Parser) parseLeaf() (*ProcessNode, error) {
	id, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	leaf := &ProcessLeaf{ID: id.Text}

	if p.cur().Type == TokBang {
		p.advance()
		leaf.Force = true
	}

	if p.cur().Type == TokLParen {
		p.advance()
		for p.cur().Type != TokRParen {
			input, err := p.parseInitialInput()
			if err != nil {
				return nil, err
			}
			leaf.Inputs = append(leaf.Inputs, input)
			if p.cur().Type == TokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
	}

	return &ProcessNode{Leaf: leaf}, nil
}

func (p *Parser) parseInitialInput() (InitialInput, error) {
	if p.cur().Type == TokAt {
		p.advance()
		tok, err := p.expect(TokString)
		if err != nil {
			return InitialInput{}, err
		}
		return InitialInput{Kind: InitialFileList, Path: tok.Text}, nil
	}
	tok, err := p.expect(TokString)
	if err != nil {
		return InitialInput{}, err
	}
	return InitialInput{Kind: InitialRegex, Pattern: tok.Text}, nil
}
