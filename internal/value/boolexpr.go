package value

import (
	"fmt"
	"regexp"
	"strings"
)

// BoolExpr is the AST of an `if` pragma's boolean expression (§4.1).
// Precedence (low to high when parsing): or, and, not.
type BoolExpr interface {
	boolExprNode()
}

type (
	// NotExpr negates its operand.
	NotExpr struct{ X BoolExpr }
	// AndExpr is a short-circuiting conjunction.
	AndExpr struct{ L, R BoolExpr }
	// OrExpr is a short-circuiting disjunction.
	OrExpr struct{ L, R BoolExpr }
	// PredicateExpr applies one of the `is ...` predicates to a primary.
	PredicateExpr struct {
		Primary Primary
		Kind    PredicateKind
		Arg     string // literal text or regex source, for IsLiteral/IsLike
		Negated bool
	}
)

func (NotExpr) boolExprNode()       {}
func (AndExpr) boolExprNode()       {}
func (OrExpr) boolExprNode()        {}
func (PredicateExpr) boolExprNode() {}

// PredicateKind enumerates the `is ...` predicate forms.
type PredicateKind int

const (
	IsSet PredicateKind = iota
	IsFile
	IsDirectory
	IsRegex
	IsTrue
	IsFalse
	IsLiteral
	IsLike
)

// Primary is either a variable reference or a quoted literal, evaluated
// against the current scopes before a predicate is applied.
type Primary struct {
	VarName string // non-empty for a variable primary
	Literal string // used when VarName == ""
}

// Env supplies the collaborators a BoolExpr needs to evaluate predicates.
type Env struct {
	Scopes  *Scopes
	Dynamic DynamicSet
	FE      FileExister
	IsDir   func(path string) bool
}

// resolvePrimary returns the primary's current text value and whether it is
// "set" (a variable primary that has no binding is unset; a literal primary
// is always set).
func resolvePrimary(p Primary, env *Env) (string, bool) {
	if p.VarName == "" {
		return p.Literal, true
	}
	lit, ok := env.Scopes.Lookup(p.VarName)
	if !ok {
		return "", false
	}
	ev := &Evaluator{Scopes: env.Scopes, Dynamic: env.Dynamic, FE: env.FE}
	resolved, _, _ := ev.Resolve(lit)
	return resolved.GetString(), true
}

// Eval evaluates the expression tree, short-circuiting and/or (invariant:
// boolean evaluation is short-circuited, §4.1/§4.9).
func Eval(expr BoolExpr, env *Env) (bool, error) {
	switch e := expr.(type) {
	case NotExpr:
		v, err := Eval(e.X, env)
		if err != nil {
			return false, err
		}
		return !v, nil
	case AndExpr:
		l, err := Eval(e.L, env)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return Eval(e.R, env)
	case OrExpr:
		l, err := Eval(e.L, env)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return Eval(e.R, env)
	case PredicateExpr:
		v, err := evalPredicate(e, env)
		if err != nil {
			return false, err
		}
		if e.Negated {
			return !v, nil
		}
		return v, nil
	default:
		return false, fmt.Errorf("unknown boolean expression node: %T", expr)
	}
}

func evalPredicate(e PredicateExpr, env *Env) (bool, error) {
	text, isSet := resolvePrimary(e.Primary, env)
	switch e.Kind {
	case IsSet:
		return isSet, nil
	case IsFile:
		if env.FE == nil || !isSet {
			return false, nil
		}
		return env.FE.Exists(text), nil
	case IsDirectory:
		if env.IsDir == nil || !isSet {
			return false, nil
		}
		return env.IsDir(text), nil
	case IsRegex:
		if !isSet {
			return false, nil
		}
		_, err := regexp.Compile(text)
		return err == nil, nil
	case IsTrue:
		return isSet && strings.EqualFold(text, "true"), nil
	case IsFalse:
		return isSet && strings.EqualFold(text, "false"), nil
	case IsLiteral:
		return isSet && text == e.Arg, nil
	case IsLike:
		if !isSet {
			return false, nil
		}
		re, err := regexp.Compile(e.Arg)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadFunctionArgs, err)
		}
		return re.MatchString(text), nil
	default:
		return false, fmt.Errorf("unknown predicate kind: %d", e.Kind)
	}
}
