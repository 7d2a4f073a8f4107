package term

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/tableau/pkg/errors"
)

// Parse reads a term in S-expression syntax:
//
//	A                       named concept
//	top, bottom             constants
//	(not C)                 negation
//	(and C D ...)           conjunction
//	(or C D ...)            disjunction
//	(some r C), (all r C)   role restrictions
//	(at-least n r)          cardinality restrictions
//	(at-most n r)
//	(one-of a)              nominal
//	(literal "v")           data value
//	(implies C D)           inclusion axiom
//	(equivalent C D)        equivalence axiom
//
// Parse returns an [errors.ErrCodeParse] error for malformed input.
func Parse(s string) (*Term, error) {
	p := &parser{toks: tokenize(s)}
	if len(p.toks) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "empty term")
	}
	t, err := p.term()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %q", s)
	}
	if p.pos != len(p.toks) {
		return nil, errors.New(errors.ErrCodeParse, "parse %q: trailing input at %q", s, p.toks[p.pos])
	}
	return t, nil
}

// MustParse is like [Parse] but panics on error. It is intended for tests
// and static tables.
func MustParse(s string) *Term {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	toks []string
	pos  int
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	inQuote := false
	for _, r := range s {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '"' {
				inQuote = false
				flush()
			}
		case r == '"':
			flush()
			inQuote = true
			cur.WriteRune(r)
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func (p *parser) next() (string, error) {
	if p.pos >= len(p.toks) {
		return "", fmt.Errorf("unexpected end of input")
	}
	tok := p.toks[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) atom() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok == "(" || tok == ")" {
		return "", fmt.Errorf("expected name, got %q", tok)
	}
	return tok, nil
}

func (p *parser) term() (*Term, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok {
	case ")":
		return nil, fmt.Errorf("unexpected %q", tok)
	case "(":
	case "top":
		return top, nil
	case "bottom":
		return bottom, nil
	default:
		if err := errors.ValidateName("concept", tok); err != nil {
			return nil, err
		}
		return Atom(tok), nil
	}

	op, err := p.atom()
	if err != nil {
		return nil, err
	}
	var t *Term
	switch op {
	case "not":
		c, err := p.term()
		if err != nil {
			return nil, err
		}
		t = Not(c)
	case "and", "or":
		var args []*Term
		for p.pos < len(p.toks) && p.toks[p.pos] != ")" {
			c, err := p.term()
			if err != nil {
				return nil, err
			}
			args = append(args, c)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s needs at least one operand", op)
		}
		if op == "and" {
			t = And(args...)
		} else {
			t = Or(args...)
		}
	case "some", "all":
		role, err := p.atom()
		if err != nil {
			return nil, err
		}
		c, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == "some" {
			t = Some(role, c)
		} else {
			t = All(role, c)
		}
	case "at-least", "at-most":
		ns, err := p.atom()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(ns)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid cardinality %q", ns)
		}
		role, err := p.atom()
		if err != nil {
			return nil, err
		}
		if op == "at-least" {
			t = AtLeast(n, role)
		} else {
			t = AtMost(n, role)
		}
	case "one-of":
		name, err := p.atom()
		if err != nil {
			return nil, err
		}
		t = OneOf(name)
	case "literal":
		v, err := p.atom()
		if err != nil {
			return nil, err
		}
		if uq, err := strconv.Unquote(v); err == nil {
			v = uq
		}
		t = Literal(v)
	case "implies", "equivalent":
		a, err := p.term()
		if err != nil {
			return nil, err
		}
		b, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == "implies" {
			t = Implies(a, b)
		} else {
			t = Equivalent(a, b)
		}
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}

	tok, err = p.next()
	if err != nil {
		return nil, err
	}
	if tok != ")" {
		return nil, fmt.Errorf("expected ')', got %q", tok)
	}
	return t, nil
}
