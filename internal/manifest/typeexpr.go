package manifest

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
	"golang.org/x/text/unicode/norm"

	"injekt/internal/types"
)

// TypeExpr is a parsed type expression. Function types have an empty Name
// and use Params and Result.
type TypeExpr struct {
	Star     bool
	Tags     []TagExpr
	Name     string
	Args     []ArgExpr
	Func     bool
	Params   []*TypeExpr
	Result   *TypeExpr
	Nullable bool
	// Offset of the expression inside the parsed text.
	Offset int
}

// TagExpr is one @Tag<...> prefix.
type TagExpr struct {
	Name   string
	Args   []*TypeExpr
	Offset int
}

// ArgExpr is a type argument with its use-site variance.
type ArgExpr struct {
	Variance types.Variance
	Type     *TypeExpr
}

// TypeParamExpr declares a type parameter: modifiers, a name and optional
// upper bounds joined by '&'.
type TypeParamExpr struct {
	Name     string
	Variance types.Variance
	Spread   bool
	Reified  bool
	Bounds   []*TypeExpr
	Offset   int
}

// SyntaxError locates a malformed type expression.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// ParseType parses a type expression:
//
//	type := '*' | tags base '?'?
//	tags := ('@' qname ('<' type (',' type)* '>')?)*
//	base := qname ('<' arg (',' arg)* '>')? | '(' (type (',' type)*)? ')' '->' type
//	arg  := ('in' | 'out')? type
func ParseType(text string) (*TypeExpr, error) {
	p := newTypeParser(text)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTypeParam parses "[@spread] [reified] [in|out] Name [: Bound (& Bound)*]".
func ParseTypeParam(text string) (*TypeParamExpr, error) {
	p := newTypeParser(text)
	tp := &TypeParamExpr{}
	for {
		m := p.next(spreadMatcher, reifiedMatcher, inMatcher, outMatcher)
		switch m.Code {
		case spreadToken:
			tp.Spread = true
			continue
		case reifiedToken:
			tp.Reified = true
			continue
		case inToken:
			tp.Variance = types.In
			continue
		case outToken:
			tp.Variance = types.Out
			continue
		}
		break
	}
	m := p.next(nameMatcher)
	if m.Code != nameToken {
		return nil, p.errorf("expected type parameter name")
	}
	tp.Name, tp.Offset = m.Text(p.c), m.Offset
	if strings.Contains(tp.Name, ".") {
		return nil, &SyntaxError{Offset: m.Offset, Msg: "type parameter names are not qualified"}
	}
	if p.next(colonMatcher).Code == colonToken {
		for {
			b, err := p.parseType()
			if err != nil {
				return nil, err
			}
			tp.Bounds = append(tp.Bounds, b)
			if p.next(ampMatcher).Code != ampToken {
				break
			}
		}
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return tp, nil
}

type typeParser struct {
	c *parsly.Cursor
}

func newTypeParser(text string) *typeParser {
	return &typeParser{c: parsly.NewCursor("", []byte(norm.NFC.String(text)), 0)}
}

func (p *typeParser) next(tokens ...*parsly.Token) *parsly.TokenMatch {
	return p.c.MatchAfterOptional(whitespaceMatcher, tokens...)
}

func (p *typeParser) errorf(format string, args ...any) error {
	p.c.MatchOne(whitespaceMatcher)
	return &SyntaxError{Offset: p.c.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *typeParser) expectEOF() error {
	p.c.MatchOne(whitespaceMatcher)
	if p.c.Pos < p.c.InputSize {
		return p.errorf("unexpected %q", string(p.c.Input[p.c.Pos:]))
	}
	return nil
}

func (p *typeParser) parseType() (*TypeExpr, error) {
	p.c.MatchOne(whitespaceMatcher)
	t := &TypeExpr{Offset: p.c.Pos}
	if p.next(starMatcher).Code == starToken {
		t.Star = true
		return t, nil
	}
	for p.next(atMatcher).Code == atToken {
		m := p.c.MatchOne(nameMatcher)
		if m.Code != nameToken {
			return nil, p.errorf("expected tag name after '@'")
		}
		tag := TagExpr{Name: m.Text(p.c), Offset: m.Offset}
		if p.next(ltMatcher).Code == ltToken {
			args, err := p.parseArgs(false)
			if err != nil {
				return nil, err
			}
			for _, a := range args {
				tag.Args = append(tag.Args, a.Type)
			}
		}
		t.Tags = append(t.Tags, tag)
	}

	m := p.next(nameMatcher, lparenMatcher)
	switch m.Code {
	case nameToken:
		t.Name = m.Text(p.c)
		if p.next(ltMatcher).Code == ltToken {
			args, err := p.parseArgs(true)
			if err != nil {
				return nil, err
			}
			t.Args = args
		}
	case lparenToken:
		t.Func = true
		if p.next(rparenMatcher).Code != rparenToken {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				t.Params = append(t.Params, param)
				sep := p.next(commaMatcher, rparenMatcher)
				if sep.Code == rparenToken {
					break
				}
				if sep.Code != commaToken {
					return nil, p.errorf("expected ',' or ')' in function parameters")
				}
			}
		}
		if p.next(arrowMatcher).Code != arrowToken {
			// "(() -> T)?" parenthesizes a function type to make it nullable.
			if len(t.Params) == 1 && t.Params[0].Func && !t.Params[0].Nullable && len(t.Tags) == 0 {
				inner := t.Params[0]
				inner.Offset = t.Offset
				if p.next(questionMatcher).Code == questionToken {
					inner.Nullable = true
				}
				return inner, nil
			}
			return nil, p.errorf("expected '->' after function parameters")
		}
		res, err := p.parseType()
		if err != nil {
			return nil, err
		}
		t.Result = res
	default:
		return nil, p.errorf("expected a type")
	}
	if p.next(questionMatcher).Code == questionToken {
		t.Nullable = true
	}
	return t, nil
}

// parseArgs parses the arguments after '<' up to and including '>'.
func (p *typeParser) parseArgs(variance bool) ([]ArgExpr, error) {
	var out []ArgExpr
	for {
		arg := ArgExpr{}
		if variance {
			switch p.next(inMatcher, outMatcher).Code {
			case inToken:
				arg.Variance = types.In
			case outToken:
				arg.Variance = types.Out
			}
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		arg.Type = t
		out = append(out, arg)
		sep := p.next(commaMatcher, gtMatcher)
		switch sep.Code {
		case commaToken:
			continue
		case gtToken:
			return out, nil
		}
		return nil, p.errorf("expected ',' or '>' in type arguments")
	}
}

// String renders the expression back in canonical spacing.
func (t *TypeExpr) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeExpr) write(sb *strings.Builder) {
	if t.Star {
		sb.WriteByte('*')
		return
	}
	for _, tag := range t.Tags {
		sb.WriteByte('@')
		sb.WriteString(tag.Name)
		if len(tag.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range tag.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.write(sb)
			}
			sb.WriteByte('>')
		}
		sb.WriteByte(' ')
	}
	if t.Func {
		if t.Nullable {
			sb.WriteByte('(')
		}
		sb.WriteByte('(')
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.write(sb)
		}
		sb.WriteString(") -> ")
		t.Result.write(sb)
		if t.Nullable {
			sb.WriteString(")?")
		}
		return
	}
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			switch a.Variance {
			case types.In:
				sb.WriteString("in ")
			case types.Out:
				sb.WriteString("out ")
			}
			a.Type.write(sb)
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
}
