package blurb

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Error reports a problem in a template with its column.
type Error struct {
	Template string
	Col      int
	Msg      string
	// Cause is the underlying Starlark error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("%s:%d: %s", e.Template, e.Col, e.Msg)
	}
	return fmt.Sprintf("%d: %s", e.Col, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Vars are the string globals visible to template expressions.
type Vars map[string]string

var fileOptions = &syntax.FileOptions{}

type part struct {
	text string
	expr syntax.Expr
	col  int
}

// Template is a parsed blurb template.
type Template struct {
	name  string
	parts []part
}

// Parse parses src. Expressions are checked for syntax errors up front.
func Parse(name, src string) (*Template, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			te.Template = name
		}
		return nil, err
	}

	t := &Template{name: name}
	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			t.parts = append(t.parts, part{text: tok.Value, col: tok.Col})
		case TokenExpr:
			expr, err := fileOptions.ParseExpr(name, tok.Value, 0)
			if err != nil {
				return nil, &Error{Template: name, Col: tok.Col, Msg: "invalid expression " + tok.Value, Cause: err}
			}
			t.parts = append(t.parts, part{expr: expr, col: tok.Col})
		case TokenEOF:
		}
	}
	return t, nil
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Render evaluates the template against vars.
func (t *Template) Render(vars Vars) (string, error) {
	globals := make(starlark.StringDict, len(vars))
	for k, v := range vars {
		globals[k] = starlark.String(v)
	}
	globals.Freeze()

	thread := &starlark.Thread{
		Name:  t.name,
		Print: func(_ *starlark.Thread, _ string) {},
	}

	var sb strings.Builder
	for _, p := range t.parts {
		if p.expr == nil {
			sb.WriteString(p.text)
			continue
		}
		v, err := starlark.EvalExprOptions(fileOptions, thread, p.expr, globals)
		if err != nil {
			return "", &Error{Template: t.name, Col: p.col, Msg: err.Error(), Cause: err}
		}
		sb.WriteString(toString(v))
	}
	return sb.String(), nil
}

func toString(v starlark.Value) string {
	switch x := v.(type) {
	case starlark.String:
		return string(x)
	case starlark.NoneType:
		return ""
	default:
		return v.String()
	}
}

// Set is a named collection of templates.
type Set struct {
	templates map[string]*Template
}

// NewSet parses every template in srcs.
func NewSet(srcs map[string]string) (*Set, error) {
	s := &Set{templates: make(map[string]*Template, len(srcs))}
	for name, src := range srcs {
		t, err := Parse(name, src)
		if err != nil {
			return nil, err
		}
		s.templates[name] = t
	}
	return s, nil
}

// Names returns the template names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders the named template. A name without a template renders as "".
func (s *Set) Render(name string, vars Vars) (string, error) {
	t, ok := s.templates[name]
	if !ok {
		return "", nil
	}
	return t.Render(vars)
}
