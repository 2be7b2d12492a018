package xmldelta

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// IdentificationPolicy decides which elements of two document versions are the same logical
// element. Two siblings with equal ID correspond to each other even when their positions differ.
type IdentificationPolicy interface {
	// ID returns the identity key of el.
	ID(el *Element) string
	// SignificantAttributes returns the attributes of el that carry its identity, in
	// declaration order.
	SignificantAttributes(el *Element) []Attr
}

// AttributePolicy treats un-namespaced attributes with one of the listed local names as
// significant.
type AttributePolicy struct {
	Names []string
}

// DefaultPolicy identifies elements by their id and uid attributes.
func DefaultPolicy() AttributePolicy {
	return AttributePolicy{Names: []string{"id", "uid"}}
}

func (p AttributePolicy) ID(el *Element) string {
	return identityKey(el, p.SignificantAttributes(el))
}

func (p AttributePolicy) SignificantAttributes(el *Element) []Attr {
	var attrs []Attr
	for _, a := range el.Attrs {
		if a.Name.Space == "" && slices.Contains(p.Names, a.Name.Local) {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// ExprPolicy selects significant attributes with a boolean expr-lang expression. The expression
// sees Element.Local, Element.Space, Attr.Local, Attr.Space, Attr.Prefix and Attr.Value, for
// example:
//
//	Attr.Space == "" && Attr.Local in ["id", "uid"]
type ExprPolicy struct {
	source  string
	program *vm.Program
}

type exprEnv struct {
	Element exprElement
	Attr    exprAttr
}

type exprElement struct {
	Local string
	Space string
}

type exprAttr struct {
	Local  string
	Space  string
	Prefix string
	Value  string
}

// NewExprPolicy compiles source into a policy. The expression must yield a bool. Compilation
// catches syntax and type errors; an error raised while evaluating the expression for an attribute,
// such as int() of a non-numeric value, makes that attribute non-significant.
func NewExprPolicy(source string) (*ExprPolicy, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling identification expression: %w", err)
	}
	return &ExprPolicy{source: source, program: program}, nil
}

func (p *ExprPolicy) String() string { return p.source }

func (p *ExprPolicy) ID(el *Element) string {
	return identityKey(el, p.SignificantAttributes(el))
}

// SignificantAttributes evaluates the expression once per attribute. An attribute for which the
// evaluation fails is not significant.
func (p *ExprPolicy) SignificantAttributes(el *Element) []Attr {
	var attrs []Attr
	env := exprEnv{Element: exprElement{Local: el.Name.Local, Space: el.Name.Space}}
	for _, a := range el.Attrs {
		env.Attr = exprAttr{Local: a.Name.Local, Space: a.Name.Space, Prefix: a.Prefix, Value: a.Value}
		out, err := expr.Run(p.program, env)
		if err != nil {
			continue
		}
		if ok, _ := out.(bool); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func identityKey(el *Element, significant []Attr) string {
	key := Predicate(el.Name.Local, significant)
	if el.Name.Space != "" {
		key = "{" + el.Name.Space + "}" + key
	}
	return key
}

// Predicate builds a single step XPath expression selecting an element by qualified name and the
// given attribute values, such as r[@uid='1' and @ph='main'].
func Predicate(name string, attrs []Attr) string {
	var b strings.Builder
	b.WriteString(name)
	for i, a := range attrs {
		if i == 0 {
			b.WriteByte('[')
		} else {
			b.WriteString(" and ")
		}
		b.WriteByte('@')
		b.WriteString(qualified(a.Prefix, a.Name.Local))
		b.WriteByte('=')
		b.WriteString(xpathLiteral(a.Value))
	}
	if len(attrs) > 0 {
		b.WriteByte(']')
	}
	return b.String()
}

// xpathLiteral quotes s for use in an XPath expression. XPath 1.0 has no escapes, so a value
// holding both quote characters is split up with concat().
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, part := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if part != "" {
			args = append(args, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
