package parse

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/world"
)

// Dialects lists the rule-string dialects the loader can convert.
var Dialects = []string{"oot"}

var (
	// (Small_Key_Forest_Temple, 3) is shorthand for has_count.
	tuplePattern = regexp.MustCompile(`(^|[^A-Za-z0-9_])\(\s*(\w+)\s*,\s*(\w+)\s*\)`)
	truePattern  = regexp.MustCompile(`\bTrue\b`)
	falsePattern = regexp.MustCompile(`\bFalse\b`)
)

// Dialect converts legacy rule strings into rule trees. A Dialect is bound
// to one document: identifiers resolve against its items and settings.
// Identical strings are parsed once.
type Dialect struct {
	name     string
	items    map[string]bool
	settings map[string]bool

	mu    sync.Mutex
	cache map[string]*ast.Rule
}

// NewDialect returns the dialect called name for doc.
func NewDialect(name string, doc *world.Document) *Dialect {
	d := &Dialect{
		name:     name,
		items:    make(map[string]bool),
		settings: make(map[string]bool, len(doc.Settings)),
		cache:    make(map[string]*ast.Rule),
	}
	for _, item := range doc.Items {
		d.items[item.Name] = true
	}
	for base, p := range doc.Progression {
		d.items[base] = true
		for _, tier := range p.Tiers {
			d.items[tier.Name] = true
		}
		for _, pickup := range p.Pickups {
			d.items[pickup] = true
		}
	}
	for _, r := range doc.Regions {
		for _, l := range r.Locations {
			if l.Item != nil {
				d.items[l.Item.Name] = true
			}
		}
	}
	for key := range doc.Settings {
		d.settings[key] = true
	}
	return d
}

func (d *Dialect) Name() string { return d.name }

// Parse converts src into a rule tree.
func (d *Dialect) Parse(src string) (*ast.Rule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rule, ok := d.cache[src]; ok {
		return rule, nil
	}

	tree, err := parser.Parse(rewrite(src))
	if err != nil {
		return nil, &ParseError{Source: d.name, Message: "cannot parse " + strconv.Quote(src), Cause: err}
	}
	rule, err := d.convert(tree.Node)
	if err != nil {
		return nil, err
	}
	d.cache[src] = rule
	return rule, nil
}

// rewrite turns the Python spellings expr does not know into expr syntax.
func rewrite(src string) string {
	src = strings.TrimSpace(src)
	src = truePattern.ReplaceAllString(src, "true")
	src = falsePattern.ReplaceAllString(src, "false")
	return tuplePattern.ReplaceAllString(src, "${1}has_count(${2}, ${3})")
}

func (d *Dialect) convert(node exprast.Node) (*ast.Rule, error) {
	switch n := node.(type) {
	case *exprast.BoolNode:
		return ast.Const(n.Value), nil
	case *exprast.IntegerNode:
		return ast.Const(n.Value), nil
	case *exprast.FloatNode:
		return ast.Const(n.Value), nil
	case *exprast.StringNode:
		return ast.Const(n.Value), nil
	case *exprast.NilNode:
		return ast.False(), nil
	case *exprast.IdentifierNode:
		return d.identifier(n.Value), nil
	case *exprast.ChainNode:
		return d.convert(n.Node)
	case *exprast.UnaryNode:
		return d.unary(n)
	case *exprast.BinaryNode:
		return d.binary(n)
	case *exprast.ConditionalNode:
		test, err := d.convert(n.Cond)
		if err != nil {
			return nil, err
		}
		ifTrue, err := d.convert(n.Exp1)
		if err != nil {
			return nil, err
		}
		ifFalse, err := d.convert(n.Exp2)
		if err != nil {
			return nil, err
		}
		return ast.Conditional(test, ifTrue, ifFalse), nil
	case *exprast.CallNode:
		return d.call(n)
	case *exprast.BuiltinNode:
		args, err := d.args(n.Arguments)
		if err != nil {
			return nil, err
		}
		return &ast.Rule{Type: ast.TypeHelper, Name: n.Name, Args: args}, nil
	case *exprast.MemberNode:
		target, ok := memberPath(n)
		if !ok {
			return nil, d.unsupported(node)
		}
		return &ast.Rule{Type: ast.TypeFunctionCall, Target: target}, nil
	}
	return nil, d.unsupported(node)
}

// identifier resolves a bare name: an item first, then a setting. Unknown
// capitalised names are taken to be items, anything else a helper.
func (d *Dialect) identifier(name string) *ast.Rule {
	spaced := strings.ReplaceAll(name, "_", " ")
	switch {
	case d.items[spaced]:
		return ast.Item(spaced)
	case d.items[name]:
		return ast.Item(name)
	case d.settings[name]:
		return ast.Helper("setting", name)
	case startsUpper(name):
		return ast.Item(spaced)
	}
	return ast.Helper(name)
}

func (d *Dialect) unary(n *exprast.UnaryNode) (*ast.Rule, error) {
	operand, err := d.convert(n.Node)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "not", "!":
		return ast.Not(operand), nil
	case "-":
		if operand.Type == ast.TypeConstant {
			switch v := operand.Value.(type) {
			case int:
				return ast.Const(-v), nil
			case float64:
				return ast.Const(-v), nil
			}
		}
		return ast.BinaryOp(ast.OpSub, ast.Const(0), operand), nil
	case "+":
		return operand, nil
	}
	return nil, d.unsupported(n)
}

func (d *Dialect) binary(n *exprast.BinaryNode) (*ast.Rule, error) {
	left, err := d.convert(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := d.convert(n.Right)
	if err != nil {
		return nil, err
	}
	switch op := n.Operator; {
	case op == "and" || op == "&&":
		return ast.And(flatten(ast.TypeAnd, left, right)...), nil
	case op == "or" || op == "||":
		return ast.Or(flatten(ast.TypeOr, left, right)...), nil
	case ast.IsCompareOp(op):
		return ast.Compare(op, left, right), nil
	case ast.IsArithmeticOp(op):
		return ast.BinaryOp(op, left, right), nil
	}
	return nil, d.unsupported(n)
}

// call converts f(args) into a helper and obj.f(args) into a function_call.
// Bare identifier arguments are names, not rules: can_use(Hookshot) passes
// the string "Hookshot".
func (d *Dialect) call(n *exprast.CallNode) (*ast.Rule, error) {
	args, err := d.args(n.Arguments)
	if err != nil {
		return nil, err
	}
	switch callee := n.Callee.(type) {
	case *exprast.IdentifierNode:
		return &ast.Rule{Type: ast.TypeHelper, Name: callee.Value, Args: args}, nil
	case *exprast.MemberNode:
		if target, ok := memberPath(callee); ok {
			return &ast.Rule{Type: ast.TypeFunctionCall, Target: target, Args: args}, nil
		}
	}
	return nil, d.unsupported(n)
}

func (d *Dialect) args(nodes []exprast.Node) ([]*ast.Rule, error) {
	args := make([]*ast.Rule, 0, len(nodes))
	for _, a := range nodes {
		if ident, ok := a.(*exprast.IdentifierNode); ok {
			args = append(args, ast.Const(strings.ReplaceAll(ident.Value, "_", " ")))
			continue
		}
		rule, err := d.convert(a)
		if err != nil {
			return nil, err
		}
		args = append(args, rule)
	}
	return args, nil
}

func (d *Dialect) unsupported(node exprast.Node) error {
	return &ParseError{Source: d.name, Message: "unsupported expression " + strconv.Quote(node.String())}
}

// memberPath flattens a.b.c into "a.b.c".
func memberPath(n *exprast.MemberNode) (string, bool) {
	prop, ok := n.Property.(*exprast.StringNode)
	if !ok {
		return "", false
	}
	switch obj := n.Node.(type) {
	case *exprast.IdentifierNode:
		return obj.Value + "." + prop.Value, true
	case *exprast.MemberNode:
		parent, ok := memberPath(obj)
		if !ok {
			return "", false
		}
		return parent + "." + prop.Value, true
	case *exprast.ChainNode:
		if inner, ok := obj.Node.(*exprast.MemberNode); ok {
			parent, ok := memberPath(inner)
			return parent + "." + prop.Value, ok
		}
	}
	return "", false
}

// flatten merges nested and/or nodes of the same type, so a and b and c
// becomes one node with three conditions.
func flatten(t ast.Type, rules ...*ast.Rule) []*ast.Rule {
	out := make([]*ast.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Type == t {
			out = append(out, r.Conditions...)
			continue
		}
		out = append(out, r)
	}
	return out
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
