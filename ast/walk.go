package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Children returns the direct child nodes of r in evaluation order.
// Nil children are skipped.
func (r *Rule) Children() []*Rule {
	if r == nil {
		return nil
	}
	var out []*Rule
	add := func(c ...*Rule) {
		for _, n := range c {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	switch r.Type {
	case TypeAnd, TypeOr:
		add(r.Conditions...)
	case TypeNot:
		add(r.Condition)
	case TypeCompare, TypeBinaryOp:
		add(r.Left, r.Right)
	case TypeConditional:
		add(r.Test, r.IfTrue, r.IfFalse)
	case TypeHelper, TypeFunctionCall:
		add(r.Args...)
	}
	return out
}

// Walk visits r and its descendants in pre-order.
// Returning false from fn skips the children of the current node.
func Walk(r *Rule, fn func(*Rule) bool) {
	if r == nil {
		return
	}
	if !fn(r) {
		return
	}
	for _, c := range r.Children() {
		Walk(c, fn)
	}
}

// Helpers returns the sorted, de-duplicated helper names referenced by r.
// function_call targets contribute their last attribute segment.
func Helpers(r *Rule) []string {
	return collect(r, func(n *Rule) string {
		switch n.Type {
		case TypeHelper:
			return n.Name
		case TypeFunctionCall:
			return AttributeName(n.Target)
		}
		return ""
	})
}

// Regions returns the sorted region names referenced by region_check nodes.
func Regions(r *Rule) []string {
	return collect(r, func(n *Rule) string {
		if n.Type == TypeRegionCheck {
			return n.Region
		}
		return ""
	})
}

// Items returns the sorted item names referenced by item_check nodes.
func Items(r *Rule) []string {
	return collect(r, func(n *Rule) string {
		if n.Type == TypeItemCheck {
			return n.Item
		}
		return ""
	})
}

func collect(r *Rule, pick func(*Rule) string) []string {
	seen := make(map[string]struct{})
	Walk(r, func(n *Rule) bool {
		if s := pick(n); s != "" {
			seen[s] = struct{}{}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AttributeName returns the last segment of a dotted target:
// "state.CanAcquireAtLeast" -> "CanAcquireAtLeast".
func AttributeName(target string) string {
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		return target[i+1:]
	}
	return target
}

// String renders r in a compact infix form for log lines.
func (r *Rule) String() string {
	if r == nil {
		return "<nil>"
	}
	var sb strings.Builder
	r.write(&sb)
	return sb.String()
}

func (r *Rule) write(sb *strings.Builder) {
	if r == nil {
		sb.WriteString("<nil>")
		return
	}
	switch r.Type {
	case TypeConstant:
		if s, ok := r.Value.(string); ok {
			fmt.Fprintf(sb, "%q", s)
		} else {
			fmt.Fprintf(sb, "%v", r.Value)
		}
	case TypeItemCheck:
		fmt.Fprintf(sb, "has(%q)", r.Item)
	case TypeAnd, TypeOr:
		sep := " and "
		if r.Type == TypeOr {
			sep = " or "
		}
		sb.WriteByte('(')
		for i, c := range r.Conditions {
			if i > 0 {
				sb.WriteString(sep)
			}
			c.write(sb)
		}
		sb.WriteByte(')')
	case TypeNot:
		sb.WriteString("not ")
		r.Condition.write(sb)
	case TypeCompare, TypeBinaryOp:
		sb.WriteByte('(')
		r.Left.write(sb)
		fmt.Fprintf(sb, " %s ", r.Op)
		r.Right.write(sb)
		sb.WriteByte(')')
	case TypeConditional:
		sb.WriteByte('(')
		r.IfTrue.write(sb)
		sb.WriteString(" if ")
		r.Test.write(sb)
		sb.WriteString(" else ")
		r.IfFalse.write(sb)
		sb.WriteByte(')')
	case TypeRegionCheck:
		fmt.Fprintf(sb, "region(%q)", r.Region)
	case TypeHelper, TypeFunctionCall:
		name := r.Name
		if r.Type == TypeFunctionCall {
			name = r.Target
		}
		sb.WriteString(name)
		sb.WriteByte('(')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb)
		}
		sb.WriteByte(')')
	default:
		fmt.Fprintf(sb, "<%s>", r.Type)
	}
}
