// Package eval interprets access rules against a snapshot view.
//
// Evaluation never fails: malformed nodes, unknown helpers and helper panics
// are logged and degrade to a safe default for that node only.
package eval

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/internal/metrics"
	"github.com/mxkacsa/worldsync/plugin"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for recoverable rule errors.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithMetrics sets the collectors for recoverable rule errors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// Evaluator is a tree-walking interpreter over ast.Rule. It holds no
// per-evaluation state and is safe for concurrent use.
type Evaluator struct {
	registry *plugin.Registry
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates an evaluator resolving helpers through registry.
func New(registry *plugin.Registry, opts ...Option) *Evaluator {
	if registry == nil {
		registry = plugin.NewRegistry()
	}
	e := &Evaluator{registry: registry, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the plugin registry.
func (e *Evaluator) Registry() *plugin.Registry { return e.registry }

// Logger returns the evaluator's logger.
func (e *Evaluator) Logger() zerolog.Logger { return e.log }

// Bool evaluates rule and coerces the result at the boolean boundary.
// A nil rule means "no gate" and is true.
func (e *Evaluator) Bool(rule *ast.Rule, ctx plugin.Context) bool {
	return plugin.Bool(e.Evaluate(rule, ctx))
}

// Evaluate returns the value of rule: bool, int, float64, string or nil.
// A nil rule evaluates to true.
func (e *Evaluator) Evaluate(rule *ast.Rule, ctx plugin.Context) any {
	if rule == nil {
		return true
	}

	switch rule.Type {
	case ast.TypeConstant:
		return rule.Value

	case ast.TypeItemCheck:
		if rule.Item == "" {
			return e.malformed(rule, "item_check without item", false)
		}
		return ctx.Has(rule.Item)

	case ast.TypeAnd:
		for _, c := range rule.Conditions {
			if c == nil {
				e.malformed(rule, "nil condition", true)
				continue
			}
			if !e.Bool(c, ctx) {
				return false
			}
		}
		return true

	case ast.TypeOr:
		for _, c := range rule.Conditions {
			if c == nil {
				e.malformed(rule, "nil condition", false)
				continue
			}
			if e.Bool(c, ctx) {
				return true
			}
		}
		return false

	case ast.TypeNot:
		if rule.Condition == nil {
			return e.malformed(rule, "not without condition", true)
		}
		return !e.Bool(rule.Condition, ctx)

	case ast.TypeCompare:
		return e.compare(rule, ctx)

	case ast.TypeBinaryOp:
		return e.binaryOp(rule, ctx)

	case ast.TypeConditional:
		test := false
		if rule.Test == nil {
			e.malformed(rule, "conditional without test", false)
		} else {
			test = e.Bool(rule.Test, ctx)
		}
		if test {
			if rule.IfTrue == nil {
				return true
			}
			return e.Evaluate(rule.IfTrue, ctx)
		}
		if rule.IfFalse == nil {
			return false
		}
		return e.Evaluate(rule.IfFalse, ctx)

	case ast.TypeRegionCheck:
		if rule.Region == "" {
			return e.malformed(rule, "region_check without region", false)
		}
		return ctx.IsRegionReachable(rule.Region)

	case ast.TypeHelper:
		if rule.Name == "" {
			return e.malformed(rule, "helper without name", false)
		}
		return e.callHelper(rule.Name, rule.Args, ctx)

	case ast.TypeFunctionCall:
		name := ast.AttributeName(rule.Target)
		if name == "" {
			return e.malformed(rule, "function_call without target", false)
		}
		return e.callHelper(name, rule.Args, ctx)

	default:
		return e.malformed(rule, "unknown node type", false)
	}
}

// compare evaluates both sides; a left item_check reads the item count.
func (e *Evaluator) compare(rule *ast.Rule, ctx plugin.Context) any {
	if !ast.IsCompareOp(rule.Op) {
		return e.malformed(rule, "unknown comparison operator", false)
	}
	if rule.Left == nil || rule.Right == nil {
		return e.malformed(rule, "compare missing operand", false)
	}

	var left any
	if rule.Left.Type == ast.TypeItemCheck {
		left = ctx.Count(rule.Left.Item)
	} else {
		left = e.Evaluate(rule.Left, ctx)
	}
	right := e.Evaluate(rule.Right, ctx)
	return compareValues(rule.Op, left, right)
}

func compareValues(op string, left, right any) bool {
	ln, lok := plugin.Number(left)
	rn, rok := plugin.Number(right)
	if lok && rok {
		switch op {
		case ast.OpEqual:
			return ln == rn
		case ast.OpNotEqual:
			return ln != rn
		case ast.OpGreater:
			return ln > rn
		case ast.OpGreaterEqual:
			return ln >= rn
		case ast.OpLess:
			return ln < rn
		case ast.OpLessEqual:
			return ln <= rn
		}
		return false
	}

	switch op {
	case ast.OpEqual:
		return plugin.Equal(left, right)
	case ast.OpNotEqual:
		return !plugin.Equal(left, right)
	}
	ls, rs := plugin.String(left), plugin.String(right)
	switch op {
	case ast.OpGreater:
		return ls > rs
	case ast.OpGreaterEqual:
		return ls >= rs
	case ast.OpLess:
		return ls < rs
	case ast.OpLessEqual:
		return ls <= rs
	}
	return false
}

// binaryOp is integer arithmetic; division and modulo by zero are 0.
func (e *Evaluator) binaryOp(rule *ast.Rule, ctx plugin.Context) any {
	if !ast.IsArithmeticOp(rule.Op) {
		return e.malformed(rule, "unknown arithmetic operator", 0)
	}
	if rule.Left == nil || rule.Right == nil {
		return e.malformed(rule, "binary_op missing operand", 0)
	}

	var lv any
	if rule.Left.Type == ast.TypeItemCheck {
		lv = ctx.Count(rule.Left.Item)
	} else {
		lv = e.Evaluate(rule.Left, ctx)
	}
	var rv any
	if rule.Right.Type == ast.TypeItemCheck {
		rv = ctx.Count(rule.Right.Item)
	} else {
		rv = e.Evaluate(rule.Right, ctx)
	}
	l, r := plugin.Int(lv), plugin.Int(rv)

	switch rule.Op {
	case ast.OpAdd:
		return l + r
	case ast.OpSub:
		return l - r
	case ast.OpMul:
		return l * r
	case ast.OpDiv:
		if r == 0 {
			return 0
		}
		return l / r
	default:
		if r == 0 {
			return 0
		}
		return l % r
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (e *Evaluator) callHelper(name string, argRules []*ast.Rule, ctx plugin.Context) any {
	game := ""
	if w := ctx.World(); w != nil {
		game = w.Game
	}

	fn, resolved, ok := e.registry.Resolve(game, name)
	if !ok {
		e.log.Warn().Str("game", game).Str("helper", name).Msg("unknown helper, evaluating to false")
		e.metrics.UnknownHelper(game)
		return false
	}

	args := make([]any, len(argRules))
	for i, a := range argRules {
		if a == nil {
			continue
		}
		args[i] = e.Evaluate(a, ctx)
	}
	return e.invoke(resolved, fn, ctx, args)
}

func (e *Evaluator) invoke(name string, fn plugin.HelperFunc, ctx plugin.Context, args []any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("helper", name).Str("panic", fmt.Sprint(r)).Msg("helper panicked, evaluating to false")
			e.metrics.HelperPanic(name)
			result = false
		}
	}()
	return ast.NormalizeNumber(fn(ctx, args))
}

func (e *Evaluator) malformed(rule *ast.Rule, reason string, fallback any) any {
	e.log.Warn().
		Str("type", string(rule.Type)).
		Str("rule", rule.String()).
		Interface("default", fallback).
		Msg("malformed rule node: " + reason)
	e.metrics.MalformedNode(string(rule.Type))
	return fallback
}
