package ast

// Constructors used by game plugins, the dialect parser and tests.

func Const(v any) *Rule { return &Rule{Type: TypeConstant, Value: NormalizeNumber(v)} }

func True() *Rule  { return Const(true) }
func False() *Rule { return Const(false) }

func Item(name string) *Rule { return &Rule{Type: TypeItemCheck, Item: name} }

func And(conditions ...*Rule) *Rule { return &Rule{Type: TypeAnd, Conditions: conditions} }

func Or(conditions ...*Rule) *Rule { return &Rule{Type: TypeOr, Conditions: conditions} }

func Not(condition *Rule) *Rule { return &Rule{Type: TypeNot, Condition: condition} }

func Compare(op string, left, right *Rule) *Rule {
	return &Rule{Type: TypeCompare, Op: op, Left: left, Right: right}
}

func BinaryOp(op string, left, right *Rule) *Rule {
	return &Rule{Type: TypeBinaryOp, Op: op, Left: left, Right: right}
}

func Conditional(test, ifTrue, ifFalse *Rule) *Rule {
	return &Rule{Type: TypeConditional, Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

func RegionCheck(region string) *Rule { return &Rule{Type: TypeRegionCheck, Region: region} }

// Helper builds a helper node. Non-*Rule arguments become constants.
func Helper(name string, args ...any) *Rule {
	return &Rule{Type: TypeHelper, Name: name, Args: toArgs(args)}
}

// Call builds a function_call node. Non-*Rule arguments become constants.
func Call(target string, args ...any) *Rule {
	return &Rule{Type: TypeFunctionCall, Target: target, Args: toArgs(args)}
}

func toArgs(args []any) []*Rule {
	if len(args) == 0 {
		return nil
	}
	out := make([]*Rule, len(args))
	for i, a := range args {
		if r, ok := a.(*Rule); ok {
			out[i] = r
			continue
		}
		out[i] = Const(a)
	}
	return out
}
