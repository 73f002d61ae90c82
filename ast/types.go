// Package ast defines the access rule tree that gates exits and locations.
//
// Rules are plain data: no closures, no back references. A loaded tree is
// never mutated, so the same *Rule may be shared by many exits, locations
// and goroutines.
package ast

// Type is the discriminator of a rule node.
type Type string

const (
	TypeConstant     Type = "constant"
	TypeItemCheck    Type = "item_check"
	TypeAnd          Type = "and"
	TypeOr           Type = "or"
	TypeNot          Type = "not"
	TypeCompare      Type = "compare"
	TypeBinaryOp     Type = "binary_op"
	TypeConditional  Type = "conditional"
	TypeRegionCheck  Type = "region_check"
	TypeHelper       Type = "helper"
	TypeFunctionCall Type = "function_call"
)

// Known reports whether t is one of the node types the evaluator understands.
func (t Type) Known() bool {
	switch t {
	case TypeConstant, TypeItemCheck, TypeAnd, TypeOr, TypeNot, TypeCompare,
		TypeBinaryOp, TypeConditional, TypeRegionCheck, TypeHelper, TypeFunctionCall:
		return true
	}
	return false
}

// Comparison operators
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
)

// Arithmetic operators
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
)

// IsCompareOp reports whether op is a comparison operator.
func IsCompareOp(op string) bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		return true
	}
	return false
}

// IsArithmeticOp reports whether op is a binary_op operator.
func IsArithmeticOp(op string) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

// Rule is one node of an access rule tree.
// Only the fields belonging to Type are meaningful; the rest stay zero.
type Rule struct {
	Type Type `json:"type"`

	// constant
	Value any `json:"value,omitempty"`

	// item_check
	Item string `json:"item,omitempty"`

	// and / or
	Conditions []*Rule `json:"conditions,omitempty"`

	// not
	Condition *Rule `json:"condition,omitempty"`

	// compare / binary_op
	Op    string `json:"op,omitempty"`
	Left  *Rule  `json:"left,omitempty"`
	Right *Rule  `json:"right,omitempty"`

	// conditional
	Test    *Rule `json:"test,omitempty"`
	IfTrue  *Rule `json:"if_true,omitempty"`
	IfFalse *Rule `json:"if_false,omitempty"`

	// region_check
	Region string `json:"region,omitempty"`

	// helper
	Name string `json:"name,omitempty"`

	// function_call, dotted attribute path such as "state.has"
	Target string `json:"target,omitempty"`

	// helper / function_call
	Args []*Rule `json:"args,omitempty"`
}
