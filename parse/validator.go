package parse

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/world"
)

// Validator checks a decoded document before it is built.
type Validator interface {
	Validate(doc *world.Document) error
}

// =============================================================================
// Struct validation
// =============================================================================

// StructValidator checks the `validate` tags on world.Document.
type StructValidator struct {
	validate *validator.Validate
}

func NewStructValidator() *StructValidator {
	return &StructValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *StructValidator) Validate(doc *world.Document) error {
	err := v.validate.Struct(doc)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	errs := &ValidationErrors{}
	for _, fe := range fieldErrs {
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		errs.add(&RuleError{Path: fe.Namespace(), Message: msg})
	}
	return errs.orNil()
}

// =============================================================================
// Reference validation
// =============================================================================

// ReferenceValidator checks that names used by the document exist and that
// region and location names are unique.
type ReferenceValidator struct{}

func (v *ReferenceValidator) Validate(doc *world.Document) error {
	errs := &ValidationErrors{}

	regions := make(map[string]bool, len(doc.Regions))
	locations := make(map[string]string)
	for i, r := range doc.Regions {
		if regions[r.Name] {
			errs.add(newRuleError(fmt.Sprintf("regions[%d].name", i), "duplicate region %q", r.Name))
		}
		regions[r.Name] = true
		for j, l := range r.Locations {
			if other, dup := locations[l.Name]; dup {
				errs.add(newRuleError(fmt.Sprintf("regions[%d].locations[%d].name", i, j),
					"duplicate location %q, also in region %q", l.Name, other))
				continue
			}
			locations[l.Name] = r.Name
		}
	}

	for i, r := range doc.Regions {
		for j, e := range r.Exits {
			if !regions[e.ConnectedRegion] {
				errs.add(newRuleError(fmt.Sprintf("regions[%d].exits[%d].connected_region", i, j),
					"unknown region %q", e.ConnectedRegion))
			}
		}
		if r.BossLocation != "" {
			if _, ok := locations[r.BossLocation]; !ok {
				errs.add(newRuleError(fmt.Sprintf("regions[%d].boss_location", i),
					"unknown location %q", r.BossLocation))
			}
		}
	}

	starts := doc.StartRegions
	if len(starts) == 0 {
		starts = []string{world.DefaultStartRegion}
	}
	for i, s := range starts {
		if !regions[s] {
			errs.add(newRuleError(fmt.Sprintf("start_regions[%d]", i), "unknown start region %q", s))
		}
	}

	return errs.orNil()
}

// =============================================================================
// Rule validation
// =============================================================================

// RuleValidator checks every access rule: node types, operators, required
// fields, referenced regions and helper names. Unknown helpers only warn
// unless Strict is set, since the evaluator treats them as false.
type RuleValidator struct {
	Registry *plugin.Registry
	Strict   bool
	Log      zerolog.Logger
}

func (v *RuleValidator) Validate(doc *world.Document) error {
	errs := &ValidationErrors{}

	regions := make(map[string]bool, len(doc.Regions))
	for _, r := range doc.Regions {
		regions[r.Name] = true
	}

	forEachRule(doc, func(path string, rule *ast.Rule) {
		walkPath(path, rule, func(path string, n *ast.Rule) {
			errs.add(v.checkNode(doc.Game, regions, path, n))
		})
	})
	return errs.orNil()
}

func (v *RuleValidator) checkNode(game string, regions map[string]bool, path string, n *ast.Rule) error {
	if !n.Type.Known() {
		return newRuleError(path, "unknown node type %q", n.Type)
	}

	switch n.Type {
	case ast.TypeItemCheck:
		if n.Item == "" {
			return newRuleError(path, "item_check needs an item")
		}
	case ast.TypeCompare:
		if !ast.IsCompareOp(n.Op) {
			return newRuleError(path, "unknown comparison operator %q", n.Op)
		}
		if n.Left == nil || n.Right == nil {
			return newRuleError(path, "compare needs left and right")
		}
	case ast.TypeBinaryOp:
		if !ast.IsArithmeticOp(n.Op) {
			return newRuleError(path, "unknown arithmetic operator %q", n.Op)
		}
		if n.Left == nil || n.Right == nil {
			return newRuleError(path, "binary_op needs left and right")
		}
	case ast.TypeNot:
		if n.Condition == nil {
			v.Log.Warn().Str("path", path).Msg("not without condition evaluates to true")
		}
	case ast.TypeRegionCheck:
		if n.Region == "" {
			return newRuleError(path, "region_check needs a region")
		}
		if !regions[n.Region] {
			return newRuleError(path, "unknown region %q", n.Region)
		}
	case ast.TypeHelper, ast.TypeFunctionCall:
		name := n.Name
		if n.Type == ast.TypeFunctionCall {
			name = ast.AttributeName(n.Target)
		}
		if name == "" {
			return newRuleError(path, "%s needs a name", n.Type)
		}
		if v.Registry != nil && !v.Registry.Known(game, name) {
			if v.Strict {
				return newRuleError(path, "unknown helper %q for game %q", name, game)
			}
			v.Log.Warn().Str("path", path).Str("game", game).Str("helper", name).Msg("unknown helper evaluates to false")
		}
	}
	return nil
}

// forEachRule calls fn for every top-level access rule in doc.
func forEachRule(doc *world.Document, fn func(path string, rule *ast.Rule)) {
	for i, r := range doc.Regions {
		for j, l := range r.Locations {
			if l.AccessRule != nil {
				fn(fmt.Sprintf("regions[%d].locations[%d].access_rule", i, j), l.AccessRule)
			}
		}
		for j, e := range r.Exits {
			if e.AccessRule != nil {
				fn(fmt.Sprintf("regions[%d].exits[%d].access_rule", i, j), e.AccessRule)
			}
		}
	}
}

// walkPath visits r and its descendants in pre-order with their paths.
func walkPath(path string, r *ast.Rule, fn func(path string, n *ast.Rule)) {
	if r == nil {
		return
	}
	fn(path, r)
	for i, c := range r.Conditions {
		walkPath(fmt.Sprintf("%s.conditions[%d]", path, i), c, fn)
	}
	walkPath(path+".condition", r.Condition, fn)
	walkPath(path+".left", r.Left, fn)
	walkPath(path+".right", r.Right, fn)
	walkPath(path+".test", r.Test, fn)
	walkPath(path+".if_true", r.IfTrue, fn)
	walkPath(path+".if_false", r.IfFalse, fn)
	for i, a := range r.Args {
		walkPath(fmt.Sprintf("%s.args[%d]", path, i), a, fn)
	}
}
