// Package parse loads world documents: it decodes the JSON, converts legacy
// rule strings, runs validators and builds world.Data.
package parse

import (
	"errors"
	"fmt"
	"os"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/world"
)

// Loader reads world documents.
type Loader struct {
	registry     *plugin.Registry
	log          zerolog.Logger
	strict       bool
	startRegions []string
	validators   []Validator
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

func WithLogger(log zerolog.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// WithStrictHelpers turns unknown helper names into validation errors.
func WithStrictHelpers(strict bool) LoaderOption {
	return func(l *Loader) { l.strict = strict }
}

// WithStartRegions sets the start regions used when a document names none.
func WithStartRegions(regions ...string) LoaderOption {
	return func(l *Loader) { l.startRegions = regions }
}

// WithValidator adds a validator that runs after the built-in ones.
func WithValidator(v Validator) LoaderOption {
	return func(l *Loader) { l.validators = append(l.validators, v) }
}

// NewLoader creates a loader resolving helpers against reg. reg may be nil,
// in which case helper names and dialects are not checked.
func NewLoader(reg *plugin.Registry, opts ...LoaderOption) *Loader {
	l := &Loader{registry: reg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	l.validators = append([]Validator{
		NewStructValidator(),
		&ReferenceValidator{},
		&RuleValidator{Registry: reg, Strict: l.strict, Log: l.log},
	}, l.validators...)
	return l
}

// LoadFile reads and loads the document at path.
func (l *Loader) LoadFile(path string) (*world.Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return l.Load(data, path)
}

// Load decodes, converts, validates and builds one document. Validation
// problems are returned together as *ValidationErrors.
func (l *Loader) Load(data []byte, source string) (*world.Data, error) {
	doc, err := Decode(data, source)
	if err != nil {
		return nil, err
	}
	return l.Build(doc, source)
}

// Build converts, validates and builds an already decoded document.
// doc is modified in place: dialect strings are replaced by rule trees.
func (l *Loader) Build(doc *world.Document, source string) (*world.Data, error) {
	if len(doc.StartRegions) == 0 && len(l.startRegions) > 0 {
		doc.StartRegions = slices.Clone(l.startRegions)
	}

	errs := &ValidationErrors{}
	errs.add(l.convertStrings(doc))
	if !errs.HasErrors() {
		for _, v := range l.validators {
			errs.add(v.Validate(doc))
		}
	}
	if errs.HasErrors() {
		l.log.Warn().Str("source", source).Int("errors", len(errs.Errors)).Msg("world document rejected")
		return nil, errs
	}

	d, err := world.Build(doc)
	if err != nil {
		return nil, eris.Wrapf(err, "build %s", source)
	}
	l.log.Info().
		Str("source", source).
		Str("game", d.Game).
		Str("load_id", d.LoadID.String()).
		Int("regions", d.NumRegions()).
		Int("locations", len(d.Locations())).
		Msg("world loaded")
	return d, nil
}

// convertStrings replaces every string access_rule with its parsed tree,
// using the dialect declared by the document's game.
func (l *Loader) convertStrings(doc *world.Document) error {
	var dialect *Dialect
	errs := &ValidationErrors{}

	convert := func(path string, rule **ast.Rule) {
		src, ok := ruleString(*rule)
		if !ok {
			return
		}
		if dialect == nil {
			name, err := l.dialectFor(doc.Game)
			if err != nil {
				errs.add(&RuleError{Path: path, Message: "rule string needs a dialect", Cause: err})
				return
			}
			dialect = NewDialect(name, doc)
		}
		parsed, err := dialect.Parse(src)
		if err != nil {
			errs.add(&RuleError{Path: path, Message: "invalid rule string", Cause: err})
			return
		}
		*rule = parsed
	}

	for i := range doc.Regions {
		r := &doc.Regions[i]
		for j := range r.Locations {
			convert(fmt.Sprintf("regions[%d].locations[%d].access_rule", i, j), &r.Locations[j].AccessRule)
		}
		for j := range r.Exits {
			convert(fmt.Sprintf("regions[%d].exits[%d].access_rule", i, j), &r.Exits[j].AccessRule)
		}
	}
	return errs.orNil()
}

func (l *Loader) dialectFor(game string) (string, error) {
	if l.registry == nil {
		return "", eris.New("no plugin registry")
	}
	p, ok := l.registry.Plugin(game)
	if !ok {
		return "", eris.Errorf("game %q is not registered", game)
	}
	if p.Dialect == "" {
		return "", eris.Errorf("game %q declares no rule dialect", game)
	}
	if !slices.Contains(Dialects, p.Dialect) {
		return "", eris.Errorf("unknown rule dialect %q", p.Dialect)
	}
	return p.Dialect, nil
}

// ruleString reports whether rule is a top-level string constant.
func ruleString(rule *ast.Rule) (string, bool) {
	if rule == nil || rule.Type != ast.TypeConstant {
		return "", false
	}
	s, ok := rule.Value.(string)
	return s, ok
}

// Decode reads a world document without validating it.
func Decode(data []byte, source string) (*world.Document, error) {
	var doc world.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		perr := &ParseError{Source: source, Message: err.Error(), Cause: err}
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			perr.Offset = syntax.Offset
		}
		return nil, perr
	}
	return &doc, nil
}
