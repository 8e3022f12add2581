package ontology

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ontomodel/internal/logging"
	"ontomodel/internal/mangle"
	"ontomodel/internal/termfact"
)

//go:embed rules.mg
var crossReferenceRules string

// IssueCode classifies a validation finding.
type IssueCode string

const (
	IssueEmptyTerm        IssueCode = "empty_term"
	IssueUnknownKind      IssueCode = "unknown_kind"
	IssueEmptyPayload     IssueCode = "empty_payload"
	IssueDuplicateTerm    IssueCode = "duplicate_term"
	IssueAttributeMapping IssueCode = "attribute_not_mapping"
	IssueAttributeDomain  IssueCode = "attribute_domain_mismatch"
	IssueMappingDomain    IssueCode = "mapping_domain_unknown"
	IssueMappingCodomain  IssueCode = "mapping_codomain_unknown"
	IssueUndeclaredMember IssueCode = "undeclared_member"
	IssueUndeclaredSet    IssueCode = "undeclared_element_set"
	IssueElementNotSet    IssueCode = "element_set_not_set"
	IssueUndeclaredBound  IssueCode = "undeclared_bound"
)

// Issue is one validation finding against a term.
type Issue struct {
	Code   IssueCode `json:"code"`
	Term   string    `json:"term"`
	Detail string    `json:"detail,omitempty"`
}

func (i Issue) String() string {
	if i.Detail == "" {
		return fmt.Sprintf("%s: %q", i.Code, i.Term)
	}
	return fmt.Sprintf("%s: %q (%s)", i.Code, i.Term, i.Detail)
}

// ValidationError carries every issue found in one pass.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("validation failed with %d issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// slowValidate is the validation duration above which a warning is logged.
const slowValidate = 500 * time.Millisecond

// Validator checks a full term set before it is saved.
type Validator struct {
	engineConfig mangle.Config
}

// NewValidator returns a validator whose rule engine uses cfg.
func NewValidator(cfg mangle.Config) *Validator {
	return &Validator{engineConfig: cfg}
}

// Validate checks facts with the default engine configuration.
func Validate(facts []termfact.Fact) error {
	return NewValidator(mangle.DefaultConfig()).Validate(facts)
}

// Validate returns a *ValidationError listing every issue, or nil.
// Shape checks run first; cross-references are then derived by the rule
// engine over the facts that passed them.
func (v *Validator) Validate(facts []termfact.Fact) error {
	timer := logging.StartTimer(logging.CategoryValidate, "Validate")
	defer timer.StopWithThreshold(slowValidate)

	issues := shapeIssues(facts)

	refIssues, err := v.crossReferenceIssues(facts)
	if err != nil {
		return fmt.Errorf("cross-reference rules: %w", err)
	}
	issues = append(issues, refIssues...)

	if len(issues) == 0 {
		logging.Validate("Validated %d terms: ok", len(facts))
		return nil
	}
	logging.ValidateWarn("Validated %d terms: %d issues", len(facts), len(issues))
	return &ValidationError{Issues: issues}
}

// shapeIssues reports empty names, missing payload slots and duplicate names.
func shapeIssues(facts []termfact.Fact) []Issue {
	var issues []Issue
	seen := make(map[string]termfact.Kind, len(facts))
	for _, f := range facts {
		if strings.TrimSpace(f.Term) == "" {
			issues = append(issues, Issue{Code: IssueEmptyTerm, Detail: string(f.Kind())})
			continue
		}
		if f.Kind() == "" {
			issues = append(issues, Issue{Code: IssueUnknownKind, Term: f.Term})
			continue
		}
		if slot := missingSlot(f); slot != "" {
			issues = append(issues, Issue{Code: IssueEmptyPayload, Term: f.Term, Detail: slot})
		}
		if prev, dup := seen[f.Term]; dup {
			issues = append(issues, Issue{Code: IssueDuplicateTerm, Term: f.Term, Detail: fmt.Sprintf("%s and %s", prev, f.Kind())})
			continue
		}
		seen[f.Term] = f.Kind()
	}
	return issues
}

// missingSlot names the first required payload slot that is empty. An
// unbounded dimensional term is a valid template, so it has none.
func missingSlot(f termfact.Fact) string {
	switch v := f.Volume.(type) {
	case termfact.ScalarVolume:
		if len(v.Values) == 0 {
			return "values"
		}
	case termfact.SetVolume:
		if v.Set1 == "" {
			return "set"
		}
		if v.Operation != termfact.SetReference && v.Operation != "" && v.Set2 == "" {
			return "second set"
		}
	case termfact.MappingVolume:
		if v.Domain == "" {
			return "domain"
		}
		if v.Codomain == "" {
			return "codomain"
		}
	case termfact.UnionVolume:
		if len(v.Members) == 0 {
			return "members"
		}
	case termfact.StructuralVolume:
		if len(v.Attributes) == 0 {
			return "attributes"
		}
	case termfact.SequenceVolume:
		if v.ElementSet == "" {
			return "element set"
		}
	}
	return ""
}

func (v *Validator) crossReferenceIssues(facts []termfact.Fact) ([]Issue, error) {
	engine, err := mangle.NewEngine(v.engineConfig)
	if err != nil {
		return nil, err
	}
	if err := engine.LoadSchemaString(crossReferenceRules); err != nil {
		return nil, err
	}
	engine.ToggleAutoEval(false)
	if err := engine.AddFacts(CrossReferenceFacts(facts)); err != nil {
		return nil, err
	}
	if err := engine.RecomputeRules(); err != nil {
		return nil, err
	}

	derived, err := engine.GetFacts("issue")
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(derived))
	for _, d := range derived {
		issues = append(issues, Issue{
			Code:   IssueCode(fmt.Sprint(d.Args[0])),
			Term:   fmt.Sprint(d.Args[1]),
			Detail: fmt.Sprint(d.Args[2]),
		})
	}
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Term != b.Term {
			return a.Term < b.Term
		}
		return a.Detail < b.Detail
	})
	logging.KernelDebug("Cross-reference pass: %d facts, %d issues", engine.GetStats().TotalFacts, len(issues))
	return issues, nil
}

// CrossReferenceFacts encodes terms as the Datalog facts the cross-reference
// rules read. Facts without a name or kind are skipped.
func CrossReferenceFacts(facts []termfact.Fact) []mangle.Fact {
	out := []mangle.Fact{
		{Predicate: "builtin_set", Args: []interface{}{termfact.BuiltinNames}},
		{Predicate: "builtin_set", Args: []interface{}{termfact.BuiltinReals}},
		{Predicate: "builtin_set", Args: []interface{}{termfact.BuiltinIntegers}},
	}
	add := func(pred string, args ...interface{}) {
		out = append(out, mangle.Fact{Predicate: pred, Args: args})
	}

	for _, f := range facts {
		if f.Term == "" || f.Kind() == "" {
			continue
		}
		add("term", string(f.Kind()), f.Term)

		switch v := f.Volume.(type) {
		case termfact.DimensionalVolume:
			for _, b := range []*termfact.Bound{v.Left, v.Right} {
				if b != nil && isTermReference(b.Value) {
					add("bound_ref", f.Term, b.Value)
				}
			}
		case termfact.MappingVolume:
			if v.Domain != "" && v.Codomain != "" {
				add("mapping", f.Term, setName(v.Domain), setName(v.Codomain))
			}
		case termfact.UnionVolume:
			for _, m := range v.Members {
				add("union_member", f.Term, m)
			}
		case termfact.StructuralVolume:
			for _, a := range v.Attributes {
				add("structural_attr", f.Term, a)
			}
		case termfact.SequenceVolume:
			if v.ElementSet != "" {
				add("sequence_of", f.Term, setName(v.ElementSet))
			}
		}
	}
	return out
}

// setName strips the "the set of " prefix from built-in set references.
func setName(name string) string {
	if termfact.IsBuiltinSet(name) {
		return strings.TrimPrefix(name, "the set of ")
	}
	return name
}

// isTermReference reports whether a bound value names a term rather than a
// number or an infinity placeholder.
func isTermReference(value string) bool {
	if value == "" || value == termfact.PositiveInfinity || value == termfact.NegativeInfinity {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err != nil
}
