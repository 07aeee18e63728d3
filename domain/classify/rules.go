package classify

import (
	"fmt"
	"regexp"

	"jurimetria/domain/core"
)

// RuleSet is the externally supplied classifier configuration: the interim
// relief code whitelist and the term lists matched against normalized movement
// text. Terms are regular expressions evaluated against normalized text, so a
// plain word is a substring match and `\b` anchors are available where a bare
// substring would over-match (e.g. "defer" inside "indeferimento"). Rule sets
// are data, not code: they can be recalibrated per jurisdiction without
// touching the matching algorithm.
type RuleSet struct {
	ReliefCodes     []int    `json:"relief_codes"`
	SettlementTerms []string `json:"settlement_terms"`
	NegationTerms   []string `json:"negation_terms"`
	GrantTerms      []string `json:"grant_terms"`
	DenialTerms     []string `json:"denial_terms"`
	JudgmentTerms   []string `json:"judgment_terms"`
}

// DefaultRuleSet returns the rule set calibrated for the DataJud movement
// vocabulary (CNJ movement table codes plus Portuguese docket phrasing).
func DefaultRuleSet() RuleSet {
	return RuleSet{
		ReliefCodes: []int{51, 60, 85, 26, 581, 454},
		SettlementTerms: []string{
			"acordo", "homologacao", "conciliacao", "mediacao", "composicao", "transacao",
		},
		NegationTerms: []string{
			"sem acordo", "nao houve acordo", "acordo nao", "frustrad",
			"infrutifer", "nao homologad", "homologacao negada", "homologacao indeferida",
		},
		GrantTerms: []string{
			`\bdeferimento\b`, `\bdeferida\b`, `\bdeferido\b`, `\bconcedida\b`, `\bconcedido\b`,
		},
		DenialTerms: []string{
			"indeferimento", "indeferida", "indeferido", "nao concedida", "denegad",
		},
		JudgmentTerms: []string{
			"sentenca", "julgamento", "julgad", "decisao",
		},
	}
}

// Rules is a compiled, immutable rule set ready for matching
type Rules struct {
	reliefCodes map[int]bool
	settlement  []*regexp.Regexp
	negation    []*regexp.Regexp
	grant       []*regexp.Regexp
	denial      []*regexp.Regexp
	judgment    []*regexp.Regexp
}

// NewRules validates and compiles a rule set. An empty settlement term list or
// a non-positive relief code is a caller error surfaced immediately as
// core.ErrInvalidRules; negation and keyword lists may be empty.
func NewRules(rs RuleSet) (*Rules, error) {
	if len(rs.SettlementTerms) == 0 {
		return nil, fmt.Errorf("%w: settlement term list is empty", core.ErrInvalidRules)
	}
	if len(rs.ReliefCodes) == 0 {
		return nil, fmt.Errorf("%w: relief code whitelist is empty", core.ErrInvalidRules)
	}

	codes := make(map[int]bool, len(rs.ReliefCodes))
	for _, c := range rs.ReliefCodes {
		if c <= 0 {
			return nil, fmt.Errorf("%w: relief code %d is not a valid movement code", core.ErrInvalidRules, c)
		}
		codes[c] = true
	}

	r := &Rules{reliefCodes: codes}
	var err error
	if r.settlement, err = compileTerms("settlement", rs.SettlementTerms); err != nil {
		return nil, err
	}
	if r.negation, err = compileTerms("negation", rs.NegationTerms); err != nil {
		return nil, err
	}
	if r.grant, err = compileTerms("grant", rs.GrantTerms); err != nil {
		return nil, err
	}
	if r.denial, err = compileTerms("denial", rs.DenialTerms); err != nil {
		return nil, err
	}
	if r.judgment, err = compileTerms("judgment", rs.JudgmentTerms); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRules compiles a rule set and panics on invalid input.
// Use only in tests and development.
func MustNewRules(rs RuleSet) *Rules {
	r, err := NewRules(rs)
	if err != nil {
		panic(err)
	}
	return r
}

// compileTerms normalizes and compiles each term as a regular expression
// matched against normalized movement text
func compileTerms(list string, terms []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			return nil, fmt.Errorf("%w: empty %s term", core.ErrInvalidRules, list)
		}
		re, err := regexp.Compile(Normalize(term))
		if err != nil {
			return nil, fmt.Errorf("%w: %s term %q: %v", core.ErrInvalidRules, list, term, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// IsReliefCode reports membership in the relief code whitelist
func (r *Rules) IsReliefCode(code int) bool {
	return r.reliefCodes[code]
}

func matchAny(patterns []*regexp.Regexp, normalized string) bool {
	for _, re := range patterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}
