package classify

import (
	"jurimetria/domain/core"
	"jurimetria/domain/court"
)

// Signals is the per-process legal signal set derived from the movement
// sequence. Derived once, immutable afterwards; never written back onto
// movements.
type Signals struct {
	Number              core.ProcessNumber `json:"number"`
	HasRelief           bool               `json:"has_relief"`
	HasSettlement       bool               `json:"has_settlement"`
	FirstReliefDate     *core.Timestamp    `json:"first_relief_date,omitempty"`
	FirstSettlementDate *core.Timestamp    `json:"first_settlement_date,omitempty"`
	HasGrant            bool               `json:"has_grant"`
	HasDenial           bool               `json:"has_denial"`
	HasJudgment         bool               `json:"has_judgment"`
	ReliefCodesSeen     []int              `json:"relief_codes_seen,omitempty"`
}

// ReliefAndSettlement reports whether both signals fired
func (s Signals) ReliefAndSettlement() bool {
	return s.HasRelief && s.HasSettlement
}

// Classify derives the legal signal set for one process.
//
// Relief is pure code-set membership against the whitelist. Settlement is the
// hybrid textual signal: a movement counts iff a positive term matches its
// normalized name and no negation term matches that same text. Negation is
// scoped per movement: a negated movement never contributes true, but it does
// not suppress a positive match on a different movement of the same process.
// Grant/denial/judgment are plain keyword searches with no negation handling.
//
// First-occurrence dates rely on the sanitized chronological movement order;
// same-date movements keep docket order, so the earliest in the sequence wins.
func Classify(p court.Process, rules *Rules) Signals {
	s := Signals{Number: p.Number}

	for i := range p.Movements {
		m := &p.Movements[i]

		if rules.IsReliefCode(m.Code) {
			if !s.HasRelief {
				s.HasRelief = true
				d := m.Date
				s.FirstReliefDate = &d
			}
			s.ReliefCodesSeen = appendCode(s.ReliefCodesSeen, m.Code)
		}

		if m.Name == "" {
			continue
		}
		text := Normalize(m.Name)

		if matchAny(rules.settlement, text) && !matchAny(rules.negation, text) {
			if !s.HasSettlement {
				s.HasSettlement = true
				d := m.Date
				s.FirstSettlementDate = &d
			}
		}

		if matchAny(rules.grant, text) {
			s.HasGrant = true
		}
		if matchAny(rules.denial, text) {
			s.HasDenial = true
		}
		if matchAny(rules.judgment, text) {
			s.HasJudgment = true
		}
	}

	return s
}

// appendCode appends a code keeping the slice deduplicated
func appendCode(codes []int, code int) []int {
	for _, c := range codes {
		if c == code {
			return codes
		}
	}
	return append(codes, code)
}
