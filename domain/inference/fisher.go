package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"

	"jurimetria/domain/core"
)

// ContingencyTable is a 2x2 table with rows relief yes/no and columns
// settlement yes/no:
//
//	         settled  not settled
//	relief      A          B
//	no relief   C          D
type ContingencyTable struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
}

// Total returns the grand total of the table
func (t ContingencyTable) Total() int { return t.A + t.B + t.C + t.D }

func (t ContingencyTable) hasZeroCell() bool {
	return t.A == 0 || t.B == 0 || t.C == 0 || t.D == 0
}

// FisherResult holds the exact test output for a 2x2 table
type FisherResult struct {
	Table     ContingencyTable `json:"table"`
	OddsRatio float64          `json:"odds_ratio"`
	// Corrected is true when the Haldane-Anscombe correction (add 0.5 to every
	// cell) was applied to the odds ratio because a cell was zero
	Corrected bool    `json:"corrected"`
	PValue    float64 `json:"p_value"`
}

// pSlack absorbs floating-point noise when comparing table probabilities
// against the observed one; R's fisher.test uses the same relative tolerance.
const pSlack = 1e-7

// FisherExact runs Fisher's exact test on a 2x2 table. The two-sided p-value
// is the sum, over all tables with the observed margins, of hypergeometric
// probabilities no larger than the observed table's probability (tail
// summation, not doubling of the one-sided tail; the two conventions diverge
// on asymmetric tables). The odds ratio is (A*D)/(B*C), Haldane-Anscombe
// corrected when any cell is zero. An all-zero table is signaled as
// core.ErrInsufficientData.
func FisherExact(t ContingencyTable) (FisherResult, error) {
	if t.A < 0 || t.B < 0 || t.C < 0 || t.D < 0 {
		return FisherResult{}, core.NewValidationError("table", fmt.Sprintf("negative cell in %+v", t))
	}
	n := t.Total()
	if n == 0 {
		return FisherResult{}, fmt.Errorf("%w: empty contingency table", core.ErrInsufficientData)
	}

	res := FisherResult{Table: t}

	a, b, c, d := float64(t.A), float64(t.B), float64(t.C), float64(t.D)
	if t.hasZeroCell() {
		a, b, c, d = a+0.5, b+0.5, c+0.5, d+0.5
		res.Corrected = true
	}
	res.OddsRatio = (a * d) / (b * c)

	res.PValue = twoSidedHypergeometric(t)
	return res, nil
}

// twoSidedHypergeometric sums P(table) over all tables sharing the observed
// margins whose probability does not exceed the observed table's
func twoSidedHypergeometric(t ContingencyTable) float64 {
	r1 := t.A + t.B
	r2 := t.C + t.D
	c1 := t.A + t.C
	n := t.Total()

	// A fully empty row or column admits exactly one table
	if r1 == 0 || r2 == 0 || c1 == 0 || c1 == n {
		return 1.0
	}

	kMin := max(0, c1-r2)
	kMax := min(r1, c1)

	logObs := logHypergeometricPMF(r1, r2, c1, t.A)
	threshold := logObs + math.Log1p(pSlack)

	p := 0.0
	for k := kMin; k <= kMax; k++ {
		logP := logHypergeometricPMF(r1, r2, c1, k)
		if logP <= threshold {
			p += math.Exp(logP)
		}
	}
	return math.Min(1, p)
}

// logHypergeometricPMF is log P(X=k) for X ~ Hypergeometric with r1 draws
// from a population of r1+r2 split c1 / (n-c1)
func logHypergeometricPMF(r1, r2, c1, k int) float64 {
	return combin.LogGeneralizedBinomial(float64(r1), float64(k)) +
		combin.LogGeneralizedBinomial(float64(r2), float64(c1-k)) -
		combin.LogGeneralizedBinomial(float64(r1+r2), float64(c1))
}
