package inference

import (
	"math"
	"testing"

	"jurimetria/domain/core"
)

func TestFisherExact_SymmetricFixture(t *testing.T) {
	// (3,1;1,3): two-sided p is 34/70 under the tail-summation convention
	res, err := FisherExact(ContingencyTable{A: 3, B: 1, C: 1, D: 3})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.PValue-0.4857142857) > 1e-9 {
		t.Errorf("PValue = %.10f, want 0.4857142857", res.PValue)
	}
	if res.OddsRatio != 9 {
		t.Errorf("OddsRatio = %g, want 9", res.OddsRatio)
	}
	if res.Corrected {
		t.Error("no zero cell: no correction expected")
	}
}

func TestFisherExact_ZeroCellCorrection(t *testing.T) {
	// (10,0;5,5): p = 504/15504, odds ratio on corrected cells 10.5,0.5,5.5,5.5
	res, err := FisherExact(ContingencyTable{A: 10, B: 0, C: 5, D: 5})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.PValue-0.0325077) > 1e-6 {
		t.Errorf("PValue = %.7f, want 0.0325077", res.PValue)
	}
	if !res.Corrected {
		t.Fatal("zero cell must trigger the Haldane-Anscombe correction")
	}
	want := (10.5 * 5.5) / (0.5 * 5.5)
	if math.Abs(res.OddsRatio-want) > 1e-12 {
		t.Errorf("OddsRatio = %g, want %g", res.OddsRatio, want)
	}
}

func TestFisherExact_TransposeSymmetry(t *testing.T) {
	orig := ContingencyTable{A: 7, B: 2, C: 3, D: 8}
	transposed := ContingencyTable{A: 7, B: 3, C: 2, D: 8}

	r1, err := FisherExact(orig)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := FisherExact(transposed)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(r1.PValue-r2.PValue) > 1e-12 {
		t.Errorf("p-values differ under transposition: %.12f vs %.12f", r1.PValue, r2.PValue)
	}
}

func TestFisherExact_DegenerateMargins(t *testing.T) {
	cases := []ContingencyTable{
		{A: 0, B: 0, C: 3, D: 4}, // empty first row
		{A: 3, B: 4, C: 0, D: 0}, // empty second row
		{A: 0, B: 3, C: 0, D: 4}, // empty first column
		{A: 3, B: 0, C: 4, D: 0}, // empty second column
	}
	for _, table := range cases {
		res, err := FisherExact(table)
		if err != nil {
			t.Fatalf("%+v: %v", table, err)
		}
		if res.PValue != 1 {
			t.Errorf("%+v: degenerate margin admits one table, p must be 1, got %g", table, res.PValue)
		}
	}
}

func TestFisherExact_EmptyTableIsInsufficientData(t *testing.T) {
	_, err := FisherExact(ContingencyTable{})
	if !core.IsInsufficientData(err) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFisherExact_RejectsNegativeCells(t *testing.T) {
	_, err := FisherExact(ContingencyTable{A: -1, B: 2, C: 3, D: 4})
	if err == nil {
		t.Fatal("negative cell must be rejected")
	}
}

func TestFisherExact_PValueNeverExceedsOne(t *testing.T) {
	tables := []ContingencyTable{
		{A: 5, B: 5, C: 5, D: 5},
		{A: 1, B: 1, C: 1, D: 1},
		{A: 50, B: 50, C: 50, D: 50},
	}
	for _, table := range tables {
		res, err := FisherExact(table)
		if err != nil {
			t.Fatal(err)
		}
		if res.PValue > 1 || res.PValue < 0 {
			t.Errorf("%+v: p = %g outside [0,1]", table, res.PValue)
		}
		// Perfectly balanced tables carry no association signal
		if math.Abs(res.PValue-1) > 1e-9 {
			t.Errorf("%+v: balanced table should have p = 1, got %g", table, res.PValue)
		}
	}
}

func TestContingencyFromRows(t *testing.T) {
	rows := []Row{
		{HasRelief: true, HasSettlement: true},
		{HasRelief: true, HasSettlement: true},
		{HasRelief: true, HasSettlement: false},
		{HasRelief: false, HasSettlement: true},
		{HasRelief: false, HasSettlement: false},
		{HasRelief: false, HasSettlement: false},
	}

	table := ContingencyFromRows(rows)
	want := ContingencyTable{A: 2, B: 1, C: 1, D: 2}
	if table != want {
		t.Errorf("table = %+v, want %+v", table, want)
	}
	if table.Total() != len(rows) {
		t.Errorf("Total = %d, want %d", table.Total(), len(rows))
	}
}
