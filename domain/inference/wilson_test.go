package inference

import (
	"math"
	"testing"

	"jurimetria/domain/core"
)

func TestWilsonInterval_KnownFixture(t *testing.T) {
	// 8 successes out of 10 at alpha 0.05: the classic Wilson fixture
	p, err := WilsonInterval("fixture", 8, 10, 0.05)
	if err != nil {
		t.Fatal(err)
	}

	if p.Estimate != 0.8 {
		t.Errorf("Estimate = %g, want 0.8", p.Estimate)
	}
	if math.Abs(p.Lower-0.49016) > 1e-4 {
		t.Errorf("Lower = %.5f, want 0.49016", p.Lower)
	}
	if math.Abs(p.Upper-0.94332) > 1e-4 {
		t.Errorf("Upper = %.5f, want 0.94332", p.Upper)
	}
}

func TestWilsonInterval_BoundsStayInUnitInterval(t *testing.T) {
	cases := []struct{ k, n int }{
		{0, 10},
		{10, 10},
		{1, 1},
		{0, 1},
		{1, 1000},
	}
	for _, tc := range cases {
		p, err := WilsonInterval("bounds", tc.k, tc.n, 0.05)
		if err != nil {
			t.Fatalf("k=%d n=%d: %v", tc.k, tc.n, err)
		}
		if p.Lower < 0 || p.Upper > 1 {
			t.Errorf("k=%d n=%d: interval [%g, %g] escapes [0,1]", tc.k, tc.n, p.Lower, p.Upper)
		}
		if p.Lower > p.Estimate || p.Upper < p.Estimate {
			t.Errorf("k=%d n=%d: estimate %g outside interval [%g, %g]", tc.k, tc.n, p.Estimate, p.Lower, p.Upper)
		}
	}
}

func TestWilsonInterval_ExtremeCountsStayInformative(t *testing.T) {
	// Unlike the Wald interval, Wilson does not collapse to a point at k=0
	p, err := WilsonInterval("zero", 0, 20, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if p.Lower != 0 {
		t.Errorf("Lower = %g, want 0", p.Lower)
	}
	if p.Upper <= 0 {
		t.Error("Upper bound must stay positive at k=0")
	}

	p, err = WilsonInterval("full", 20, 20, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if p.Upper != 1 {
		t.Errorf("Upper = %g, want 1", p.Upper)
	}
	if p.Lower >= 1 {
		t.Error("Lower bound must stay below 1 at k=n")
	}
}

func TestWilsonInterval_ZeroTrialsIsInsufficientData(t *testing.T) {
	_, err := WilsonInterval("empty", 0, 0, 0.05)
	if !core.IsInsufficientData(err) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestWilsonInterval_ValidatesInputs(t *testing.T) {
	if _, err := WilsonInterval("bad", 11, 10, 0.05); err == nil {
		t.Error("k > n must be rejected")
	}
	if _, err := WilsonInterval("bad", -1, 10, 0.05); err == nil {
		t.Error("negative k must be rejected")
	}
	if _, err := WilsonInterval("bad", 5, 10, 1.5); err == nil {
		t.Error("alpha outside (0,1) must be rejected")
	}
}

func TestWilsonInterval_ZeroAlphaUsesDefault(t *testing.T) {
	p, err := WilsonInterval("default", 5, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Alpha != DefaultAlpha {
		t.Errorf("Alpha = %g, want %g", p.Alpha, DefaultAlpha)
	}
}

func TestWilsonInterval_NarrowsWithSampleSize(t *testing.T) {
	small, err := WilsonInterval("small", 8, 10, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	large, err := WilsonInterval("large", 800, 1000, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if large.Upper-large.Lower >= small.Upper-small.Lower {
		t.Error("interval width must shrink as n grows at fixed proportion")
	}
}
