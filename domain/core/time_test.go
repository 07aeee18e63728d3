package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_DaysUntil(t *testing.T) {
	a := NewTimestamp(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	b := NewTimestamp(time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC))

	if got := a.DaysUntil(b); got != 60 {
		t.Errorf("DaysUntil = %d, want 60", got)
	}
	if got := b.DaysUntil(a); got != -60 {
		t.Errorf("reverse DaysUntil = %d, want -60", got)
	}
	if got := a.DaysUntil(a); got != 0 {
		t.Errorf("same-day DaysUntil = %d, want 0", got)
	}
}

func TestTimestamp_Ordering(t *testing.T) {
	early := NewTimestamp(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewTimestamp(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	if !early.Before(late) || late.Before(early) {
		t.Error("Before comparison inverted")
	}
	if !late.After(early) {
		t.Error("After comparison inverted")
	}
	if (Timestamp{}).Year() == 2020 {
		t.Error("zero timestamp has no meaningful year")
	}
	if !(Timestamp{}).IsZero() {
		t.Error("zero value must report IsZero")
	}
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	orig := NewTimestamp(time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC))

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Timestamp
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Time().Equal(orig.Time()) {
		t.Errorf("round trip: %s != %s", decoded, orig)
	}
}
