package model

import "testing"

func TestComputeRates(t *testing.T) {
	m := ComputeRates(10, 4, 2, 1, 0)

	if m.OpenRate != 0.4 {
		t.Errorf("open rate: got %v", m.OpenRate)
	}
	if m.ClickRate != 0.2 {
		t.Errorf("click rate: got %v", m.ClickRate)
	}
	if m.ClickToOpenRate != 0.5 {
		t.Errorf("click-to-open rate: got %v", m.ClickToOpenRate)
	}
	if m.BounceRate != 0.1 {
		t.Errorf("bounce rate: got %v", m.BounceRate)
	}
}

func TestComputeRatesZeroDenominators(t *testing.T) {
	m := ComputeRates(0, 0, 0, 0, 0)
	if m.OpenRate != 0 || m.ClickToOpenRate != 0 {
		t.Errorf("zero counts must not produce NaN: %+v", m)
	}

	// Clicks without opens: click-to-open stays 0, click rate does not.
	m = ComputeRates(10, 0, 2, 0, 0)
	if m.ClickToOpenRate != 0 {
		t.Errorf("click-to-open with zero opens: got %v", m.ClickToOpenRate)
	}
	if m.ClickRate != 0.2 {
		t.Errorf("click rate: got %v", m.ClickRate)
	}
}

func TestRatesRounding(t *testing.T) {
	// 1/3 must round to 0.33 for display while the raw value is kept.
	m := ComputeRates(3, 1, 0, 0, 0)
	if m.OpenRate == 0.33 {
		t.Errorf("raw rate must not be pre-rounded")
	}
	if got := m.Rounded().OpenRate; got != 0.33 {
		t.Errorf("rounded open rate: got %v, want 0.33", got)
	}
}
