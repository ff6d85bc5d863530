package wallet

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		text string
		unit Unit
		want int64
	}{
		{"1000", UnitSats, 1000},
		{" 42 ", "", 42},
		{"1.9", UnitSats, 1},
		{"0.00001", UnitBTC, 1000},
		{"1", "BTC", SatsPerBTC},
		{"0.123456789", UnitBTC, 12345678},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.text, tc.unit)
		if err != nil {
			t.Fatalf("ParseAmount(%q, %q): %v", tc.text, tc.unit, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q, %q) = %d, want %d", tc.text, tc.unit, got, tc.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	cases := []struct {
		text string
		unit Unit
	}{
		{"", UnitSats},
		{"abc", UnitSats},
		{"0", UnitSats},
		{"-1", UnitSats},
		{"0.5", UnitSats},
		{"0.000000001", UnitBTC},
		{"21000001", UnitBTC},
		{"10", "eth"},
	}
	for _, tc := range cases {
		_, err := ParseAmount(tc.text, tc.unit)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q, %q): expected invalid amount, got %v", tc.text, tc.unit, err)
		}
	}
}

func TestFormatBTC(t *testing.T) {
	if got := FormatBTC(12345); got != "0.00012345" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatBTC(SatsPerBTC * 2); got != "2.00000000" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	err := providerFailed("getBalance", errors.New("boom"))
	if KindOf(err) != KindProviderCallFailed || err.Error() != "boom" {
		t.Fatalf("unexpected provider error %v", err)
	}
	if !errors.Is(err, ErrProviderCallFailed) {
		t.Fatalf("provider error does not match sentinel")
	}
	if providerFailed("x", ErrUnsupported) != ErrUnsupported {
		t.Fatalf("wallet errors should pass through unchanged")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain error has a kind")
	}
}
