package types

import "testing"

func TestParseTickSize(t *testing.T) {
	cases := []struct {
		in    string
		want  TickSize
		isErr bool
	}{
		{"0.1", TickSize01, false},
		{"0.01", TickSize001, false},
		{"0.010", TickSize001, false},
		{"1e-3", TickSize0001, false},
		{"0.0001", TickSize00001, false},
		{"0.02", "", true},
		{"0.00001", "", true},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTickSize(tc.in)
		if tc.isErr {
			if err == nil {
				t.Fatalf("ParseTickSize(%q) expected error, got %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTickSize(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTickSize(%q) got=%s want=%s", tc.in, got, tc.want)
		}
	}
}

func TestSideUint8(t *testing.T) {
	if SideBuy.Uint8() != 0 {
		t.Fatalf("BUY got=%d want=0", SideBuy.Uint8())
	}
	if SideSell.Uint8() != 1 {
		t.Fatalf("SELL got=%d want=1", SideSell.Uint8())
	}
}
