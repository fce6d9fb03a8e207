package types

import "testing"

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		original string
		matched  string
		want     OrderStatus
	}{
		{"100", "", OrderStatusOpen},
		{"100", "0", OrderStatusOpen},
		{"100", "40.5", OrderStatusPartiallyFilled},
		{"100", "100", OrderStatusFilled},
		// exchanges have reported overfills on rounding edges
		{"100", "100.01", OrderStatusFilled},
	}
	for _, tc := range cases {
		got, err := ClassifyStatus(tc.original, tc.matched)
		if err != nil {
			t.Fatalf("ClassifyStatus(%q, %q): %v", tc.original, tc.matched, err)
		}
		if got != tc.want {
			t.Fatalf("ClassifyStatus(%q, %q) got=%s want=%s", tc.original, tc.matched, got, tc.want)
		}
	}

	if _, err := ClassifyStatus("garbage", "0"); err == nil {
		t.Fatal("bad original size should fail")
	}
	if _, err := ClassifyStatus("100", "garbage"); err == nil {
		t.Fatal("bad matched size should fail")
	}
}
