package resolver

import (
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{7, "0:07"},
		{59.9, "0:59"},
		{60, "1:00"},
		{754, "12:34"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{7322, "2:02:02"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.seconds); got != tc.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
