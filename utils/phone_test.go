package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	cases := []struct {
		input string
		valid bool
	}{
		{"9876543210", true},
		{"6000000001", true},
		{"+91 98765 43210", true},
		{"919876543210", true},
		{"098765 43210", true},
		{"1234567890", false}, // mobile numbers start with 6-9
		{"98765", false},
		{"98765432109", false},
		{"", false},
		{"abcdefghij", false},
	}

	for _, tc := range cases {
		if got := ValidatePhoneNumber(tc.input); got != tc.valid {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", tc.input, got, tc.valid)
		}
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"+91 98765 43210", "919876543210"},
		{"098765 43210", "919876543210"},
		{"6000000001", "916000000001"},
	}

	for _, tc := range cases {
		if got := FormatPhoneNumber(tc.input); got != tc.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayPhoneNumber(t *testing.T) {
	if got := DisplayPhoneNumber("6000000001"); got != "+91 60000 00001" {
		t.Errorf("DisplayPhoneNumber = %q", got)
	}
}
