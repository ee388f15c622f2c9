package ingest

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "sku", want: "sku"},
		{name: "upper case", input: "SKU", want: "sku"},
		{name: "punctuation stripped", input: "SKU-ID", want: "skuid"},
		{name: "internal spaces stripped", input: "Bin 12-A", want: "bin12a"},
		{name: "surrounding whitespace", input: "  Qty OH  ", want: "qtyoh"},
		{name: "digits kept", input: "Location 2", want: "location2"},
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: "--- ___", want: ""},
		{name: "unicode stripped", input: "Qté", want: "qt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"SKU-ID", "Bin 12-A", "qty", "  On Hand  ", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNormalizeCaseAndPunctuationInsensitive(t *testing.T) {
	if Normalize("SKU-ID") != Normalize("skuid") {
		t.Errorf("expected SKU-ID and skuid to normalize identically")
	}
	if Normalize("User Bin ID") != Normalize("userbinid") {
		t.Errorf("expected User Bin ID and userbinid to normalize identically")
	}
}
