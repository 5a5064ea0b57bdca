package domain

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Ada Lovelace", "Ada Lovelace"},
		{"inline handler", "<img src=x onerror=alert(1)>", "img src=x alert(1)"},
		{"script tag", "<script>alert(1)</script>", "alert(1)/"},
		{"javascript uri", "JavaScript:alert(1)", "alert(1)"},
		{"handler is case insensitive", "x ONCLICK=y", "x y"},
		{"surrounding whitespace trimmed", "  <b>bio</b>  ", "bbio/b"},
		{"nested token survives", "scrscriptipt", "script"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_SinglePassLeavesRecombinedTokens(t *testing.T) {
	// The scheme check runs before "script" is stripped, so the recombined
	// scheme is not seen again.
	in := "javascscriptript:"
	if got := Sanitize(in); got != "javascript:" {
		t.Fatalf("Sanitize(%q) = %q, want %q", in, got, "javascript:")
	}
}

func TestSanitize_StableOnSanitizedExample(t *testing.T) {
	once := Sanitize("<img src=x onerror=alert(1)>")
	if twice := Sanitize(once); twice != once {
		t.Fatalf("expected stable output, got %q then %q", once, twice)
	}
}
