package user

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Smith", "Jane Smith"},
		{"  Jane   Smith  ", "Jane Smith"},
		{"Ana María Ñoño", "Ana Maria Nono"},
		{"Zoë O'Brien-Smith", "Zoe OBrien-Smith"},
		{"Dr. J.R.R. Tolkien", "Dr JRR Tolkien"},
		{"tab\tand\nnewline", "tab and newline"},
		{"日本語", ""},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBaseUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Smith", "jsmith"},
		{"Cher", "cher"},
		{"", "user"},
		{"Ana María Ñoño", "anono"},
		{"Mary-Jane Watson-Parker", "mwatsonparker"},
		{"-", "user"},
		{"日本語", "user"},
		{"R2 D2", "rd2"},
		{"admin", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := BaseUsername(tt.in)
			if got != tt.want {
				t.Errorf("BaseUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
