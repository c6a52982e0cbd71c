package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		args      string
		canonical string
	}{
		{"q", "q", "", "quit"},
		{"  open  Amara ", "open", "Amara", "open"},
		{"F mobile app", "f", "mobile app", "filter"},
		{"resend", "resend", "", "retry"},
		{"back", "back", "", "back"},
		{"dance now", "dance", "now", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		if cmd.Name != tt.name || cmd.Args != tt.args {
			t.Errorf("ParseCommand(%q) = %+v, want name %q args %q", tt.in, cmd, tt.name, tt.args)
		}
		if got := cmd.Canonical(); got != tt.canonical {
			t.Errorf("ParseCommand(%q).Canonical() = %q, want %q", tt.in, got, tt.canonical)
		}
	}
}
