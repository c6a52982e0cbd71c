package session

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"client", false},
		{"expert", false},
		{"expert-2", false},
		{"demo_client", false},
		{"7", false},
		{strings.Repeat("a", 64), false},

		{"", true},
		{"Client", true},
		{"-client", true},
		{"_client", true},
		{"two words", true},
		{"client.old", true},
		{"../client", true},
		{strings.Repeat("a", 65), true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
