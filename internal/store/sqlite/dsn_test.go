package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "absolute path", input: "sqlite:///var/lib/posebvh.db", expected: "/var/lib/posebvh.db"},
		{name: "explicit relative", input: "sqlite://./posebvh.db", expected: "./posebvh.db"},
		{name: "bare relative", input: "sqlite://data/posebvh.db", expected: "./data/posebvh.db"},
		{name: "escaped path", input: "sqlite://my%20captures.db", expected: "./my captures.db"},
		{name: "query kept", input: "sqlite://posebvh.db?_pragma=foreign_keys(1)", expected: "./posebvh.db?_pragma=foreign_keys(1)"},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDSN(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("parseDSN(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
