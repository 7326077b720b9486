package engine

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "- **Go**: services", "- **Go**: services"},
		{"markdown fence", "```markdown\n- a\n- b\n```", "- a\n- b"},
		{"bare fence", "```\n- a\n```", "- a"},
		{"whitespace", "  \n- a  \n", "- a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.raw); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
