package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already a slug", "ana", "ana"},
		{"uppercase folded", "JohnDoe", "johndoe"},
		{"spaces become hyphens", "John Doe", "john-doe"},
		{"runs collapse", "a  -  b", "a-b"},
		{"diacritics stripped", "José Álvarez", "jose-alvarez"},
		{"digits kept", "user42", "user42"},
		{"leading and trailing junk trimmed", "--hello world!--", "hello-world"},
		{"symbols dropped", "c++ & go", "c-go"},
		{"empty input", "", ""},
		{"only junk", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
