package main

import "testing"

func TestResolveStartURLOverride(t *testing.T) {
	cases := []struct {
		name       string
		urlFlag    string
		positional []string
		want       string
	}{
		{"flag wins", "https://override.example.edu", []string{"seb://exam.example.edu"}, "https://override.example.edu"},
		{"seb scheme rewritten", "", []string{"seb://exam.example.edu/start"}, "https://exam.example.edu/start"},
		{"sebs scheme rewritten", "", []string{"sebs://exam.example.edu/start"}, "https://exam.example.edu/start"},
		{"non-seb positional ignored", "", []string{"https://exam.example.edu/start"}, ""},
		{"no positional no flag", "", nil, ""},
		{"multiple positional args ignored", "", []string{"seb://a", "seb://b"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveStartURLOverride(tc.urlFlag, tc.positional)
			if got != tc.want {
				t.Errorf("resolveStartURLOverride(%q, %v) = %q, want %q", tc.urlFlag, tc.positional, got, tc.want)
			}
		})
	}
}
