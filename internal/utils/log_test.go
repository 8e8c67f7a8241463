package utils

import (
	"strings"
	"testing"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	resume := strings.Repeat("Go engineer with Kubernetes experience. ", 10)

	cases := map[string]struct {
		in    string
		limit int
		want  string
	}{
		"zero limit hides the text": {in: "secret prompt", limit: 0, want: ""},
		"short subject kept":        {in: "Interview Scheduled", limit: 120, want: "Interview Scheduled"},
		"resume preview cut":        {in: resume, limit: 11, want: "Go engineer..."},
		"cuts on runes":             {in: "Résumé für München", limit: 6, want: "Résumé..."},
		"whitespace is trimmed":     {in: "\n  {\"score\": 85}\n", limit: 20, want: "{\"score\": 85}"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tc.in, tc.limit); got != tc.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
			}
		})
	}
}
