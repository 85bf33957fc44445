package model

import "testing"

func TestScoreMapArgMax(t *testing.T) {
	cases := []struct {
		name   string
		scores ScoreMap
		want   string
	}{
		{
			name:   "single clear winner",
			scores: ScoreMap{"cat": 0.9, "dog": 0.1},
			want:   "cat",
		},
		{
			name:   "tie breaks lexicographically",
			scores: ScoreMap{"zebra": 0.5, "aardvark": 0.5, "mule": 0.2},
			want:   "aardvark",
		},
		{
			name:   "single entry",
			scores: ScoreMap{"only": 0.42},
			want:   "only",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scores.ArgMax(); got != tc.want {
				t.Errorf("ArgMax() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestScoreMapArgMaxEmpty(t *testing.T) {
	var scores ScoreMap
	if got := scores.ArgMax(); got != "" {
		t.Errorf("ArgMax() on empty map = %q, want \"\"", got)
	}
}
