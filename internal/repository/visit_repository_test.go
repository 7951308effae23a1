package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{VisitStatusPending, VisitStatusCompleted, true},
		{VisitStatusPending, VisitStatusSkipped, true},
		{VisitStatusPending, VisitStatusPending, false},
		{VisitStatusCompleted, VisitStatusPending, false},
		{VisitStatusCompleted, VisitStatusSkipped, false},
		{VisitStatusSkipped, VisitStatusCompleted, false},
		{"", VisitStatusCompleted, false},
		{VisitStatusPending, "CANCELLED", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"transition %s -> %s", tc.from, tc.to)
	}
}
