package domain

import (
	"math"    // Integer bounds
	"testing" // Testing framework

	"github.com/stretchr/testify/assert" // Testify for assertions
)

func TestTuitionQuerySkip(t *testing.T) {
	cases := []struct {
		name string
		q    TuitionQuery
		want int
	}{
		{"first page", TuitionQuery{Page: 1, Limit: 8}, 0},
		{"third page", TuitionQuery{Page: 3, Limit: 8}, 16},
		{"zero page", TuitionQuery{Page: 0, Limit: 8}, 0},
		{"zero limit", TuitionQuery{Page: 4, Limit: 0}, 0},
		{"huge page saturates", TuitionQuery{Page: 1152921504606846977, Limit: 8}, math.MaxInt},
		{"max page saturates", TuitionQuery{Page: math.MaxInt, Limit: 100}, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.Skip())
		})
	}
}
