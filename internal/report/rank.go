package report

import (
	"fmt"
	"math"
	"sort"
)

// RankMethod selects how tied values are ranked.
type RankMethod string

// RankMethod values.
const (
	// RankDense gives ties the same rank and the next distinct value the next integer.
	RankDense RankMethod = "dense"
	// RankMin gives ties the lowest rank of the group and skips the positions they fill.
	RankMin RankMethod = "min"
)

// ParseRankMethod converts a config string into a RankMethod.
func ParseRankMethod(s string) (RankMethod, error) {
	switch m := RankMethod(s); m {
	case RankDense, RankMin:
		return m, nil
	case "":
		return RankDense, nil
	}
	return "", fmt.Errorf("unknown ranking method %q (expected dense or min)", s)
}

// Order is the direction in which values are ranked.
type Order int

// Order values.
const (
	// Descending ranks the largest value 1st.
	Descending Order = iota
	// Ascending ranks the smallest value 1st.
	Ascending
)

// Rank assigns a 1-based rank to every key in values.
// NaN values are left unranked.
func Rank(values map[string]float64, order Order, method RankMethod) map[string]int {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}

	if order == Descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	} else {
		sort.Float64s(vals)
	}

	// position maps each distinct value to its rank under the chosen method.
	// Ties are exact float equality; affordability passes the unrounded ratio.
	position := make(map[float64]int, len(vals))
	dense := 0
	for i, v := range vals {
		if _, ok := position[v]; ok {
			continue
		}
		dense++
		if method == RankMin {
			position[v] = i + 1
		} else {
			position[v] = dense
		}
	}

	ranks := make(map[string]int, len(values))
	for key, v := range values {
		if r, ok := position[v]; ok {
			ranks[key] = r
		}
	}
	return ranks
}
