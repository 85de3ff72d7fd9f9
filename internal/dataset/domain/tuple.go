package dataset

import (
	"sort"
	"strconv"
	"strings"
)

const keySeparator = "\x1f"

// Key encodes an index tuple as a map key.
func Key(tuple []string) string {
	return strings.Join(tuple, keySeparator)
}

// CompareMembers orders two set members, numerically when both are integers.
func CompareMembers(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// CompareTuples orders index tuples component by component.
func CompareTuples(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareMembers(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// SortMembers sorts members in place using CompareMembers.
func SortMembers(members []string) {
	sort.SliceStable(members, func(i, j int) bool {
		return CompareMembers(members[i], members[j]) < 0
	})
}

// Product returns the Cartesian product of the given member lists.
func Product(domains [][]string) [][]string {
	out := [][]string{{}}
	for _, members := range domains {
		next := make([][]string, 0, len(out)*len(members))
		for _, prefix := range out {
			for _, member := range members {
				tuple := make([]string, len(prefix)+1)
				copy(tuple, prefix)
				tuple[len(prefix)] = member
				next = append(next, tuple)
			}
		}
		out = next
	}
	return out
}
