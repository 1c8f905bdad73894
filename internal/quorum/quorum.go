// Package quorum implements the strict-majority predicate used to
// decide whether a Candidate has collected enough votes to become
// Leader (spec.md §4.C).
package quorum

// Majority reports whether more than floor(len(votes)/2) entries of
// votes are true. No tie policy is needed: a strict majority is
// required by construction (integer division rounds the threshold
// down, so for an even N, N/2+1 votes are required).
func Majority(votes []bool) bool {
	count := 0
	for _, v := range votes {
		if v {
			count++
		}
	}
	return count > len(votes)/2
}
