// Package leaderboard ranks painters by how many pixels they currently
// account for.
package leaderboard

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

const Limit = 10

// Rank expects entries in join order. Nameless entries are skipped, ties
// keep join order, and at most Limit entries come back.
func Rank(entries []types.LeaderboardEntry) []types.LeaderboardEntry {
	ranked := lo.Filter(entries, func(e types.LeaderboardEntry, _ int) bool {
		return e.Username != ""
	})
	slices.SortStableFunc(ranked, func(a, b types.LeaderboardEntry) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(ranked) > Limit {
		ranked = ranked[:Limit]
	}
	return ranked
}
