package odds

import (
	"sort"

	"github.com/sideline/platform/internal/domain"
)

// ResolveEffective picks the single snapshot used to price bets for one
// event and market. Overridden snapshots win; then bookmakers in preferred
// order; then the most recently updated; then bookmaker key order.
// Returns nil when snapshots is empty.
func ResolveEffective(snapshots []domain.OddsSnapshot, preferred []string) *domain.OddsSnapshot {
	if len(snapshots) == 0 {
		return nil
	}

	rank := make(map[string]int, len(preferred))
	for i, bk := range preferred {
		if _, ok := rank[bk]; !ok {
			rank[bk] = i
		}
	}
	pref := func(bk string) int {
		if r, ok := rank[bk]; ok {
			return r
		}
		return len(preferred)
	}

	candidates := make([]domain.OddsSnapshot, len(snapshots))
	copy(candidates, snapshots)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.IsOverridden != b.IsOverridden {
			return a.IsOverridden
		}
		if pa, pb := pref(a.Bookmaker), pref(b.Bookmaker); pa != pb {
			return pa < pb
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.Bookmaker < b.Bookmaker
	})

	return &candidates[0]
}

// GroupByMarket resolves the effective snapshot for every market present.
func GroupByMarket(snapshots []domain.OddsSnapshot, preferred []string) map[domain.Market]*domain.OddsSnapshot {
	byMarket := make(map[domain.Market][]domain.OddsSnapshot)
	for _, s := range snapshots {
		byMarket[s.Market] = append(byMarket[s.Market], s)
	}
	out := make(map[domain.Market]*domain.OddsSnapshot, len(byMarket))
	for m, list := range byMarket {
		out[m] = ResolveEffective(list, preferred)
	}
	return out
}
