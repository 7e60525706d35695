package registry

import (
	"sort"
	"strings"
)

// tierOf maps a tag name to its tier by prefix: r for releases, w for
// weeklies and d for dailies. Any other tag is not retained.
func tierOf(tag string) (Tier, bool) {
	switch {
	case strings.HasPrefix(tag, "r"):
		return TierRelease, true
	case strings.HasPrefix(tag, "w"):
		return TierWeekly, true
	case strings.HasPrefix(tag, "d"):
		return TierDaily, true
	}
	return "", false
}

// Classify buckets tags into tiers, orders each tier newest first by
// sortField and truncates it to the tier's retain count.
func Classify(tags []TagEntry, cfg Config) (*ScanData, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	buckets := map[Tier][]TagEntry{}
	for _, tag := range tags {
		tier, ok := tierOf(tag.Name)
		if !ok {
			continue
		}
		buckets[tier] = append(buckets[tier], tag)
	}

	data := &ScanData{}
	for _, tier := range Tiers {
		entries := buckets[tier]
		sortEntries(entries, cfg.SortField)
		if keep := cfg.Keep(tier); len(entries) > keep {
			entries = entries[:keep]
		}
		switch tier {
		case TierDaily:
			data.Daily = entries
		case TierWeekly:
			data.Weekly = entries
		case TierRelease:
			data.Release = entries
		}
	}
	return data, nil
}

func sortEntries(entries []TagEntry, field string) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if field == SortByCompletion && !a.CompTS.Equal(b.CompTS) {
			return a.CompTS.After(b.CompTS)
		}
		return a.Name > b.Name
	})
}
