// Package merge folds freshly classified companies into a stored company list.
package merge

import "github.com/vipul43/jobtrail/internal/models"

// Companies merges incoming into existing and returns the merged list with
// recomputed totals. Neither input is modified.
//
// Companies match case-insensitively by name. For a matched company, incoming
// non-manual positions are appended unless their (title, submitted) identity is
// already present among the stored non-manual positions; stored manual
// positions are kept after them, untouched. Unmatched incoming companies are
// appended, and stored companies missing from incoming keep their place.
// Merging the same batch twice adds nothing the second time.
func Companies(existing, incoming []models.CompanyRecord) ([]models.CompanyRecord, models.Totals) {
	merged := models.CloneCompanies(existing)
	if merged == nil {
		merged = []models.CompanyRecord{}
	}

	index := make(map[string]int, len(merged))
	for i, c := range merged {
		if _, ok := index[c.NameKey()]; !ok {
			index[c.NameKey()] = i
		}
	}

	for _, c := range incoming {
		key := c.NameKey()
		if key == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			fresh := c.Clone()
			fresh.Positions = automatic(fresh.Positions)
			index[key] = len(merged)
			merged = append(merged, fresh)
			continue
		}
		merged[i] = mergeCompany(merged[i], c)
	}

	return merged, models.ComputeTotals(merged)
}

func mergeCompany(stored, incoming models.CompanyRecord) models.CompanyRecord {
	var auto, manual []models.PositionRecord
	for _, p := range stored.Positions {
		if p.Manual {
			manual = append(manual, p)
		} else {
			auto = append(auto, p)
		}
	}

	seen := make(map[models.PositionKey]struct{}, len(auto))
	for _, p := range auto {
		seen[p.Key()] = struct{}{}
	}
	for _, p := range automatic(incoming.Positions) {
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}
		auto = append(auto, p)
	}

	out := stored
	out.Positions = append(auto, manual...)
	if incoming.EmailCount > out.EmailCount {
		out.EmailCount = incoming.EmailCount
	}
	out.Manual = stored.Manual || incoming.Manual
	return out
}

// automatic drops positions flagged manual; classification never produces them
func automatic(positions []models.PositionRecord) []models.PositionRecord {
	out := make([]models.PositionRecord, 0, len(positions))
	for _, p := range positions {
		if !p.Manual {
			out = append(out, p)
		}
	}
	return out
}
