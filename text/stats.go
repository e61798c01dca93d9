package text

import "unicode/utf8"

// DiffStats summarizes a line diff
type DiffStats struct {
	LinesAdded   int
	LinesRemoved int
	LinesChanged int // adjacent (old, new) pairs left after the merge pass
	CharChanges  int // characters (runes) on added and removed lines
}

// ComputeStats aggregates counts over a unit sequence
func ComputeStats(units []DiffUnit) DiffStats {
	var stats DiffStats
	for i, u := range units {
		switch u.Type {
		case DiffNew:
			stats.LinesAdded++
			stats.CharChanges += utf8.RuneCountInString(u.Line)
		case DiffOld:
			stats.LinesRemoved++
			stats.CharChanges += utf8.RuneCountInString(u.Line)
			if i+1 < len(units) && units[i+1].Type == DiffNew {
				stats.LinesChanged++
			}
		}
	}
	return stats
}

// IsEmpty reports whether the stats describe no change at all
func (s DiffStats) IsEmpty() bool {
	return s.LinesAdded == 0 && s.LinesRemoved == 0
}

// ToLuaFormat converts DiffStats to a Lua-friendly map format
func (s DiffStats) ToLuaFormat() map[string]any {
	return map[string]any{
		"linesAdded":   s.LinesAdded,
		"linesRemoved": s.LinesRemoved,
		"linesChanged": s.LinesChanged,
		"charChanges":  s.CharChanges,
	}
}
