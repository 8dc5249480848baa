package catalog

import (
	"fmt"
	"os"
)

// Pair holds the two companion filenames that make up one paired filing,
// both carrying the same as-of date.
type Pair struct {
	Form1 string // balance sheet
	Form2 string // income statement
}

// Stats counts what a resolution pass saw, for operational visibility.
// IncompletePairs is the number of entities dropped because they never
// accumulated both forms at their latest date.
type Stats struct {
	Scanned         int
	RegionFiltered  int
	ParseSkipped    int
	DateFiltered    int
	IncompletePairs int
}

// Resolver selects, per entity, the statement file(s) to treat as canonical
// for the current run. Configuration is explicit; the resolver holds no
// other state and every pass is a pure fold over the directory listing.
type Resolver struct {
	regions []string
	minDate string // exclusive lower bound (ISO date), "" = no bound
}

// NewResolver builds a resolver for the given region allow-list. minDate,
// when non-empty, restricts selection to files dated strictly after it
// (used for incremental runs).
func NewResolver(regions []string, minDate string) *Resolver {
	return &Resolver{regions: regions, minDate: minDate}
}

// candidate is one parsed file competing for an entity's slot.
type candidate struct {
	file string
	date string
}

// betterCandidate is the merge rule of the selection fold: the later date
// wins unconditionally; on a date tie the lexicographically greater filename
// wins, so scan order never affects the outcome.
func betterCandidate(cur, next candidate) candidate {
	if cur.file == "" {
		return next
	}
	if next.date > cur.date {
		return next
	}
	if next.date == cur.date && next.file > cur.file {
		return next
	}
	return cur
}

// ResolveSingle scans one directory of self-contained statements and returns,
// per entity, the filename with the maximum as-of date.
func (r *Resolver) ResolveSingle(dir string) (map[string]string, Stats, error) {
	var stats Stats
	names, err := r.listFiltered(dir, &stats)
	if err != nil {
		return nil, stats, err
	}

	latest := make(map[string]candidate)
	for _, name := range names {
		sf, err := ParseFileName(name, false)
		if err != nil {
			stats.ParseSkipped++
			continue
		}
		if r.minDate != "" && sf.AsOfDate <= r.minDate {
			stats.DateFiltered++
			continue
		}
		latest[sf.EntityCode] = betterCandidate(latest[sf.EntityCode], candidate{file: sf.Name, date: sf.AsOfDate})
	}

	chosen := make(map[string]string, len(latest))
	for entity, c := range latest {
		chosen[entity] = c.file
	}
	return chosen, stats, nil
}

// pairEntry tracks the best date seen for an entity and which form slots have
// been filled at that date. A strictly later date replaces the entry and
// resets both slots; "latest wins" even when the older date had a full pair.
type pairEntry struct {
	date  string
	form1 string
	form2 string
}

// mergePairEntry folds one candidate for the given form slot (1 or 2) into
// the entity's entry. Same tie rule as betterCandidate within a slot.
func mergePairEntry(cur pairEntry, form int, c candidate) pairEntry {
	if c.date > cur.date {
		e := pairEntry{date: c.date}
		e.set(form, c.file)
		return e
	}
	if c.date == cur.date {
		slot := cur.get(form)
		if slot == "" || c.file > slot {
			cur.set(form, c.file)
		}
	}
	return cur
}

func (e *pairEntry) set(form int, file string) {
	if form == 1 {
		e.form1 = file
	} else {
		e.form2 = file
	}
}

func (e *pairEntry) get(form int) string {
	if form == 1 {
		return e.form1
	}
	return e.form2
}

// ResolvePaired scans the two form directories independently and returns, per
// entity, the filename pair at the latest date for which both required forms
// exist. Entities whose latest date lacks either form are dropped and counted.
func (r *Resolver) ResolvePaired(form1Dir, form2Dir string) (map[string]Pair, Stats, error) {
	var stats Stats
	entries := make(map[string]pairEntry)

	if err := r.scanFormDir(form1Dir, 1, entries, &stats); err != nil {
		return nil, stats, err
	}
	if err := r.scanFormDir(form2Dir, 2, entries, &stats); err != nil {
		return nil, stats, err
	}

	pairs := make(map[string]Pair)
	for entity, e := range entries {
		if e.form1 == "" || e.form2 == "" {
			stats.IncompletePairs++
			continue
		}
		pairs[entity] = Pair{Form1: e.form1, Form2: e.form2}
	}
	return pairs, stats, nil
}

// scanFormDir folds one form directory into the per-entity entries.
func (r *Resolver) scanFormDir(dir string, form int, entries map[string]pairEntry, stats *Stats) error {
	names, err := r.listFiltered(dir, stats)
	if err != nil {
		return err
	}
	for _, name := range names {
		sf, err := ParseFileName(name, true)
		if err != nil {
			stats.ParseSkipped++
			continue
		}
		if r.minDate != "" && sf.AsOfDate <= r.minDate {
			stats.DateFiltered++
			continue
		}
		entries[sf.EntityCode] = mergePairEntry(entries[sf.EntityCode], form, candidate{file: sf.Name, date: sf.AsOfDate})
	}
	return nil
}

// listFiltered reads a directory and applies the region allow-list. A missing
// directory is downgraded to an empty listing with a warning, matching the
// "skip silently, keep the run alive" error policy.
func (r *Resolver) listFiltered(dir string, stats *Stats) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("[CATALOG] Warning: folder not found: %s\n", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stats.Scanned++
		if !RegionAllowed(e.Name(), r.regions) {
			stats.RegionFiltered++
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
