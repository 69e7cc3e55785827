package glossary

// DiffResult represents the difference between two term lists, typically the
// stored glossary versus a reviewer-edited CSV import.
type DiffResult struct {
	// Added contains terms present only in the new list.
	Added []Term

	// Removed contains terms present only in the old list.
	Removed []Term

	// Unchanged contains terms identical in both lists.
	Unchanged []Term

	// Modified contains terms whose original matches but whose translation,
	// category or context changed.
	Modified []ModifiedTerm
}

// ModifiedTerm pairs the old and new versions of a changed term.
type ModifiedTerm struct {
	Old Term
	New Term
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// Diff compares two term lists keyed by original. Use it to show a reviewer
// what their CSV edits will change before the import is accepted.
func Diff(oldTerms, newTerms []Term) *DiffResult {
	result := &DiffResult{}

	oldByOriginal := make(map[string]Term, len(oldTerms))
	for _, t := range oldTerms {
		oldByOriginal[t.Original] = t
	}
	newByOriginal := make(map[string]Term, len(newTerms))
	for _, t := range newTerms {
		newByOriginal[t.Original] = t
	}

	// Preserve new-list order for added/modified/unchanged.
	for _, newTerm := range newTerms {
		oldTerm, exists := oldByOriginal[newTerm.Original]
		switch {
		case !exists:
			result.Added = append(result.Added, newTerm)
		case sameTerm(oldTerm, newTerm):
			result.Unchanged = append(result.Unchanged, newTerm)
		default:
			result.Modified = append(result.Modified, ModifiedTerm{Old: oldTerm, New: newTerm})
		}
	}

	// Preserve old-list order for removed.
	for _, oldTerm := range oldTerms {
		if _, exists := newByOriginal[oldTerm.Original]; !exists {
			result.Removed = append(result.Removed, oldTerm)
		}
	}

	return result
}

func sameTerm(a, b Term) bool {
	if a.Original != b.Original || a.Translation != b.Translation ||
		a.Category != b.Category || a.Context != b.Context {
		return false
	}
	if len(a.KnownWrongVariants) != len(b.KnownWrongVariants) {
		return false
	}
	for i := range a.KnownWrongVariants {
		if a.KnownWrongVariants[i] != b.KnownWrongVariants[i] {
			return false
		}
	}
	return true
}
