package serp

// DedupeByTitle keeps the first occurrence of each distinct title,
// preserving the original relative order. Comparison is exact string
// equality.
func DedupeByTitle(records []Result) []Result {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]

	for _, r := range records {
		if _, dup := seen[r.Title]; dup {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Truncate caps the slice at max entries. Non-positive max means no cap.
func Truncate(records []Result, max int) []Result {
	if max > 0 && len(records) > max {
		return records[:max]
	}
	return records
}

// Normalize dedupes the collected buffer by title and caps it at
// pages*PageSize. Applying it to its own output is a no-op.
func Normalize(records []Result, pages int) []Result {
	if pages < 1 {
		pages = 1
	}
	return Truncate(DedupeByTitle(records), pages*PageSize)
}
