package store

// SplitNewActions partitions incoming actions into those not yet on
// record and a duplicate count. An action is a duplicate when its photo
// ID already has a finalized action, either from an earlier session or
// earlier in the same upload, so client retries and overlapping sessions
// cannot double-bill energy or inflate totals.
func SplitNewActions(prior, incoming []PhotoAction) ([]PhotoAction, int) {
	seen := make(map[string]bool, len(prior))
	for _, a := range prior {
		seen[a.PhotoID] = true
	}

	fresh := make([]PhotoAction, 0, len(incoming))
	duplicates := 0
	for _, a := range incoming {
		if seen[a.PhotoID] {
			duplicates++
			continue
		}
		seen[a.PhotoID] = true
		fresh = append(fresh, a)
	}
	return fresh, duplicates
}
