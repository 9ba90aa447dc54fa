package words

import "codeberg.org/afewwords/companion/internal/api"

func seenIDs(words []api.WordEntry) map[int64]struct{} {
	seen := make(map[int64]struct{}, len(words))
	for _, word := range words {
		if word.ID != 0 {
			seen[word.ID] = struct{}{}
		}
	}
	return seen
}

// puts entries of page whose id is not in current in front of current.
// entries without an id are always new.
func mergeFront(current, page []api.WordEntry) []api.WordEntry {
	seen := seenIDs(current)

	merged := make([]api.WordEntry, 0, len(page)+len(current))
	for _, word := range page {
		if _, ok := seen[word.ID]; ok && word.ID != 0 {
			continue
		}
		merged = append(merged, word)
	}

	return append(merged, current...)
}

// appends entries of page whose id is not in current yet
func appendUnseen(current, page []api.WordEntry) []api.WordEntry {
	seen := seenIDs(current)

	for _, word := range page {
		if _, ok := seen[word.ID]; ok && word.ID != 0 {
			continue
		}
		current = append(current, word)
	}

	return current
}
