package utils

// BatchStrings splits items into consecutive batches of at most batchSize.
func BatchStrings(items []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = len(items)
	}
	if len(items) == 0 {
		return [][]string{}
	}

	var batches [][]string
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// UniqueStrings drops empty strings and duplicates, keeping first occurrence order.
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
