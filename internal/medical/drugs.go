package medical

import "strings"

// ExtractDrugs scans the query for names from the drug lexicon by substring
// match and returns them in lexicon order, deduplicated.
func ExtractDrugs(query string, lexicon []string) []string {
	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	var found []string

	for _, drug := range lexicon {
		name := strings.ToLower(drug)
		if name == "" || seen[name] {
			continue
		}
		if strings.Contains(lower, name) {
			seen[name] = true
			found = append(found, name)
		}
	}

	return found
}
