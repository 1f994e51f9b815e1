package engine

import "flag-quiz-service/internal/domain"

// buildOptions returns OptionCount distinct country names including the one at
// index. Candidates come from a shuffled copy of the catalog; duplicates are
// skipped and the final list is shuffled again for display.
func buildOptions(catalog domain.Catalog, index int, rnd Rand) []string {
	correct := catalog[index].Country

	seen := make(map[string]struct{}, domain.OptionCount)
	seen[correct] = struct{}{}
	options := make([]string, 0, domain.OptionCount)
	options = append(options, correct)

	shuffled := catalog.Clone()
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, entry := range shuffled {
		if len(options) == domain.OptionCount {
			break
		}
		if _, ok := seen[entry.Country]; ok {
			continue
		}
		seen[entry.Country] = struct{}{}
		options = append(options, entry.Country)
	}

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
