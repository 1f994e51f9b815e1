package domain

// OptionCount is the number of candidate answers shown per question.
const OptionCount = 4

// Prompt is the question text shown with every flag.
const Prompt = "Which country's flag is this?"

// DefaultCatalogName identifies the built-in catalog in loaders and caches.
const DefaultCatalogName = "default"

// FlagEntry pairs a flag image with the country it belongs to.
type FlagEntry struct {
	ImageRef string `json:"imageRef"`
	Country  string `json:"country"`
}

// Catalog is the ordered question bank.
type Catalog []FlagEntry

// DefaultCatalog returns a fresh copy of the built-in 12 flags.
func DefaultCatalog() Catalog {
	return Catalog{
		{ImageRef: "uk.png", Country: "UK"},
		{ImageRef: "usa.png", Country: "USA"},
		{ImageRef: "southkorea.png", Country: "South Korea"},
		{ImageRef: "italy.png", Country: "Italy"},
		{ImageRef: "india.png", Country: "India"},
		{ImageRef: "australia.png", Country: "Australia"},
		{ImageRef: "brazil.png", Country: "Brazil"},
		{ImageRef: "canada.png", Country: "Canada"},
		{ImageRef: "france.png", Country: "France"},
		{ImageRef: "germany.png", Country: "Germany"},
		{ImageRef: "vietnam.png", Country: "Vietnam"},
		{ImageRef: "japan.png", Country: "Japan"},
	}
}

// Validate checks that the catalog can always produce a full option set.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrCatalogTooSmall
	}
	distinct := make(map[string]struct{}, len(c))
	for _, entry := range c {
		if entry.Country == "" {
			return ErrInvalidFlag
		}
		distinct[entry.Country] = struct{}{}
	}
	if len(distinct) < OptionCount {
		return ErrCatalogTooSmall
	}
	return nil
}

// IndexOf returns the position of the first entry for country, or -1.
func (c Catalog) IndexOf(country string) int {
	for i, entry := range c {
		if entry.Country == country {
			return i
		}
	}
	return -1
}

// Clone returns a copy that does not share the backing array.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}
