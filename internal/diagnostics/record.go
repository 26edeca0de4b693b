package diagnostics

// Unknown stands in for any fact the host could not supply.
const Unknown = "Unknown"

// Fact is one labelled value in a diagnostic section.
type Fact struct {
	Key   string
	Value string
}

// Facts is an ordered list of facts with unique keys.
type Facts []Fact

// Set replaces the value for key, or appends it. Empty values become Unknown.
func (f *Facts) Set(key, value string) {
	if value == "" {
		value = Unknown
	}
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Fact{Key: key, Value: value})
}

// Get returns the value for key.
func (f Facts) Get(key string) (string, bool) {
	for _, fact := range f {
		if fact.Key == key {
			return fact.Value, true
		}
	}
	return "", false
}

// Record is the diagnostic bundle attached to a support request.
type Record struct {
	Client Facts
	Server Facts
}
