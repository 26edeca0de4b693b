package recipients

import (
	"fmt"
	"strings"

	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/pkg/auth"
)

// Add appends rcpt, replacing any entry with the same key.
func Add(rcpt Recipient) Filter {
	return func(list []Recipient, _ auth.User, _ site.Options) []Recipient {
		return append(list, rcpt)
	}
}

// Remove drops the entries with the given keys.
func Remove(keys ...string) Filter {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	return func(list []Recipient, _ auth.User, _ site.Options) []Recipient {
		out := make([]Recipient, 0, len(list))
		for _, rcpt := range list {
			if !drop[rcpt.Key] {
				out = append(out, rcpt)
			}
		}
		return out
	}
}

// FixedDefault pre-selects key when it is eligible.
func FixedDefault(key string) DefaultFilter {
	return func(current string, eligible []Recipient, _ auth.User) string {
		if _, ok := Lookup(eligible, key); ok {
			return key
		}
		return current
	}
}

// ParseSpec parses "key|Label|address[|capability]" entries separated by ";".
func ParseSpec(spec string) ([]Recipient, error) {
	var out []Recipient
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("recipient %q: want key|label|address[|capability]", entry)
		}
		rcpt := Recipient{
			Key:     strings.TrimSpace(parts[0]),
			Label:   strings.TrimSpace(parts[1]),
			Address: strings.TrimSpace(parts[2]),
		}
		if len(parts) == 4 {
			rcpt.Capability = strings.TrimSpace(parts[3])
		}
		if rcpt.Key == "" || rcpt.Address == "" {
			return nil, fmt.Errorf("recipient %q: key and address are required", entry)
		}
		out = append(out, rcpt)
	}
	return out, nil
}
