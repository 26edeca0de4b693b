// Package recipients builds the list of people a support request can go to.
package recipients

import (
	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/pkg/auth"
)

// DefaultMaintainerAddress receives requests addressed to the maintainer.
const DefaultMaintainerAddress = "daljo628@gmail.com"

const (
	KeyAdmin      = "admin"
	KeyMaintainer = "george"
)

// Recipient is one selectable destination.
type Recipient struct {
	Key     string
	Label   string
	Address string
	// Capability the acting user needs; empty means anyone may use it.
	Capability string
}

// Filter transforms the recipient list before capability checks. Filters may
// add, remove, reorder or rewrite entries.
type Filter func(list []Recipient, u auth.User, opts site.Options) []Recipient

// DefaultFilter picks the pre-selected key given the eligible list.
type DefaultFilter func(current string, eligible []Recipient, u auth.User) string

// Registry holds the collaborator pipelines. It is configured once at
// startup and then only read.
type Registry struct {
	maintainer string
	filters    []Filter
	defaults   []DefaultFilter
}

func NewRegistry(maintainerAddress string) *Registry {
	if maintainerAddress == "" {
		maintainerAddress = DefaultMaintainerAddress
	}
	return &Registry{maintainer: maintainerAddress}
}

// Use appends list filters, run in registration order.
func (r *Registry) Use(filters ...Filter) {
	r.filters = append(r.filters, filters...)
}

// UseDefault appends default-recipient filters, run in registration order.
func (r *Registry) UseDefault(filters ...DefaultFilter) {
	r.defaults = append(r.defaults, filters...)
}

// Base returns the built-in pair before any collaborator has touched it.
func (r *Registry) Base(opts site.Options) []Recipient {
	return []Recipient{
		{Key: KeyAdmin, Label: "Site Admin", Address: opts.AdminEmail, Capability: "edit_posts"},
		{Key: KeyMaintainer, Label: "George", Address: r.maintainer},
	}
}

// Eligible runs the pipeline and drops entries u may not use or that have no
// address to deliver to. The result is freshly built on each call.
func (r *Registry) Eligible(u auth.User, opts site.Options) []Recipient {
	list := r.Base(opts)
	for _, f := range r.filters {
		list = f(list, u, opts)
	}
	list = dedupe(list)

	out := make([]Recipient, 0, len(list))
	for _, rcpt := range list {
		if rcpt.Key == "" || rcpt.Address == "" {
			continue
		}
		if rcpt.Capability != "" && !u.Can(rcpt.Capability) {
			continue
		}
		out = append(out, rcpt)
	}
	return out
}

// Default returns the pre-selected key for the form.
func (r *Registry) Default(eligible []Recipient, u auth.User) string {
	current := ""
	for _, f := range r.defaults {
		current = f(current, eligible, u)
	}
	return current
}

// Lookup finds key in list.
func Lookup(list []Recipient, key string) (Recipient, bool) {
	if key == "" {
		return Recipient{}, false
	}
	for _, rcpt := range list {
		if rcpt.Key == key {
			return rcpt, true
		}
	}
	return Recipient{}, false
}

// dedupe keeps the last entry per key at the position of the first, so a
// filter appending an existing key replaces it.
func dedupe(list []Recipient) []Recipient {
	index := make(map[string]int, len(list))
	out := make([]Recipient, 0, len(list))
	for _, rcpt := range list {
		if i, ok := index[rcpt.Key]; ok {
			out[i] = rcpt
			continue
		}
		index[rcpt.Key] = len(out)
		out = append(out, rcpt)
	}
	return out
}
