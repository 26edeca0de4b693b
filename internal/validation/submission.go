package validation

import (
	"strconv"
	"strings"
)

// Field names posted by the support form.
const (
	FieldAction    = "action"
	FieldNonce     = "_supportnonce"
	FieldTo        = "to"
	FieldPriority  = "priority"
	FieldMessage   = "message"
	FieldExtraData = "extra_data"
	FieldClient    = "client"
)

// SupportRequest is one posted support form.
type SupportRequest struct {
	To        string `form:"to"`
	Priority  string `form:"priority"`
	Message   string `form:"message"`
	ExtraData string `form:"extra_data"`
	Client    string `form:"client"`
	Nonce     string `form:"_supportnonce"`
}

// WantsDiagnostics reports whether the opt-in checkbox was ticked. An
// unticked checkbox is simply absent; "0" and "false" also count as off.
func (r *SupportRequest) WantsDiagnostics() bool {
	v := strings.TrimSpace(r.ExtraData)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

// Priority is the resolved urgency of a request.
type Priority struct {
	Key   string
	Title string
	// Weight is the X-Priority header value, 1 (highest) to 5 (lowest).
	Weight int
}

// Priorities lists the selectable levels in display order.
var Priorities = []Priority{
	{Key: "critical", Title: "CRITICAL", Weight: 1},
	{Key: "high", Title: "High", Weight: 2},
	{Key: "normal", Title: "Normal", Weight: 3},
	{Key: "low", Title: "Low", Weight: 5},
}

// DefaultPriority is used for anything unrecognised.
var DefaultPriority = Priorities[2]

// ParsePriority maps a posted value to its Priority. Unknown values fall back
// to DefaultPriority rather than being rejected.
func ParsePriority(v string) Priority {
	for _, p := range Priorities {
		if p.Key == v {
			return p
		}
	}
	return DefaultPriority
}
