// Package diagnostics gathers the client and server facts a requester may
// attach to a support message.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/pkg/geoip"
)

// ErrForbidden is returned when the form token does not check out.
var ErrForbidden = errors.New("diagnostics: form token rejected")

// TokenVerifier checks an anti-forgery token without consuming it.
type TokenVerifier interface {
	Verify(token, action, userID string) error
}

// CountryLookup resolves a client address to a country.
type CountryLookup interface {
	LookupCountry(ip string) (geoip.Country, bool)
}

// Input carries the request-scoped facts the handler already knows.
type Input struct {
	Token  string
	Action string
	UserID string

	// ClientJSON is the client script payload posted in the hidden client field.
	ClientJSON string
	UserAgent  string
	RemoteAddr string

	HTTPS     bool
	LocalAddr string
	Options   site.Options
}

type Collector struct {
	verifier  TokenVerifier
	geo       CountryLookup
	goVersion string
	dirSize   func(ctx context.Context, root string) (int64, error)
}

// NewCollector builds a collector. geo may be nil.
func NewCollector(verifier TokenVerifier, geo CountryLookup) *Collector {
	return &Collector{
		verifier:  verifier,
		geo:       geo,
		goVersion: runtime.Version(),
		dirSize:   DirSize,
	}
}

// Collect re-checks the token and assembles the record. Apart from a
// rejected token it always succeeds; missing facts read Unknown.
func (c *Collector) Collect(ctx context.Context, in Input) (*Record, error) {
	if c.verifier == nil || c.verifier.Verify(in.Token, in.Action, in.UserID) != nil {
		return nil, ErrForbidden
	}

	return &Record{
		Client: c.clientFacts(in),
		Server: c.serverFacts(ctx, in),
	}, nil
}

func (c *Collector) clientFacts(in Input) Facts {
	var facts Facts

	var payload map[string]interface{}
	if strings.TrimSpace(in.ClientJSON) != "" && json.Unmarshal([]byte(in.ClientJSON), &payload) == nil {
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			facts.Set(k, formatValue(payload[k]))
		}
	}

	facts.Set("user-agent", in.UserAgent)
	facts.Set("remote-addr", in.RemoteAddr)
	// No reverse lookup on the request path.
	facts.Set("remote-host", Unknown)

	if c.geo != nil {
		country := Unknown
		if found, ok := c.geo.LookupCountry(in.RemoteAddr); ok {
			country = found.Code
			if found.Name != "" {
				country = fmt.Sprintf("%s (%s)", found.Name, found.Code)
			}
		}
		facts.Set("remote-country", country)
	}

	return facts
}

func (c *Collector) serverFacts(ctx context.Context, in Input) Facts {
	opts := in.Options
	var facts Facts

	facts.Set("wpurl", opts.URL)
	facts.Set("wp-version", opts.Version)
	facts.Set("go-version", c.goVersion)

	signature := opts.ServerSignature
	if signature == "" {
		signature = runtime.GOOS + "/" + runtime.GOARCH
	}
	facts.Set("os", signature)

	facts.Set("is-https", choose(in.HTTPS, "https", "http"))
	facts.Set("language", opts.Language)
	facts.Set("charset", opts.Charset)
	facts.Set("is-multisite", choose(opts.Multisite, "multisite", "singlesite"))
	facts.Set("stylesheet", opts.StylesheetURL)
	facts.Set("plugins", strings.Join(ActivePlugins(opts), ", "))
	if opts.MustUsePlugins != nil {
		mu := slices.Clone(opts.MustUsePlugins)
		sort.Strings(mu)
		facts.Set("mu-plugins", strings.Join(mu, ", "))
	}
	facts.Set("space-used", c.spaceUsed(ctx, opts))

	ip := opts.ServerAddr
	if ip == "" {
		ip = hostOnly(in.LocalAddr)
	}
	if ip != "" {
		facts.Set("ip", ip)
	}

	return facts
}

// ActivePlugins merges site and network-activated plugins, sorted and unique.
// Network plugins only count on multisite installs.
func ActivePlugins(opts site.Options) []string {
	all := slices.Clone(opts.ActivePlugins)
	if opts.Multisite {
		all = append(all, opts.NetworkPlugins...)
	}
	sort.Strings(all)
	return slices.Compact(all)
}

func (c *Collector) spaceUsed(ctx context.Context, opts site.Options) string {
	if opts.SpaceUsedMB != nil {
		return formatMB(*opts.SpaceUsedMB)
	}
	if opts.UploadsDir == "" {
		return Unknown
	}
	size, err := c.dirSize(ctx, opts.UploadsDir)
	if err != nil {
		return Unknown
	}
	return formatMB(float64(size) / bytesPerMB)
}

func formatMB(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
