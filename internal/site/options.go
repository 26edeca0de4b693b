// Package site exposes the host's read-only site configuration.
package site

import (
	"context"
	"strings"

	"github.com/georgestephanis/support-widget/pkg/config"
)

// Options is a snapshot of the site settings the widget reads. Empty strings
// mean the host did not report a value.
type Options struct {
	Name          string
	URL           string
	AdminEmail    string
	Version       string
	Language      string
	Charset       string
	StylesheetURL string
	Multisite     bool

	ActivePlugins  []string
	NetworkPlugins []string
	// MustUsePlugins is nil when the host cannot enumerate them.
	MustUsePlugins []string

	UploadsDir string
	// SpaceUsedMB is the host's precomputed storage figure, nil when absent.
	SpaceUsedMB *float64

	ServerSignature string
	ServerAddr      string
}

// Source loads the current options. Implementations never write.
type Source interface {
	Load(ctx context.Context) (Options, error)
}

// Static serves a fixed snapshot.
type Static Options

func (s Static) Load(context.Context) (Options, error) {
	return Options(s), nil
}

// FromEnv reads options from the process environment.
func FromEnv() Options {
	opts := Options{
		Name:            config.GetEnv("SITE_NAME", "My Site"),
		URL:             config.GetEnv("SITE_URL", "http://localhost:18040"),
		AdminEmail:      config.GetEnv("ADMIN_EMAIL", ""),
		Version:         config.GetEnv("SITE_VERSION", ""),
		Language:        config.GetEnv("SITE_LANGUAGE", "en-US"),
		Charset:         config.GetEnv("SITE_CHARSET", "UTF-8"),
		StylesheetURL:   config.GetEnv("SITE_STYLESHEET_URL", ""),
		Multisite:       config.GetEnvBool("SITE_MULTISITE", false),
		ActivePlugins:   config.GetEnvList("SITE_ACTIVE_PLUGINS"),
		NetworkPlugins:  config.GetEnvList("SITE_NETWORK_PLUGINS"),
		UploadsDir:      config.GetEnv("SITE_UPLOADS_DIR", ""),
		ServerSignature: config.GetEnv("SERVER_SIGNATURE", ""),
		ServerAddr:      config.GetEnv("SERVER_ADDR", ""),
	}
	if mu := config.GetEnv("SITE_MU_PLUGINS", ""); mu != "" {
		opts.MustUsePlugins = config.GetEnvList("SITE_MU_PLUGINS")
	}
	return opts
}

// Overlay fills blank fields of o from fallback.
func (o Options) Overlay(fallback Options) Options {
	pick := func(v, f string) string {
		if strings.TrimSpace(v) == "" {
			return f
		}
		return v
	}
	o.Name = pick(o.Name, fallback.Name)
	o.URL = pick(o.URL, fallback.URL)
	o.AdminEmail = pick(o.AdminEmail, fallback.AdminEmail)
	o.Version = pick(o.Version, fallback.Version)
	o.Language = pick(o.Language, fallback.Language)
	o.Charset = pick(o.Charset, fallback.Charset)
	o.StylesheetURL = pick(o.StylesheetURL, fallback.StylesheetURL)
	o.UploadsDir = pick(o.UploadsDir, fallback.UploadsDir)
	o.ServerSignature = pick(o.ServerSignature, fallback.ServerSignature)
	o.ServerAddr = pick(o.ServerAddr, fallback.ServerAddr)
	if o.ActivePlugins == nil {
		o.ActivePlugins = fallback.ActivePlugins
	}
	if o.NetworkPlugins == nil {
		o.NetworkPlugins = fallback.NetworkPlugins
	}
	if o.MustUsePlugins == nil {
		o.MustUsePlugins = fallback.MustUsePlugins
	}
	if o.SpaceUsedMB == nil {
		o.SpaceUsedMB = fallback.SpaceUsedMB
	}
	o.Multisite = o.Multisite || fallback.Multisite
	return o
}
