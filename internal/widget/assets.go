package widget

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
)

//go:embed assets/build
var embedded embed.FS

// Handle is the asset handle used for both the script and the stylesheet.
const Handle = "support-widget"

// Manifest is the build's index.asset.json.
type Manifest struct {
	Dependencies []string `json:"dependencies"`
	Version      string   `json:"version"`
}

// Build returns the compiled asset directory.
func Build() fs.FS {
	sub, err := fs.Sub(embedded, "assets/build")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadManifest reads index.asset.json from the build directory.
func LoadManifest(build fs.FS) (Manifest, error) {
	raw, err := fs.ReadFile(build, "index.asset.json")
	if err != nil {
		return Manifest{}, fmt.Errorf("read asset manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode asset manifest: %w", err)
	}
	if m.Dependencies == nil {
		m.Dependencies = []string{}
	}
	return m, nil
}

// Enqueued describes the widget's stylesheet and footer script.
type Enqueued struct {
	Handle       string
	StyleURL     string
	ScriptURL    string
	Dependencies []string
}

// Enqueue builds versioned asset URLs below prefix, e.g. "/assets".
func Enqueue(prefix string, m Manifest) Enqueued {
	v := url.Values{}
	if m.Version != "" {
		v.Set("ver", m.Version)
	}
	suffix := ""
	if len(v) > 0 {
		suffix = "?" + v.Encode()
	}
	return Enqueued{
		Handle:       Handle,
		StyleURL:     prefix + "/index.css" + suffix,
		ScriptURL:    prefix + "/index.js" + suffix,
		Dependencies: m.Dependencies,
	}
}

// StyleTag is the head link element.
func (e Enqueued) StyleTag() template.HTML {
	return template.HTML(fmt.Sprintf(`<link rel="stylesheet" id="%s-css" href="%s" media="all" />`,
		template.HTMLEscapeString(e.Handle), template.HTMLEscapeString(e.StyleURL)))
}

// ScriptTag is the deferred footer script element.
func (e Enqueued) ScriptTag() template.HTML {
	return template.HTML(fmt.Sprintf(`<script src="%s" id="%s-js" defer></script>`,
		template.HTMLEscapeString(e.ScriptURL), template.HTMLEscapeString(e.Handle)))
}
