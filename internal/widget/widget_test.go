package widget

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/georgestephanis/support-widget/internal/recipients"
)

var pair = []recipients.Recipient{
	{Key: "admin", Label: "Site Admin", Address: "admin@example.com"},
	{Key: "george", Label: "George", Address: "g@example.com"},
}

func render(t *testing.T, data FormData) string {
	t.Helper()
	out, err := Render(data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(out)
}

func TestRenderSelectForSeveralRecipients(t *testing.T) {
	out := render(t, FormData{Recipients: pair, DefaultTo: "george", Nonce: "tok"})

	for _, want := range []string{
		`action="/admin-post.php"`,
		`name="action" value="gs_contact-support"`,
		`name="_supportnonce" value="tok"`,
		`<select name="to" required>`,
		`<option value="">Select …</option>`,
		`<option value="admin">Site Admin</option>`,
		`<option value="george" selected>George</option>`,
		`<option value="normal" selected>Normal</option>`,
		`<option value="critical">CRITICAL</option>`,
		`<textarea name="message"`,
		`name="extra_data" value="true" checked`,
		`name="client" id="gs_support_widget__client"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, `value="admin"`) > strings.Index(out, `value="george"`) {
		t.Error("recipients must keep their order")
	}
}

func TestRenderHiddenForSingleRecipient(t *testing.T) {
	out := render(t, FormData{Recipients: pair[1:]})
	if !strings.Contains(out, `<input type="hidden" name="to" value="george" />George`) {
		t.Fatalf("expected hidden recipient:\n%s", out)
	}
	if strings.Contains(out, `<select name="to"`) {
		t.Fatal("no select expected for a single recipient")
	}
}

func TestRenderHiddenForNoRecipients(t *testing.T) {
	out := render(t, FormData{})
	if !strings.Contains(out, `<input type="hidden" name="to" value="" />`) {
		t.Fatalf("expected empty hidden recipient:\n%s", out)
	}
}

func TestRenderEscapesLabels(t *testing.T) {
	out := render(t, FormData{Recipients: []recipients.Recipient{
		{Key: "x", Label: "<b>x</b>"},
		{Key: "y"},
	}})
	if strings.Contains(out, "<b>x</b>") {
		t.Fatal("label must be escaped")
	}
	if !strings.Contains(out, `<option value="y">y</option>`) {
		t.Fatalf("expected key as fallback label:\n%s", out)
	}
}

func TestClientScriptUsesClientFieldID(t *testing.T) {
	js, err := fs.ReadFile(Build(), "index.js")
	if err != nil {
		t.Fatalf("read client script: %v", err)
	}
	if !strings.Contains(string(js), `"`+ClientFieldID+`"`) {
		t.Fatalf("client script does not target %s", ClientFieldID)
	}
	// A missing field is a page defect and must surface as a script error.
	if strings.Contains(string(js), "e&&") {
		t.Fatal("client script must not skip a missing client field")
	}
	for _, key := range []string{"height", "width", "pixelRes", "tzOffset"} {
		if !strings.Contains(string(js), key+":") {
			t.Errorf("client script does not report %s", key)
		}
	}
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(Build())
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Version == "" || m.Dependencies == nil {
		t.Fatalf("unexpected manifest %+v", m)
	}

	if _, err := LoadManifest(fstest.MapFS{}); err == nil {
		t.Fatal("expected error for missing manifest")
	}
	bad := fstest.MapFS{"index.asset.json": {Data: []byte("{")}}
	if _, err := LoadManifest(bad); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}

func TestEnqueue(t *testing.T) {
	e := Enqueue("/assets", Manifest{Version: "abc", Dependencies: []string{"wp-i18n"}})
	if e.ScriptURL != "/assets/index.js?ver=abc" || e.StyleURL != "/assets/index.css?ver=abc" {
		t.Fatalf("unexpected urls %+v", e)
	}
	if got := string(e.ScriptTag()); got != `<script src="/assets/index.js?ver=abc" id="support-widget-js" defer></script>` {
		t.Fatalf("unexpected script tag %s", got)
	}
	if !strings.Contains(string(e.StyleTag()), `href="/assets/index.css?ver=abc"`) {
		t.Fatalf("unexpected style tag %s", e.StyleTag())
	}
	if Enqueue("/a", Manifest{}).ScriptURL != "/a/index.js" {
		t.Fatal("unversioned assets carry no query string")
	}
}
