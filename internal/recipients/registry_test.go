package recipients

import (
	"testing"

	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/pkg/auth"
)

var opts = site.Options{AdminEmail: "admin@example.com"}

func keys(list []Recipient) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Key)
	}
	return out
}

func TestEligibleWithoutCapabilities(t *testing.T) {
	reg := NewRegistry("")
	for _, role := range []string{"subscriber", "", "unknown-role"} {
		list := reg.Eligible(auth.User{Role: role}, opts)
		if len(list) != 1 || list[0].Key != KeyMaintainer {
			t.Fatalf("role %q: expected only the maintainer, got %v", role, keys(list))
		}
		if list[0].Address != DefaultMaintainerAddress {
			t.Fatalf("unexpected maintainer address %q", list[0].Address)
		}
	}
}

func TestEligibleWithCapability(t *testing.T) {
	reg := NewRegistry("maint@example.com")
	list := reg.Eligible(auth.User{Role: "editor"}, opts)
	if got := keys(list); len(got) != 2 || got[0] != KeyAdmin || got[1] != KeyMaintainer {
		t.Fatalf("expected [admin george], got %v", got)
	}
	if list[0].Address != "admin@example.com" || list[1].Address != "maint@example.com" {
		t.Fatalf("unexpected addresses: %+v", list)
	}
}

func TestFiltersRunInOrderBeforeCapabilityCheck(t *testing.T) {
	reg := NewRegistry("")
	reg.Use(
		Add(Recipient{Key: "agency", Label: "Agency", Address: "help@agency.test"}),
		Add(Recipient{Key: "secret", Label: "Hidden", Address: "x@y.test", Capability: auth.DoNotAllow}),
		Remove(KeyMaintainer),
	)

	got := keys(reg.Eligible(auth.User{Role: "administrator"}, opts))
	want := []string{KeyAdmin, "agency"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterReplacesExistingKey(t *testing.T) {
	reg := NewRegistry("")
	reg.Use(Add(Recipient{Key: KeyAdmin, Label: "Ops", Address: "ops@example.com"}))

	list := reg.Eligible(auth.User{Role: "subscriber"}, opts)
	if got := keys(list); len(got) != 2 || got[0] != KeyAdmin {
		t.Fatalf("expected replaced admin to keep its position, got %v", got)
	}
	if list[0].Label != "Ops" || list[0].Capability != "" {
		t.Fatalf("expected replacement entry, got %+v", list[0])
	}
}

func TestEligibleCanBeEmpty(t *testing.T) {
	reg := NewRegistry("")
	reg.Use(Remove(KeyAdmin, KeyMaintainer))
	if list := reg.Eligible(auth.User{Role: "administrator"}, opts); len(list) != 0 {
		t.Fatalf("expected empty list, got %v", keys(list))
	}
}

func TestEligibleDropsEntriesWithoutAddress(t *testing.T) {
	reg := NewRegistry("")
	reg.Use(Add(Recipient{Key: "blank", Label: "Blank"}))

	list := reg.Eligible(auth.User{Role: "editor"}, site.Options{})
	if got := keys(list); len(got) != 1 || got[0] != KeyMaintainer {
		t.Fatalf("expected only the maintainer, got %v", got)
	}
	if _, ok := Lookup(list, KeyAdmin); ok {
		t.Fatal("admin without an address must not resolve")
	}
}

func TestDefault(t *testing.T) {
	reg := NewRegistry("")
	eligible := reg.Eligible(auth.User{Role: "subscriber"}, opts)
	if got := reg.Default(eligible, auth.User{}); got != "" {
		t.Fatalf("expected no default, got %q", got)
	}

	reg.UseDefault(FixedDefault(KeyAdmin))
	if got := reg.Default(eligible, auth.User{}); got != "" {
		t.Fatalf("ineligible default must be ignored, got %q", got)
	}
	reg.UseDefault(FixedDefault(KeyMaintainer))
	if got := reg.Default(eligible, auth.User{}); got != KeyMaintainer {
		t.Fatalf("expected maintainer default, got %q", got)
	}
}

func TestLookup(t *testing.T) {
	list := NewRegistry("").Eligible(auth.User{Role: "subscriber"}, opts)
	if _, ok := Lookup(list, KeyAdmin); ok {
		t.Fatal("admin is not eligible and must not resolve")
	}
	if _, ok := Lookup(list, ""); ok {
		t.Fatal("empty key must not resolve")
	}
	if r, ok := Lookup(list, KeyMaintainer); !ok || r.Address != DefaultMaintainerAddress {
		t.Fatalf("expected maintainer, got %+v", r)
	}
}

func TestParseSpec(t *testing.T) {
	list, err := ParseSpec("agency|Agency|help@agency.test; dev|Dev Team|dev@x.test|manage_options ;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(list) != 2 || list[1].Capability != "manage_options" || list[0].Label != "Agency" {
		t.Fatalf("unexpected parse result: %+v", list)
	}

	for _, bad := range []string{"only|two", "k|l|a|c|extra", "|Label|a@b.test", "k|Label|"} {
		if _, err := ParseSpec(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
