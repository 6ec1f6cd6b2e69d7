package theme

import (
	"strings"
	"testing"
)

func TestRegistryComplete(t *testing.T) {
	for id, p := range Registry {
		if p.ID != id {
			t.Errorf("theme %s has ID %s", id, p.ID)
		}
		if p.Type != "dark" && p.Type != "light" {
			t.Errorf("theme %s has type %q", id, p.Type)
		}
		for name, c := range map[string]string{
			"foreground": p.Foreground, "primary": p.Primary, "secondary": p.Secondary,
			"success": p.Success, "warning": p.Warning, "error": p.Error,
		} {
			if !strings.HasPrefix(c, "#") {
				t.Errorf("theme %s: %s color %q is not a hex code", id, name, c)
			}
		}
	}
}

func TestGet(t *testing.T) {
	p, err := Get("daylight")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsDark() {
		t.Error("daylight should be a light theme")
	}

	if _, err := Get("sepia"); err == nil {
		t.Error("expected error for unknown theme")
	}
	if Default().ID != DefaultID {
		t.Errorf("default theme is %s", Default().ID)
	}
}

func TestFallbacks(t *testing.T) {
	p := Registry["golden"]
	if p.GetAccent() != p.Primary {
		t.Errorf("accent should fall back to primary, got %s", p.GetAccent())
	}
	p.Muted = ""
	if p.GetMuted() != p.Secondary {
		t.Errorf("muted should fall back to secondary, got %s", p.GetMuted())
	}
}

func TestIDsSorted(t *testing.T) {
	ids := IDs()
	if len(ids) != len(Registry) {
		t.Fatalf("expected %d ids, got %d", len(Registry), len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Errorf("ids not sorted: %v", ids)
		}
	}
}
