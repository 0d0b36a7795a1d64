package version

import (
	"strings"
	"testing"
)

func TestCurrentNeverEmpty(t *testing.T) {
	if strings.TrimSpace(Current()) == "" {
		t.Fatalf("expected non-empty version")
	}
}

func TestModuleNeverEmpty(t *testing.T) {
	if strings.TrimSpace(Module()) == "" {
		t.Fatalf("expected non-empty module path")
	}
}

func TestBuildVersionOverride(t *testing.T) {
	old := buildVersion
	defer func() { buildVersion = old }()
	buildVersion = "v1.2.3"
	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected override, got %q", got)
	}
}
