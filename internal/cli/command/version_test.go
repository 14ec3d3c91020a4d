package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yndnr/catdesk-go/internal/infra/buildinfo"
)

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "version")
	if res.err != nil {
		t.Fatalf("version error = %v", res.err)
	}
	if !strings.Contains(res.stdout, buildinfo.Get().GoVersion) {
		t.Errorf("stdout = %q, want Go version", res.stdout)
	}

	res = env.run(t, "", "-o", "json", "version")
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if info.Platform == "" {
		t.Error("platform should be set")
	}
}

func TestVersion_NeedsNoStorage(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "--storage", "redis", "version")
	if res.err != nil {
		t.Fatalf("version should not open storage: %v", res.err)
	}
}
