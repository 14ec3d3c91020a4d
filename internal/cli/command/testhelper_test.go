package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/tests/fakeapi"
)

// testEnv is an isolated home directory plus a fake catalog server.
type testEnv struct {
	home string
	api  *fakeapi.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CATDESK_PASSWORD", "")

	api := fakeapi.New()
	t.Cleanup(api.Close)
	return &testEnv{home: home, api: api}
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// run executes one catdesk-cli invocation against the fake server.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer

	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"catdesk-cli", "--server", e.api.URL}, args...)
	err := app.Run(argv)
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// login stores a session for later invocations.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	res := e.run(t, "", "auth", "login", "-u", fakeapi.Username, "-p", fakeapi.Password)
	if res.err != nil {
		t.Fatalf("login error = %v (stderr %q)", res.err, res.stderr)
	}
}
