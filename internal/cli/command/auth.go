package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/cli/output"
	"github.com/yndnr/catdesk-go/internal/core/domain"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Session management",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (read from stdin when omitted)",
						EnvVars: []string{"CATDESK_PASSWORD"},
					},
					&cli.IntFlag{
						Name:  "expires-in-mins",
						Usage: "Requested access token lifetime in minutes",
					},
				},
				Action: authLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: authLogout,
			},
			{
				Name:   "restore",
				Usage:  "Reload the stored session and report it",
				Action: authRestore,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session",
				Action: authStatus,
			},
		},
	}
}

func authLogin(c *cli.Context) error {
	rt, err := requireRuntime(c)
	if err != nil {
		return err
	}

	in := bufio.NewReader(c.App.Reader)
	username := c.String("username")
	if username == "" {
		if username, err = prompt(rt.Err, in, "Username: "); err != nil {
			return err
		}
	}
	password := c.String("password")
	if password == "" {
		if password, err = promptPassword(rt.Err, c.App.Reader, in); err != nil {
			return err
		}
	}

	creds := domain.Credentials{
		Username:      username,
		Password:      password,
		ExpiresInMins: c.Int("expires-in-mins"),
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := rt.Session.Login(c.Context, creds); err != nil {
		return err
	}

	status := rt.Session.Status()
	fmt.Fprintf(rt.Out, "Logged in as %s.\n", firstNonEmpty(status.Name, status.Username, username))
	return nil
}

func authLogout(c *cli.Context) error {
	rt, err := requireRuntime(c)
	if err != nil {
		return err
	}
	if err := rt.Session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(rt.Out, "Logged out.")
	return nil
}

func authRestore(c *cli.Context) error {
	rt, err := requireRuntime(c)
	if err != nil {
		return err
	}
	if err := rt.restore(); err != nil {
		return err
	}
	if !rt.Session.IsAuthenticated() {
		fmt.Fprintln(rt.Out, "No stored session.")
		return nil
	}
	status := rt.Session.Status()
	fmt.Fprintf(rt.Out, "Restored session for %s.\n", firstNonEmpty(status.Name, status.Username, "unknown user"))
	return nil
}

func authStatus(c *cli.Context) error {
	rt, err := requireRuntime(c)
	if err != nil {
		return err
	}
	return rt.Print(rt.Session.Status())
}

// promptPassword reads the password without echo when stdin is a terminal
// and falls back to a plain prompt otherwise.
func promptPassword(w io.Writer, stdin io.Reader, in *bufio.Reader) (string, error) {
	password, ok, err := output.ReadSecret(w, stdin, "Password: ")
	if !ok {
		return prompt(w, in, "Password: ")
	}
	if err != nil {
		return "", domain.ErrMissingArgument.WithDetails("password").WithCause(err)
	}
	return password, nil
}

// prompt asks for one line on r. EOF before any input is a missing argument.
func prompt(w io.Writer, r *bufio.Reader, question string) (string, error) {
	fmt.Fprint(w, question)
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (err != io.EOF || line == "") {
		return "", domain.ErrMissingArgument.WithDetails(strings.ToLower(strings.TrimSuffix(question, ": ")))
	}
	return line, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
