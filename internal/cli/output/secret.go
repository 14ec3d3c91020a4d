package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadSecret prompts on w and reads one line from r with echo turned off.
// It only works when r is a terminal; ok is false otherwise and nothing is
// written or read, so the caller can fall back to a plain prompt.
func ReadSecret(w io.Writer, r io.Reader, prompt string) (secret string, ok bool, err error) {
	f, isFile := r.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return "", false, nil
	}
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", true, err
	}
	return string(b), true, nil
}
