package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// prompter reads answers line by line. Secrets are read without echo when
// the input is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 unless the input is a terminal
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(label string) (string, error) {
	if p.fd < 0 {
		return p.line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	raw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(raw), nil
}

// valueOr returns v, prompting for it when empty.
func (p *prompter) valueOr(v, label string, secret bool) (string, error) {
	if v != "" {
		return v, nil
	}
	if secret {
		return p.secret(label)
	}
	return p.line(label)
}

// Confirm implements ports.Confirmer. Anything but y/yes declines.
func (p *prompter) Confirm(prompt string) bool {
	answer, err := p.line(prompt + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

type assumeYes struct{}

func (assumeYes) Confirm(string) bool { return true }

// loginNotice is the session's redirect target: it tells the user to sign
// in again.
type loginNotice struct {
	w     io.Writer
	shown bool
}

func (n *loginNotice) RedirectToLogin(context.Context) {
	if n.shown {
		return
	}
	n.shown = true
	fmt.Fprintln(n.w, `Your session has expired. Run "flowtask login" to sign in again.`)
}
