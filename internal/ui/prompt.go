package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter reads answers from a line-oriented input. It is the only
// consumer of stdin in the console.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	ctx     context.Context

	// pending is the read still in flight after a cancelled prompt. At
	// most one goroutine scans at a time.
	pending chan scanned
}

type scanned struct {
	line string
	err  error
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out, ctx: context.Background()}
}

// SetContext makes every later prompt give up once ctx is done.
func (p *Prompter) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.ctx = ctx
}

func (p *Prompter) scan() scanned {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return scanned{err: err}
		}
		return scanned{err: io.EOF}
	}
	return scanned{line: strings.TrimSpace(p.scanner.Text())}
}

func (p *Prompter) readLine() (string, error) {
	if err := p.ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan scanned, 1)
		go func() { ch <- p.scan() }()
		p.pending = ch
	}
	select {
	case r := <-p.pending:
		p.pending = nil
		return r.line, r.err
	case <-p.ctx.Done():
		fmt.Fprintln(p.out)
		return "", p.ctx.Err()
	}
}

// Ask prompts for a line, returning def when the answer is empty.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "  %s %s: ", label, Subtle.Sprintf("[%s]", def))
	} else {
		fmt.Fprintf(p.out, "  %s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskValid repeats Ask until check accepts the answer.
func (p *Prompter) AskValid(label, def string, check func(string) error) (string, error) {
	for {
		answer, err := p.Ask(label, def)
		if err != nil {
			return "", err
		}
		if err := check(answer); err != nil {
			fmt.Fprintf(p.out, "  %s %s\n", StatusIcon(false), Bad.Sprint(err))
			continue
		}
		return answer, nil
	}
}

// Confirm asks a yes/no question. End of input counts as "no".
func (p *Prompter) Confirm(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "  %s %s ", label, Subtle.Sprintf("[%s]", hint))
		answer, err := p.readLine()
		if err != nil {
			return false
		}
		switch strings.ToLower(answer) {
		case "":
			return def
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// Select shows a numbered list and returns the 0-based choice. "b", "q"
// or end of input return ok=false.
func (p *Prompter) Select(title string, options []string) (int, bool) {
	if title != "" {
		fmt.Fprintf(p.out, "  %s\n", Brand.Sprint(title))
	}
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %s %s\n", Info.Sprintf("%2d)", i+1), opt)
	}
	fmt.Fprintf(p.out, "  %s %s\n", Subtle.Sprint(" b)"), "Back")

	for {
		fmt.Fprintf(p.out, "\n  Choose (1-%d): ", len(options))
		answer, err := p.readLine()
		if err != nil {
			return -1, false
		}
		switch strings.ToLower(answer) {
		case "b", "back", "q", "0":
			return -1, false
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, true
		}
		fmt.Fprintf(p.out, "  %s %s\n", StatusIcon(false), Bad.Sprintf("Enter a number between 1 and %d", len(options)))
	}
}

// Pause waits for Enter.
func (p *Prompter) Pause() {
	fmt.Fprintf(p.out, "\n  %s", Subtle.Sprint("Press Enter to continue..."))
	_, _ = p.readLine()
}
