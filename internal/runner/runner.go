package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Sentinel exit code for commands that never produced a real exit status.
const ExitLaunchFailure = -1

// Command describes one external process invocation.
type Command struct {
	Argv        []string
	Elevate     bool
	Timeout     time.Duration
	Stdin       string
	Dir         string
	Env         []string
	Interactive bool // attach the terminal instead of capturing output
}

// Cmd builds an unprivileged command.
func Cmd(argv ...string) Command {
	return Command{Argv: argv}
}

// Sudo builds an elevated command.
func Sudo(argv ...string) Command {
	return Command{Argv: argv, Elevate: true}
}

// Shell wraps a script in `sh -c`.
func Shell(script string) Command {
	return Command{Argv: []string{"sh", "-c", script}}
}

// Line renders the argv as a single space-joined string.
func (c Command) Line() string {
	return strings.Join(c.Argv, " ")
}

func (c Command) String() string {
	if c.Elevate {
		return "sudo " + c.Line()
	}
	return c.Line()
}

// Result is the outcome of a command. A non-zero exit is data, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited 0.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output returns trimmed stdout.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// Diagnostic picks the most useful text to show for a failure.
func (r Result) Diagnostic() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Stdout); s != "" {
		return s
	}
	return fmt.Sprintf("exit status %d", r.ExitCode)
}

// Runner executes commands. Implementations never panic or return Go errors
// for process failures; everything is folded into Result.
type Runner interface {
	Run(ctx context.Context, c Command) Result
	LookPath(name string) bool
}

// Exec runs commands on the host with os/exec.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Root   bool // skip sudo when already running as root
}

// NewExec returns a runner bound to the process's terminal.
func NewExec() *Exec {
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Root:   os.Geteuid() == 0,
	}
}

// Run executes c and captures its output unless c.Interactive is set.
func (e *Exec) Run(ctx context.Context, c Command) Result {
	if len(c.Argv) == 0 {
		return Result{ExitCode: ExitLaunchFailure, Stderr: "Command not found: (empty)"}
	}

	argv := c.Argv
	if c.Elevate && !e.Root {
		argv = append([]string{"sudo"}, argv...)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = e.Stdin
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if c.Stdin != "" {
			cmd.Stdin = strings.NewReader(c.Stdin)
		}
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = ExitLaunchFailure
		res.Stderr = "Command timed out"
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = ExitLaunchFailure
		res.Stderr = "Command not found: " + c.Argv[0]
	}
	return res
}

// LookPath reports whether name resolves on PATH.
func (e *Exec) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Error is returned by Do when a command exits non-zero.
type Error struct {
	Command Command
	Result  Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Command.Line(), e.Result.Diagnostic())
}

// Do runs c and converts a non-zero exit into an *Error.
func Do(ctx context.Context, r Runner, c Command) error {
	res := r.Run(ctx, c)
	if !res.OK() {
		return &Error{Command: c, Result: res}
	}
	return nil
}

// Sequence runs commands in order and stops at the first failure.
func Sequence(ctx context.Context, r Runner, cmds ...Command) error {
	for _, c := range cmds {
		if err := Do(ctx, r, c); err != nil {
			return err
		}
	}
	return nil
}

// VerifySudo asks sudo to refresh its credential cache, prompting if needed.
func VerifySudo(ctx context.Context, r Runner) bool {
	return r.Run(ctx, Command{Argv: []string{"sudo", "-v"}, Interactive: true}).OK()
}
