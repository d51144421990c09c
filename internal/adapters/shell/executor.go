// Package shell runs build commands as host processes.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec. Commands run in a
// pseudo-terminal when one can be opened, so tools keep their colored output.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd and waits for it to complete. An empty command succeeds
// without starting anything.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	if cmd == nil || len(cmd.Args) == 0 {
		return nil
	}

	c := prepare(ctx, cmd)

	if err := run(c, stdout, stderr); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, "cannot run "+cmd.Args[0]), "node", cmd.Node.String())
		return errors.Join(zerr.With(err, "exit_code", exitCode), domain.ErrCommandFailed)
	}

	return nil
}

func prepare(ctx context.Context, cmd *domain.Command) *exec.Cmd {
	name := cmd.Args[0]
	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // commands come from the rules file
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env

	return c
}

// run starts c attached to a pseudo-terminal, or to plain pipes when no
// terminal is available. A terminal merges both streams into stdout.
func run(c *exec.Cmd, stdout, stderr io.Writer) error {
	ptmx, tty, err := pty.Open()
	if err != nil {
		c.Stdout = stdout
		c.Stderr = stderr
		return c.Run()
	}
	defer func() { _ = ptmx.Close() }()

	c.Stdin = tty
	c.Stdout = tty
	c.Stderr = tty

	err = c.Start()
	// The child holds its own copy of the terminal.
	_ = tty.Close()
	if err != nil {
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master fails with EIO once the child exits.
		_, _ = io.Copy(stdout, ptmx)
	}()

	err = c.Wait()
	<-ioDone

	return err
}

// allowListedEnvVars are the host variables inherited by build commands.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"TMPDIR": {},
}

// resolveEnvironment filters the host environment through the allow-list and
// applies the command's own variables on top. A command PATH is prepended to
// the host PATH.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}

	for _, entry := range cmdEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath := envMap["PATH"]; sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the PATH found in env rather than
// in the process environment.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
