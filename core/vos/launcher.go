package vos

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// Launcher runs programs on behalf of the shell.
type Launcher interface {
	// Launch runs the program name with args in an environment of "key=value"
	// entries and waits for it to finish. A non-nil error means the program
	// couldn't be started at all.
	Launch(name string, args []string, env []string) (int, error)
}

// LaunchError is returned when a program can't be started.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to execute '%s': %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func findExecutable(fsys VFS, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// pathEnv. If file contains a slash, it is tried directly and pathEnv is not
// consulted. Relative paths are resolved against dir.
func LookPath(fsys VFS, dir, pathEnv, file string) (string, error) {
	resolve := func(p string) string {
		if path.IsAbs(p) || dir == "" {
			return p
		}
		return path.Join(dir, p)
	}

	if strings.Contains(file, "/") {
		p := resolve(file)
		if err := findExecutable(fsys, p); err != nil {
			return "", err
		}
		return p, nil
	}

	for _, elem := range filepath.SplitList(pathEnv) {
		if elem == "" {
			// Unix shell semantics: path element "" means "."
			elem = "."
		}
		p := resolve(path.Join(elem, file))
		if err := findExecutable(fsys, p); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// ExecLauncher runs host programs with the working directory, filesystem and
// standard streams of its parent.
type ExecLauncher struct {
	parent VOS
}

var _ Launcher = (*ExecLauncher)(nil)

// NewExecLauncher creates a launcher for host programs.
func NewExecLauncher(parent VOS) *ExecLauncher {
	return &ExecLauncher{parent: parent}
}

// Launch implements Launcher.
func (l *ExecLauncher) Launch(name string, args []string, env []string) (int, error) {
	pathEnv := NewMapEnvFromEnvList(env).Getenv("PATH")
	resolved, err := LookPath(l.parent, l.parent.Getwd(), pathEnv, name)
	if err != nil {
		return 0, &LaunchError{Program: name, Err: err}
	}

	cmd := &exec.Cmd{
		Path:   resolved,
		Args:   append([]string{name}, args...),
		Env:    env,
		Dir:    l.parent.Getwd(),
		Stdin:  l.parent.Stdin(),
		Stdout: l.parent.Stdout(),
		Stderr: l.parent.Stderr(),
	}

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return 1, nil
	case err != nil:
		return 0, &LaunchError{Program: name, Err: err}
	}
	return 0, nil
}

// ProcessLauncher runs in-process programs as children of parent.
type ProcessLauncher struct {
	parent VOS
}

var _ Launcher = (*ProcessLauncher)(nil)

// NewProcessLauncher creates a launcher for in-process programs.
func NewProcessLauncher(parent VOS) *ProcessLauncher {
	return &ProcessLauncher{parent: parent}
}

// Launch implements Launcher.
func (l *ProcessLauncher) Launch(name string, args []string, env []string) (int, error) {
	pathEnv := NewMapEnvFromEnvList(env).Getenv("PATH")
	resolved, err := LookPath(l.parent, l.parent.Getwd(), pathEnv, name)
	if err != nil {
		return 0, &LaunchError{Program: name, Err: err}
	}

	proc, err := l.parent.StartProcess(resolved, append([]string{name}, args...), &ProcAttr{
		Env:   env,
		Files: l.parent,
	})
	if err != nil {
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			err = launchErr.Err
		}
		return 0, &LaunchError{Program: name, Err: err}
	}

	return proc.Run(), nil
}
