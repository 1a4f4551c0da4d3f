// Package vostest runs in-process programs against a deterministic OS.
package vostest

import (
	"bytes"
	"io"

	"github.com/spf13/afero"

	"github.com/josephlewis42/clam/core/vos"
)

// Hostname is the hostname reported by deterministic OSes.
const Hostname = "testhost"

// DefaultEnv is the environment programs get when Cmd.Env is nil.
var DefaultEnv = []string{
	"HOME=/root",
	"PATH=/usr/bin:/bin",
	"USER=root",
}

// NewSharedOS creates a shared OS over an in-memory filesystem with a few
// standard directories and the given programs installed.
func NewSharedOS(programs map[string]vos.ProcessFunc) *vos.SharedOS {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/root", "/tmp", "/home/user", "/etc"} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			panic(err)
		}
	}
	if err := afero.WriteFile(fs, "/etc/motd", []byte("welcome\n"), 0644); err != nil {
		panic(err)
	}

	shared, err := vos.NewSharedOS(fs, Hostname, programs)
	if err != nil {
		panic(err)
	}
	return shared
}

// Cmd is similar to exec.Cmd.
type Cmd struct {
	// Process function
	Process vos.ProcessFunc
	// Process arguments, the first argument should be the process name.
	Argv []string
	// Programs are installed in the filesystem and can be started by the
	// process.
	Programs map[string]vos.ProcessFunc
	// If Dir is non-empty, the child changes into the directory before
	// creating the process.
	Dir string
	// If Env is non-nil, it gives the environment variables for the
	// new process in the form returned by Environ.
	// If it is nil, DefaultEnv is used.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Recorder receives the session's events, they're discarded if nil.
	Recorder vos.EventRecorder

	ExitStatus int

	Setup func(vos.VOS) error
}

// Command returns the Cmd struct to execute the process with the given
// arguments.
func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
	}
}

// CombinedOutput runs the command and returns its combined standard output
// and standard error.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	err := c.Run()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() error {
	tenant := vos.NewTenantOS(NewSharedOS(c.Programs), c.Recorder, "root")

	env := c.Env
	if env == nil {
		env = DefaultEnv
	}

	proc, err := tenant.InitProc(c.Process, c.Argv, &vos.ProcAttr{
		Dir:   c.Dir,
		Env:   env,
		Files: vos.NewVIOAdapter(c.Stdin, c.Stdout, c.Stderr),
	})
	if err != nil {
		return err
	}

	if c.Setup != nil {
		if err := c.Setup(proc); err != nil {
			return err
		}
	}

	c.ExitStatus = proc.Run()
	return nil
}
