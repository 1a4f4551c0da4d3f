package vos

import (
	"github.com/spf13/afero"
)

// VFS is the filesystem a process sees.
type VFS = afero.Fs

// PTY describes the terminal attached to a session.
type PTY struct {
	Width  int
	Height int
	Term   string
	IsPTY  bool
}

// VProc holds the per-process state.
type VProc interface {
	// Args holds command line arguments, including the command as Args[0].
	Args() []string
	// Getpid returns the process ID.
	Getpid() int
	// Getwd returns the working directory of the process.
	Getwd() string
	// Chdir changes the working directory of the process.
	Chdir(dir string) error
	// Run executes the process and returns its exit status.
	Run() int
}

// VOS provides a virtual OS interface to in-process programs.
type VOS interface {
	VEnv
	VIO
	VProc
	VFS

	Hostname() string
	User() string

	SetPTY(PTY)
	GetPTY() PTY

	// LogInvalidInvocation records that the process was called with arguments
	// it couldn't understand.
	LogInvalidInvocation(err error)

	// StartProcess creates a child process for the program at path name. The
	// child doesn't run until Run is called.
	StartProcess(name string, argv []string, attr *ProcAttr) (VOS, error)
}

// ProcessFunc is an in-process program. It returns the exit status.
type ProcessFunc func(VOS) int

// ProcessResolver looks up a program by path, it returns nil if no program
// was found.
type ProcessResolver func(path string) ProcessFunc
