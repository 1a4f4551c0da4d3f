package vos

import (
	"fmt"
	"path"

	"github.com/josephlewis42/clam/core/logger"
)

// ProcAttr holds the attributes for a new process.
type ProcAttr struct {
	// If Dir is non-empty, the child changes into the directory before
	// creating the process.
	Dir string
	// If Env is non-nil, it gives the environment variables for the
	// new process in the form returned by Environ.
	// If it is nil, the parent's environment is copied.
	Env []string

	// Files specifies the open files inherited by the new process.
	Files VIO
}

// TenantProcOS is a process running in a TenantOS.
type TenantProcOS struct {
	*TenantOS

	VEnv

	VFS

	VIO

	// Path to the executable that started the process.
	ExecutablePath string
	// Args holds command line arguments, including the command as Args[0].
	ProcArgs []string
	// The process ID of the process
	PID int
	// Dir specifies the working directory of the command.
	Dir string

	process ProcessFunc
}

var _ VOS = (*TenantProcOS)(nil)

// Args implements VOS.Args.
func (ea *TenantProcOS) Args() []string {
	return ea.ProcArgs
}

// Getpid implements VOS.Getpid.
func (ea *TenantProcOS) Getpid() int {
	return ea.PID
}

// Getwd implements VOS.Getwd.
func (ea *TenantProcOS) Getwd() string {
	return ea.Dir
}

// Chdir implements VOS.Chdir.
func (ea *TenantProcOS) Chdir(dir string) error {
	if !path.IsAbs(dir) {
		dir = path.Join(ea.Dir, dir)
	}
	dir = path.Clean(dir)

	stat, err := ea.Stat(dir)
	switch {
	case err != nil:
		return fmt.Errorf("%s: No such file or directory", dir)
	case !stat.IsDir():
		return fmt.Errorf("%s: Not a directory", dir)
	default:
		ea.Dir = dir
		return nil
	}
}

// Run implements VOS.Run.
func (ea *TenantProcOS) Run() int {
	if ea.process == nil {
		fmt.Fprintf(ea.Stderr(), "%s: cannot execute binary file\n", ea.ExecutablePath)
		return 126
	}
	return ea.process(ea)
}

// LogInvalidInvocation implements VOS.LogInvalidInvocation.
func (ea *TenantProcOS) LogInvalidInvocation(err error) {
	_ = ea.eventRecorder.Record(logger.InvalidInvocation(ea.ProcArgs, err))
}

// StartProcess implements VOS.StartProcess. The program at name must be
// registered with the SharedOS.
func (ea *TenantProcOS) StartProcess(name string, argv []string, attr *ProcAttr) (VOS, error) {
	return ea.startProcess(name, argv, attr)
}

// StartProcessFunc is like StartProcess but runs process rather than looking
// up the program by name.
func (ea *TenantProcOS) StartProcessFunc(process ProcessFunc, name string, argv []string, attr *ProcAttr) (*TenantProcOS, error) {
	proc, err := ea.newProc(name, argv, attr)
	if err != nil {
		return nil, err
	}
	proc.process = process
	return proc, nil
}

func (ea *TenantProcOS) startProcess(name string, argv []string, attr *ProcAttr) (*TenantProcOS, error) {
	proc, err := ea.newProc(name, argv, attr)
	if err != nil {
		return nil, err
	}

	resolved := name
	if !path.IsAbs(resolved) {
		resolved = path.Join(proc.Dir, resolved)
	}
	proc.process = ea.sharedOS.Resolve(resolved)
	if proc.process == nil {
		return nil, &LaunchError{Program: name, Err: ErrNotFound}
	}

	return proc, nil
}

func (ea *TenantProcOS) newProc(name string, argv []string, attr *ProcAttr) (*TenantProcOS, error) {
	if attr == nil {
		attr = &ProcAttr{}
	}

	if argv == nil {
		argv = []string{name}
	}

	var env VEnv
	if attr.Env == nil {
		env = NewMapEnvFrom(ea.VEnv)
	} else {
		env = NewMapEnvFromEnvList(attr.Env)
	}

	out := &TenantProcOS{
		TenantOS:       ea.TenantOS,
		VEnv:           env,
		VFS:            ea.VFS,
		ExecutablePath: name,
		ProcArgs:       argv,
		PID:            ea.sharedOS.NextPID(),
		Dir:            ea.Dir,
	}

	if attr.Files == nil {
		out.VIO = NewNullIO()
	} else {
		out.VIO = attr.Files
	}

	if attr.Dir != "" {
		if err := out.Chdir(attr.Dir); err != nil {
			return nil, err
		}
	}

	return out, nil
}
