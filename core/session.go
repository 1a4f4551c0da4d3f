package core

import (
	"github.com/spf13/afero"

	"github.com/josephlewis42/clam/commands"
	"github.com/josephlewis42/clam/core/ttylog"
	"github.com/josephlewis42/clam/core/vos"
)

// SessionConfig describes a single shell session.
type SessionConfig struct {
	// User the session runs as.
	User string
	// Argv is the shell's command line, "sh" if empty.
	Argv []string
	// Env is the initial environment. If it's nil the login environment is
	// used with Path and ExtraEnv applied on top.
	Env []string
	// Path replaces PATH in the login environment.
	Path string
	// ExtraEnv holds KEY=VALUE pairs added to the login environment, like the
	// variables an SSH client sends.
	ExtraEnv []string
	// Dir is the starting directory, empty uses the user's home.
	Dir string

	IO  vos.VIO
	PTY vos.PTY

	// Events receives session events, nil discards them.
	Events vos.EventRecorder
	// Recording receives the terminal I/O when set.
	Recording ttylog.LogSink
	// PrivateTmp gives the session its own empty /tmp.
	PrivateTmp bool

	Shell commands.ShellOptions
}

// Session is a shell running in its own TenantOS. Every session has its own
// shell variables, sessions on the same SharedOS share the filesystem.
type Session struct {
	tenant *vos.TenantOS
	proc   *vos.TenantProcOS
}

// NewSession sets up a session, the shell doesn't start until Run is called.
func NewSession(shared *vos.SharedOS, cfg SessionConfig) (*Session, error) {
	tenant := vos.NewTenantOS(shared, cfg.Events, cfg.User)
	tenant.SetPTY(cfg.PTY)

	if cfg.PrivateTmp {
		if err := tenant.Mount("/tmp", afero.NewMemMapFs()); err != nil {
			return nil, err
		}
	}

	env := cfg.Env
	if env == nil {
		loginEnv := vos.NewMapEnvFromEnvList(tenant.DefaultEnv())
		if cfg.Path != "" {
			loginEnv.Setenv("PATH", cfg.Path)
		}
		for _, kv := range cfg.ExtraEnv {
			key, value := vos.SplitEnv(kv)
			if key != "" {
				loginEnv.Setenv(key, value)
			}
		}
		env = loginEnv.Environ()
	}

	files := cfg.IO
	if files == nil {
		files = vos.NewNullIO()
	}
	if cfg.Recording != nil {
		files = ttylog.NewRecorder(files, cfg.Recording)
	}

	argv := cfg.Argv
	if len(argv) == 0 {
		argv = []string{"sh"}
	}

	proc, err := tenant.InitProc(commands.NewShellProcess(cfg.Shell), argv, &vos.ProcAttr{
		Dir:   cfg.Dir,
		Env:   env,
		Files: files,
	})
	if err != nil {
		return nil, err
	}

	return &Session{tenant: tenant, proc: proc}, nil
}

// SetPTY updates the terminal attached to the session.
func (s *Session) SetPTY(pty vos.PTY) {
	s.tenant.SetPTY(pty)
}

// Run runs the shell until it exits and returns its exit status.
func (s *Session) Run() int {
	return s.proc.Run()
}
