package vos

import (
	"os"
	"path"
	"sync"
	"time"

	"github.com/josephlewis42/clam/core/logger"
)

// EventRecorder receives session events.
type EventRecorder interface {
	Record(event logger.Event) error
}

// NopEventRecorder discards all events.
type NopEventRecorder struct{}

// Record implements EventRecorder.
func (NopEventRecorder) Record(logger.Event) error {
	return nil
}

// TenantOS is a single session's view of the shared OS.
type TenantOS struct {
	sharedOS *SharedOS
	// fs is the shared filesystem, or a MountFS over it once something is
	// mounted for this session.
	fs VFS
	// eventRecorder logs events.
	eventRecorder EventRecorder
	// Connected terminal information, updated when the window changes.
	ptyMu sync.RWMutex
	pty   PTY
	// loginTime is the time the user logged in.
	loginTime time.Time
	// Username the user logged in as.
	user string
}

// NewTenantOS creates a session for user.
func NewTenantOS(sharedOS *SharedOS, eventRecorder EventRecorder, user string) *TenantOS {
	if eventRecorder == nil {
		eventRecorder = NopEventRecorder{}
	}

	return &TenantOS{
		sharedOS:      sharedOS,
		fs:            sharedOS.fs,
		eventRecorder: eventRecorder,
		loginTime:     time.Now(),
		user:          user,
	}
}

// Hostname returns the name of the machine.
func (t *TenantOS) Hostname() string {
	if name := t.sharedOS.Hostname(); name != "" {
		return name
	}
	name, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return name
}

// Mount attaches fsys at dir for this session only. Processes started before
// the mount keep the old view.
func (t *TenantOS) Mount(dir string, fsys VFS) error {
	mfs, ok := t.fs.(*MountFS)
	if !ok || t.fs == t.sharedOS.fs {
		mfs = NewMountFS(t.fs)
	}
	if err := mfs.Mount(dir, fsys); err != nil {
		return err
	}
	t.fs = mfs
	return nil
}

// SetPTY updates the terminal information.
func (t *TenantOS) SetPTY(pty PTY) {
	_ = t.eventRecorder.Record(logger.TerminalUpdate(pty.Term, pty.Width, pty.Height, pty.IsPTY))

	t.ptyMu.Lock()
	defer t.ptyMu.Unlock()
	t.pty = pty
}

// Record logs a session event.
func (t *TenantOS) Record(event logger.Event) error {
	return t.eventRecorder.Record(event)
}

// GetPTY returns the terminal information.
func (t *TenantOS) GetPTY() PTY {
	t.ptyMu.RLock()
	defer t.ptyMu.RUnlock()
	return t.pty
}

// User returns the name of the logged in user.
func (t *TenantOS) User() string {
	return t.user
}

// LoginTime returns the time the session started.
func (t *TenantOS) LoginTime() time.Time {
	return t.loginTime
}

// HomeDir returns the user's home directory if it exists in the filesystem,
// otherwise "/".
func (t *TenantOS) HomeDir() string {
	candidates := []string{path.Join("/home", t.user)}
	if t.user == "root" {
		candidates = []string{"/root"}
	}

	for _, dir := range candidates {
		if stat, err := t.fs.Stat(dir); err == nil && stat.IsDir() {
			return dir
		}
	}
	return "/"
}

// DefaultEnv returns the environment a login shell starts with.
func (t *TenantOS) DefaultEnv() []string {
	env := []string{
		"HOME=" + t.HomeDir(),
		"USER=" + t.user,
		"LOGNAME=" + t.user,
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"SHELL=/bin/sh",
	}
	if term := t.GetPTY().Term; term != "" {
		env = append(env, "TERM="+term)
	}
	return env
}

// InitProc creates the first process of the session running process. A nil
// attr.Env gets DefaultEnv, an empty attr.Dir starts in the home directory.
func (t *TenantOS) InitProc(process ProcessFunc, argv []string, attr *ProcAttr) (*TenantProcOS, error) {
	if attr == nil {
		attr = &ProcAttr{}
	}

	env := attr.Env
	if env == nil {
		env = t.DefaultEnv()
	}

	dir := attr.Dir
	if dir == "" {
		dir = t.HomeDir()
	}

	root := &TenantProcOS{
		TenantOS: t,
		VEnv:     NewMapEnv(),
		VFS:      t.fs,
		VIO:      NewNullIO(),
		Dir:      "/",
	}

	name := "init"
	if len(argv) > 0 {
		name = argv[0]
	}
	return root.StartProcessFunc(process, name, argv, &ProcAttr{Dir: dir, Env: env, Files: attr.Files})
}
