package vos

import (
	"fmt"
	"path"
	"sort"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// programStub is written to the filesystem for every in-process program so
// PATH lookups and directory listings find it.
const programStub = "#!/bin/sh\n# in-process program\n"

// NewSharedOS creates the base OS that sessions are overlaid on. Every
// program is installed as an executable file in fs. When hostname is empty
// the host's name is used.
func NewSharedOS(fs VFS, hostname string, programs map[string]ProcessFunc) (*SharedOS, error) {
	shared := &SharedOS{
		fs:       fs,
		hostname: hostname,
		programs: make(map[string]ProcessFunc),
		bootTime: time.Now(),
	}

	// Sorted so errors are deterministic.
	var paths []string
	for p := range programs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		p = path.Clean(p)
		if err := fs.MkdirAll(path.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("installing %q: %w", p, err)
		}
		if err := afero.WriteFile(fs, p, []byte(programStub), 0755); err != nil {
			return nil, fmt.Errorf("installing %q: %w", p, err)
		}
		shared.programs[p] = programs[p]
	}

	return shared, nil
}

// SharedOS holds the state shared by every session.
type SharedOS struct {
	// fs holds the filesystem shared between ALL programs.
	fs VFS
	// hostname is reported to programs.
	hostname string
	// programs maps absolute paths to in-process programs.
	programs map[string]ProcessFunc
	// pid contains the last PID handed out.
	pid int32
	// The time the system booted.
	bootTime time.Time
}

// Hostname returns the configured hostname.
func (s *SharedOS) Hostname() string {
	return s.hostname
}

// FS returns the shared filesystem.
func (s *SharedOS) FS() VFS {
	return s.fs
}

// Resolve implements ProcessResolver.
func (s *SharedOS) Resolve(p string) ProcessFunc {
	return s.programs[path.Clean(p)]
}

// NextPID gets a monotonically increasing PID.
func (s *SharedOS) NextPID() int {
	return int(atomic.AddInt32(&s.pid, 1))
}

// BootTime returns the time the shared OS was created.
func (s *SharedOS) BootTime() time.Time {
	return s.bootTime
}
