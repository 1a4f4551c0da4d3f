package core

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/josephlewis42/clam/commands"
	"github.com/josephlewis42/clam/core/vos"
)

// sandboxDirs are created in every sandbox.
var sandboxDirs = []string{
	"/bin",
	"/etc",
	"/home",
	"/root",
	"/usr/bin",
	"/usr/local/bin",
	"/var/log",
}

// NewSandbox creates an in-memory OS with every in-process program
// installed.
func NewSandbox(hostname string) (*vos.SharedOS, error) {
	fs := afero.NewMemMapFs()
	for _, dir := range sandboxDirs {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	if err := fs.Mkdir("/tmp", os.ModeSticky|0777); err != nil {
		return nil, err
	}

	shared, err := vos.NewSharedOS(fs, hostname, commands.AllCommands)
	if err != nil {
		return nil, err
	}

	if hostname != "" {
		if err := afero.WriteFile(fs, "/etc/hostname", []byte(hostname+"\n"), 0644); err != nil {
			return nil, err
		}
	}
	return shared, nil
}

// NewHost creates an OS backed by the host's filesystem. No programs are
// installed, they're expected to come from the host.
func NewHost(hostname string) (*vos.SharedOS, error) {
	return vos.NewSharedOS(afero.NewOsFs(), hostname, nil)
}

// makeHome creates the home directory of user if it doesn't exist.
func makeHome(fs vos.VFS, user string) error {
	home := path.Join("/home", user)
	if user == "root" {
		home = "/root"
	}
	if path.Dir(home) != "/home" && home != "/root" {
		return fmt.Errorf("invalid user name %q", user)
	}
	return fs.MkdirAll(home, 0755)
}
