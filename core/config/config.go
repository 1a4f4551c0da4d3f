package config

import (
	"crypto/subtle"
	_ "embed"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	gossh "golang.org/x/crypto/ssh"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	LogsDirName       = "session_logs"
	PrivateKeyName    = "private_key"
	AppLogName        = "app.log"
)

// Launcher names.
const (
	LauncherHost    = "host"
	LauncherBuiltin = "builtin"
)

type Configuration struct {
	configFs afero.Fs
	// configurationDir is the host path of the config directory.
	configurationDir string

	Hostname     string `json:"hostname" validate:"omitempty,hostname_rfc1123"`
	Prompt       string `json:"prompt"`
	HistoryFile  string `json:"history_file"`
	HistoryLimit int    `json:"history_limit" validate:"gte=0"`
	Launcher     string `json:"launcher" validate:"oneof=host builtin"`
	Path         string `json:"path" validate:"required"`
	Color        string `json:"color" validate:"oneof=always auto never"`
	ASTFormat    string `json:"ast_format" validate:"omitempty,oneof=json yaml"`
	Trace        bool   `json:"trace"`

	SSHPort          int      `json:"ssh_port" validate:"gte=0,lte=65535"`
	SSHBanner        string   `json:"ssh_banner"`
	SSHOutputRate    int64    `json:"ssh_output_rate" validate:"gte=0"`
	AllowAnyPassword bool     `json:"allow_any_password"`
	Passwords        []string `json:"passwords" validate:"unique"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// HistoryPath returns the host path of the history file or an empty string
// if history isn't persisted. Relative paths need a config directory on the
// host.
func (c *Configuration) HistoryPath() string {
	if c.HistoryFile == "" || filepath.IsAbs(c.HistoryFile) {
		return c.HistoryFile
	}
	if c.configurationDir == "" {
		return ""
	}
	return filepath.Join(c.configurationDir, c.HistoryFile)
}

// CreateSessionLog creates a recording file for a session.
func (c *Configuration) CreateSessionLog(name string) (afero.File, error) {
	if err := c.fs().MkdirAll(LogsDirName, 0700); err != nil {
		return nil, err
	}
	return c.fs().Create(filepath.Join(LogsDirName, name))
}

// OpenSessionLog opens a recording created by CreateSessionLog.
func (c *Configuration) OpenSessionLog(name string) (afero.File, error) {
	return c.fs().Open(filepath.Join(LogsDirName, name))
}

// PrivateKeyPem returns the bytes of the private key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// HostSigner parses the private key for use as an SSH host key.
func (c *Configuration) HostSigner() (gossh.Signer, error) {
	keyPem, err := c.PrivateKeyPem()
	if err != nil {
		return nil, err
	}
	return gossh.ParsePrivateKey(keyPem)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// CheckPassword reports whether password can be used to log in.
func (c *Configuration) CheckPassword(password string) bool {
	if c.AllowAnyPassword {
		return true
	}

	matched := false
	for _, candidate := range c.Passwords {
		if subtle.ConstantTimeCompare([]byte(password), []byte(candidate)) == 1 {
			matched = true
		}
	}
	return matched
}

// Default returns the built-in configuration backed by an initialized
// in-memory directory, for use when no configuration has been initialized.
// The host key is regenerated every time.
func Default() *Configuration {
	fsys := afero.NewMemMapFs()
	if err := initializeFs(fsys, log.New(io.Discard, "", 0)); err != nil {
		panic(err)
	}

	out, err := loadFs(fsys)
	if err != nil {
		panic(err)
	}
	return out
}
