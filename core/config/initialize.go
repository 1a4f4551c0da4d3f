package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io/fs"
	"log"

	"github.com/spf13/afero"
)

// Initialize creates a configuration directory at path, files that already
// exist are left alone.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	fsys := afero.NewBasePathFs(afero.NewOsFs(), path)
	if err := initializeFs(fsys, logger); err != nil {
		return nil, err
	}
	return Load(path)
}

func initializeFs(fsys afero.Fs, logger *log.Logger) error {
	logger.Println("Initializing configuration...")

	if err := fsys.MkdirAll(LogsDirName, 0700); err != nil {
		return err
	}

	if err := writeIfMissing(fsys, logger, ConfigurationName, 0600, func() ([]byte, error) {
		return defaultConfigData, nil
	}); err != nil {
		return err
	}

	return writeIfMissing(fsys, logger, PrivateKeyName, 0600, generateHostKey)
}

func writeIfMissing(fsys afero.Fs, logger *log.Logger, name string, perm fs.FileMode, contents func() ([]byte, error)) error {
	_, err := fsys.Stat(name)
	switch {
	case err == nil:
		logger.Printf("- %s exists, skipping", name)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	data, err := contents()
	if err != nil {
		return err
	}

	logger.Printf("- Writing %s", name)
	return afero.WriteFile(fsys, name, data, perm)
}

func generateHostKey() ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}
