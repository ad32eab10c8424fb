package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghaggin/storefront/internal/config"
	"go.uber.org/zap"
)

var (
	errStorageFileIsDir = errors.New("storage file is dir")
)

type fileData struct {
	Values map[string]string `json:"values"`
}

// File keeps values in a JSON file. The file is read once when the storage is
// opened and rewritten on every mutation.
type File struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *fileData
}

func NewFile(c *config.Config, log *zap.Logger) (*File, error) {
	return OpenFile(c.Storage.Path, log)
}

func OpenFile(path string, log *zap.Logger) (*File, error) {
	f := &File{
		path: path,
		log:  log,
		data: &fileData{Values: map[string]string{}},
	}

	err := f.readfile()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.log.Debug("storage file does not exist yet", zap.String("path", path))
	case err != nil:
		return nil, err
	}

	return f, nil
}

func (f *File) readfile() error {
	finfo, err := os.Stat(f.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errStorageFileIsDir
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(b, f.data); err != nil {
		return err
	}
	if f.data.Values == nil {
		f.data.Values = map[string]string{}
	}
	return nil
}

func (f *File) writefile() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(f.path, b, 0o600)
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data.Values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data.Values[key] = value
	return f.writefile()
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data.Values[key]; !ok {
		return nil
	}
	delete(f.data.Values, key)
	return f.writefile()
}
