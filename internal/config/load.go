package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var errConfigIsDir = errors.New("config file is dir")

func load(name string, c *Config) error {
	if name == "" {
		return nil
	}

	filename, err := filepath.Abs(name)
	if err != nil {
		return err
	}

	finfo, err := os.Stat(filename)
	if errors.Is(err, fs.ErrNotExist) {
		// defaults only
		return nil
	}
	if err != nil {
		return err
	}
	if finfo.IsDir() {
		return errConfigIsDir
	}

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(yamlFile, c); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}

	return nil
}
