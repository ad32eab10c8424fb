package config

import "time"

// Path is the location of the optional YAML config file.
type Path string

const DefaultPath Path = "./config/config.yaml"

type Config struct {
	Gateway Gateway `yaml:"gateway"`
	Storage Storage `yaml:"storage"`
	Shell   Shell   `yaml:"shell"`
	Backend Backend `yaml:"backend"`
	Log     Log     `yaml:"log"`
}

// Gateway configures outbound calls to the storefront backend.
type Gateway struct {
	BaseURL  string        `yaml:"base_url"`
	BasePath string        `yaml:"base_path"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Storage struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

type Shell struct {
	Port      int           `yaml:"port"`
	LoginPath string        `yaml:"login_path"`
	Lifetime  time.Duration `yaml:"lifetime"`
}

type Backend struct {
	Port      int           `yaml:"port"`
	UsersPath string        `yaml:"users_path"`
	Secret    string        `yaml:"secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Log struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Gateway: Gateway{
			BaseURL:  "http://localhost:8124",
			BasePath: "/api",
			Timeout:  10 * time.Second,
		},
		Storage: Storage{
			Path: "./storefront.json",
			Key:  "token",
		},
		Shell: Shell{
			Port:      8123,
			LoginPath: "/login",
			Lifetime:  24 * time.Hour,
		},
		Backend: Backend{
			Port:      8124,
			UsersPath: "./users.json",
			Secret:    "storefront-dev-secret-change-me-please",
			TokenTTL:  24 * time.Hour,
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// New returns the defaults overlaid with the YAML file at p, if one exists.
func New(p Path) (*Config, error) {
	c := Default()
	if err := load(string(p), c); err != nil {
		return nil, err
	}
	return c, nil
}
