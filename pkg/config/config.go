// Package config holds the provisioning policy: tree locations, the shared
// group, placeholder file names, and the docker installation inputs.
//
// All values have defaults; an optional YAML file overrides them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full provisioning policy.
type Config struct {
	// WorkspaceDir is the directory under the acting user's home that
	// holds stack workspaces.
	WorkspaceDir string `yaml:"workspace_dir"`

	// AppDataBase is the system path under which shared data trees live.
	AppDataBase string `yaml:"appdata_base"`

	// SharedGroup is the privileged group granted access to both trees.
	// It must already exist; it is never created implicitly.
	SharedGroup string `yaml:"shared_group"`

	// ComposeFile and EnvFile are the placeholder file names created in
	// each stack directory.
	ComposeFile string `yaml:"compose_file"`
	EnvFile     string `yaml:"env_file"`

	Docker DockerConfig `yaml:"docker"`
}

// DockerConfig describes the docker engine installation.
type DockerConfig struct {
	// WorkspaceDir is the directory under the acting user's home created
	// by the install command (the install variant's workspace root).
	WorkspaceDir string `yaml:"workspace_dir"`

	// RepoURL is the vendor apt repository.
	RepoURL string `yaml:"repo_url"`

	// GPGKeyURL is the repository signing key location.
	GPGKeyURL string `yaml:"gpg_key_url"`

	// KeyringPath is where the downloaded signing key is installed.
	KeyringPath string `yaml:"keyring_path"`

	// SourcesListPath is the apt sources entry registered for the repo.
	SourcesListPath string `yaml:"sources_list_path"`

	// Packages are installed from the vendor repository.
	Packages []string `yaml:"packages"`

	// ConflictingPackages are removed best-effort before installation.
	ConflictingPackages []string `yaml:"conflicting_packages"`

	// Service is the systemd unit enabled and started after install.
	Service string `yaml:"service"`
}

// Default returns the built-in policy.
func Default() *Config {
	return &Config{
		WorkspaceDir: "komodo",
		AppDataBase:  "/opt/appdata",
		SharedGroup:  "docker",
		ComposeFile:  "docker-compose.yml",
		EnvFile:      ".env",
		Docker: DockerConfig{
			WorkspaceDir:    "docker",
			RepoURL:         "https://download.docker.com/linux/ubuntu",
			GPGKeyURL:       "https://download.docker.com/linux/ubuntu/gpg",
			KeyringPath:     "/etc/apt/keyrings/docker.asc",
			SourcesListPath: "/etc/apt/sources.list.d/docker.list",
			Packages: []string{
				"docker-ce",
				"docker-ce-cli",
				"containerd.io",
				"docker-buildx-plugin",
				"docker-compose-plugin",
			},
			ConflictingPackages: []string{
				"docker.io",
				"docker-doc",
				"docker-compose",
				"podman-docker",
				"containerd",
				"runc",
			},
			Service: "docker",
		},
	}
}

// DefaultPath returns the user-level config file location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "scli", "config.yaml"), nil
}

// Load reads the config file at path over the defaults. A missing file is
// not an error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the config from the default path, falling back to the
// built-in policy when no user config directory can be determined.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace_dir must not be empty")
	}
	if !filepath.IsAbs(c.AppDataBase) {
		return fmt.Errorf("appdata_base must be an absolute path, got %q", c.AppDataBase)
	}
	if c.SharedGroup == "" {
		return fmt.Errorf("shared_group must not be empty")
	}
	if len(c.Docker.Packages) == 0 {
		return fmt.Errorf("docker.packages must not be empty")
	}
	return nil
}
