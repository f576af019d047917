package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "conn-tui"

// xdgDir returns $env/conn-tui, or ~/<fallback...>/conn-tui when env is unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("home directory not found")
	}
	parts := append(append([]string{home}, fallback...), appName)
	return filepath.Join(parts...), nil
}

func configFile(name string) (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// StateDir is where the log file lives.
func StateDir() (string, error) {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func DefaultPath() (string, error) { return configFile("config.toml") }

// DefaultServersPath returns the default path for the server inventory file.
func DefaultServersPath() (string, error) { return configFile("servers.toml") }

// resolve cleans path, falling back to def when it is empty.
func resolve(path string, def func() (string, error)) (string, error) {
	if path == "" {
		p, err := def()
		if err != nil {
			return "", err
		}
		path = p
	}
	return filepath.Clean(path), nil
}

// ServersPathFromConfigPath puts servers.toml next to the given config.toml.
func ServersPathFromConfigPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "servers.toml")
}

func Load(path string) (Config, string, error) {
	path, err := resolve(path, DefaultPath)
	if err != nil {
		return DefaultConfig(), "", err
	}
	if ok, err := regularFile(path, "config"); !ok {
		return DefaultConfig(), path, err
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), path, fmt.Errorf("decode %s: %w", path, err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Defaults.RevokeTimeoutSeconds <= 0 {
		cfg.Defaults.RevokeTimeoutSeconds = DefaultRevokeTimeoutSeconds
	}
	if cfg.Defaults.DeleteMinSeconds < 0 {
		cfg.Defaults.DeleteMinSeconds = 0
	}
	if cfg.Defaults.InvitationBaseURL == "" {
		cfg.Defaults.InvitationBaseURL = DefaultInvitationBaseURL
	}
	return cfg, path, nil
}

func Save(path string, cfg Config) (string, error) {
	path, err := resolve(path, DefaultPath)
	if err != nil {
		return "", err
	}
	cfg.Version = 1
	return writeTOML(path, ".config.toml.*", cfg)
}

// LoadInventory loads the server inventory from path.
// If path is empty, DefaultServersPath is used.
// A missing file is not an error; DefaultInventory is returned.
func LoadInventory(path string) (Inventory, string, error) {
	path, err := resolve(path, DefaultServersPath)
	if err != nil {
		return DefaultInventory(), "", err
	}
	if ok, err := regularFile(path, "servers"); !ok {
		return DefaultInventory(), path, err
	}

	inv := DefaultInventory()
	if _, err := toml.DecodeFile(path, &inv); err != nil {
		return DefaultInventory(), path, fmt.Errorf("decode %s: %w", path, err)
	}

	if inv.Version == 0 {
		inv.Version = 1
	}
	seen := make(map[string]struct{}, len(inv.Servers))
	for i := range inv.Servers {
		if err := ValidateServer(inv.Servers[i]); err != nil {
			return DefaultInventory(), path, fmt.Errorf("servers: %w", err)
		}
		if _, dup := seen[inv.Servers[i].ID]; dup {
			return DefaultInventory(), path, fmt.Errorf("servers: duplicate id %q", inv.Servers[i].ID)
		}
		seen[inv.Servers[i].ID] = struct{}{}
		inv.Servers[i].Normalize()
	}
	return inv, path, nil
}

// SaveInventory atomically writes the inventory to path.
// If path is empty, DefaultServersPath is used.
func SaveInventory(path string, inv Inventory) (string, error) {
	path, err := resolve(path, DefaultServersPath)
	if err != nil {
		return "", err
	}
	inv.Version = 1
	return writeTOML(path, ".servers.toml.*", inv)
}

// regularFile reports whether path exists and is a file. A missing file
// returns false with a nil error.
func regularFile(path, what string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if st.IsDir() {
		return false, fmt.Errorf("%s path is a directory: %s", what, path)
	}
	return true, nil
}

func writeTOML(path, pattern string, v any) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return path, err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return path, err
	}
	tmpPath := filepath.Clean(tmp.Name())
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		return path, err
	}
	if err := tmp.Sync(); err != nil {
		return path, err
	}
	if err := tmp.Close(); err != nil {
		return path, err
	}

	// #nosec G703 -- path is cleaned by the caller.
	if err := os.Rename(tmpPath, path); err != nil {
		return path, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return path, err
	}
	return path, nil
}
