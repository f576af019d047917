package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// legacyConfig is the early single-file layout where servers were stored as
// [[servers]] tables inside config.toml.
type legacyConfig struct {
	Version  int      `toml:"version"`
	Defaults Defaults `toml:"defaults"`
	Servers  []Server `toml:"servers"`
}

// Migrate moves servers out of config.toml into servers.toml. It does nothing
// when servers.toml already exists or config.toml has no servers. Both files
// are written atomically.
func Migrate(configPath, serversPath string) error {
	configPath = filepath.Clean(configPath)
	serversPath = filepath.Clean(serversPath)

	if _, err := os.Stat(serversPath); err == nil {
		return nil
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}

	var legacy legacyConfig
	if _, err := toml.DecodeFile(configPath, &legacy); err != nil {
		return err
	}
	if len(legacy.Servers) == 0 {
		return nil
	}

	inv := Inventory{Version: 1, Servers: legacy.Servers}
	for i := range inv.Servers {
		inv.Servers[i].Normalize()
	}
	if _, err := SaveInventory(serversPath, inv); err != nil {
		return err
	}

	_, err := Save(configPath, Config{Version: 1, Defaults: legacy.Defaults})
	return err
}
