package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "missing.toml")

	cfg, used, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if used != p {
		t.Fatalf("used=%q, want %q", used, p)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("cfg=%#v, want defaults", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "config.toml")

	cfg := DefaultConfig()
	cfg.Defaults.DeviceName = "laptop"
	cfg.Defaults.ActiveServer = "abc"
	cfg.Defaults.Headers = map[string]string{"User-Agent": "conn-tui"}

	if _, err := Save(p, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	st, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%o, want 600", st.Mode().Perm())
	}

	got, used, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if used != p {
		t.Fatalf("used=%q, want %q", used, p)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("got=%#v\nwant=%#v", got, cfg)
	}
}

func TestLoadFillsTimeouts(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "config.toml")
	content := "version = 1\n[defaults]\nrevoke_timeout_seconds = 0\ndelete_min_seconds = -4\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, _, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Defaults.RevokeTimeoutSeconds != DefaultRevokeTimeoutSeconds {
		t.Fatalf("revoke=%d, want %d", cfg.Defaults.RevokeTimeoutSeconds, DefaultRevokeTimeoutSeconds)
	}
	if cfg.Defaults.DeleteMinSeconds != 0 {
		t.Fatalf("delete_min=%d, want 0", cfg.Defaults.DeleteMinSeconds)
	}
	if cfg.Defaults.InvitationBaseURL != DefaultInvitationBaseURL {
		t.Fatalf("invitation=%q", cfg.Defaults.InvitationBaseURL)
	}
}

func TestLoadInventoryMissingReturnsDefaults(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "missing.toml")

	inv, used, err := LoadInventory(p)
	if err != nil {
		t.Fatalf("LoadInventory error: %v", err)
	}
	if used != p {
		t.Fatalf("used=%q, want %q", used, p)
	}
	if !reflect.DeepEqual(inv, DefaultInventory()) {
		t.Fatalf("inv=%#v, want defaults", inv)
	}
}

func TestSaveInventoryThenLoadRoundTrip(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "servers.toml")

	inv := DefaultInventory()
	inv.Servers = []Server{{
		ID:      "6f1c",
		Name:    "Home",
		Version: "2024.6.0",
		Connection: Connection{
			InternalURL:           "http://homeassistant.local:8123",
			ExternalURL:           "https://home.example.com",
			InternalSSIDs:         []string{"home-wifi"},
			HTTPAdditionalHeaders: map[string]string{"CF-Access-Client-Id": "abc"},
			WebhookID:             "hook",
		},
		Settings: Settings{
			LocalName:       "Cabin",
			LocationPrivacy: LocationZoneOnly,
			SensorPrivacy:   SensorNone,
		},
		Token: Token{AccessToken: "a", RefreshToken: "r"},
	}}

	if _, err := SaveInventory(p, inv); err != nil {
		t.Fatalf("SaveInventory error: %v", err)
	}

	st, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%o, want 600", st.Mode().Perm())
	}

	got, used, err := LoadInventory(p)
	if err != nil {
		t.Fatalf("LoadInventory error: %v", err)
	}
	if used != p {
		t.Fatalf("used=%q, want %q", used, p)
	}
	if !reflect.DeepEqual(got, inv) {
		t.Fatalf("got=%#v\nwant=%#v", got, inv)
	}
}

func TestLoadInventoryNormalizesPrivacy(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "servers.toml")
	content := `version = 1

[[servers]]
id = "a"
name = "Home"

[servers.connection]
external_url = "https://home.example.com"
`
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	inv, _, err := LoadInventory(p)
	if err != nil {
		t.Fatalf("LoadInventory error: %v", err)
	}
	if len(inv.Servers) != 1 {
		t.Fatalf("servers=%d, want 1", len(inv.Servers))
	}
	s := inv.Servers[0].Settings
	if s.LocationPrivacy != LocationExact || s.SensorPrivacy != SensorAll {
		t.Fatalf("settings=%#v, want exact/all", s)
	}
}

func TestLoadInventoryRejectsBadRecords(t *testing.T) {
	cases := map[string]string{
		"no url": `[[servers]]
id = "a"
`,
		"duplicate id": `[[servers]]
id = "a"
[servers.connection]
internal_url = "http://a"
[[servers]]
id = "a"
[servers.connection]
internal_url = "http://b"
`,
		"bad privacy": `[[servers]]
id = "a"
[servers.connection]
internal_url = "http://a"
[servers.settings]
location_privacy = "sometimes"
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "servers.toml")
			if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, _, err := LoadInventory(p); err == nil {
				t.Fatalf("LoadInventory succeeded, want error")
			}
		})
	}
}

func TestMigrateOldConfig(t *testing.T) {
	d := t.TempDir()
	cfgPath := filepath.Join(d, "config.toml")
	serversPath := filepath.Join(d, "servers.toml")

	oldContent := `version = 1

[defaults]
device_name = "laptop"

[[servers]]
id = "a"
name = "Home"

[servers.connection]
internal_url = "http://homeassistant.local:8123"
`
	if err := os.WriteFile(cfgPath, []byte(oldContent), 0o600); err != nil {
		t.Fatalf("write old config: %v", err)
	}

	if err := Migrate(cfgPath, serversPath); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}

	inv, _, err := LoadInventory(serversPath)
	if err != nil {
		t.Fatalf("LoadInventory after migrate: %v", err)
	}
	if len(inv.Servers) != 1 {
		t.Fatalf("inv.Servers=%d, want 1", len(inv.Servers))
	}
	if inv.Servers[0].Connection.InternalURL != "http://homeassistant.local:8123" {
		t.Fatalf("internal_url=%q", inv.Servers[0].Connection.InternalURL)
	}

	cfg, _, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load after migrate: %v", err)
	}
	if cfg.Defaults.DeviceName != "laptop" {
		t.Fatalf("cfg.Defaults.DeviceName=%q, want laptop", cfg.Defaults.DeviceName)
	}

	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read migrated config: %v", err)
	}
	if strings.Contains(string(raw), "[[servers]]") {
		t.Fatalf("migrated config.toml still contains [[servers]]")
	}
}

func TestMigrateSkipsWhenServersExist(t *testing.T) {
	d := t.TempDir()
	cfgPath := filepath.Join(d, "config.toml")
	serversPath := filepath.Join(d, "servers.toml")

	if _, err := Save(cfgPath, DefaultConfig()); err != nil {
		t.Fatalf("Save config: %v", err)
	}
	inv := DefaultInventory()
	inv.Servers = []Server{{
		ID:         "b",
		Connection: Connection{ExternalURL: "https://b.example"},
		Settings:   Settings{LocationPrivacy: LocationExact, SensorPrivacy: SensorAll},
	}}
	if _, err := SaveInventory(serversPath, inv); err != nil {
		t.Fatalf("SaveInventory: %v", err)
	}

	if err := Migrate(cfgPath, serversPath); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}

	got, _, err := LoadInventory(serversPath)
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if !reflect.DeepEqual(got, inv) {
		t.Fatalf("got=%#v\nwant=%#v", got, inv)
	}
}

func TestMigrateNoServerData(t *testing.T) {
	d := t.TempDir()
	cfgPath := filepath.Join(d, "config.toml")
	serversPath := filepath.Join(d, "servers.toml")

	if _, err := Save(cfgPath, DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Migrate(cfgPath, serversPath); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if _, err := os.Stat(serversPath); !os.IsNotExist(err) {
		t.Fatalf("servers.toml should not exist after migration with no server data")
	}
}

func TestFindServer(t *testing.T) {
	inv := Inventory{Servers: []Server{
		{ID: "a", Name: "Home"},
		{ID: "b", Name: "Office", Settings: Settings{LocalName: "Work"}},
	}}

	cases := []struct {
		key  string
		want int
	}{
		{"a", 0},
		{"home", 0},
		{"WORK", 1},
		{"office", 1},
		{"nope", -1},
		{"", -1},
	}
	for _, c := range cases {
		got, ok := FindServer(inv, c.key)
		if got != c.want || ok != (c.want >= 0) {
			t.Fatalf("FindServer(%q)=%d,%v, want %d", c.key, got, ok, c.want)
		}
	}

	names := ServerNames(inv)
	if !reflect.DeepEqual(names, []string{"Home", "Work"}) {
		t.Fatalf("names=%v", names)
	}
}

func TestLoadEnvReadsDotEnv(t *testing.T) {
	d := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", d)
	t.Setenv(EnvLogLevel, "")
	if err := os.Unsetenv(EnvLogLevel); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(d, appName), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(d, appName, ".env"), []byte(EnvLogLevel+"=debug\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(EnvLogLevel) })

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if env.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q, want debug", env.LogLevel)
	}
}
