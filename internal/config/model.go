package config

import (
	"fmt"
	"strings"
)

const (
	DefaultRevokeTimeoutSeconds = 10
	DefaultDeleteMinSeconds     = 3
	DefaultInvitationBaseURL    = "https://my.home-assistant.io/invite/#url="
)

// LocationPrivacy controls what the client reports about its position.
type LocationPrivacy string

const (
	LocationExact    LocationPrivacy = "exact"
	LocationZoneOnly LocationPrivacy = "zone_only"
	LocationNever    LocationPrivacy = "never"
)

var LocationPrivacyOptions = []LocationPrivacy{LocationExact, LocationZoneOnly, LocationNever}

func (p LocationPrivacy) Label() string {
	switch p {
	case LocationZoneOnly:
		return "Zone name only"
	case LocationNever:
		return "Never"
	default:
		return "Exact"
	}
}

// SensorPrivacy controls whether sensors are registered with the server.
type SensorPrivacy string

const (
	SensorAll  SensorPrivacy = "all"
	SensorNone SensorPrivacy = "none"
)

var SensorPrivacyOptions = []SensorPrivacy{SensorAll, SensorNone}

func (p SensorPrivacy) Label() string {
	if p == SensorNone {
		return "None"
	}
	return "All"
}

type Config struct {
	Version  int      `toml:"version"`
	Defaults Defaults `toml:"defaults"`
}

type Defaults struct {
	AccentColor          string            `toml:"accent_color"` // preset name or color code
	ConfirmQuit          bool              `toml:"confirm_quit"`
	ActiveServer         string            `toml:"active_server"` // server ID
	DeviceName           string            `toml:"device_name"`   // empty means hostname
	RevokeTimeoutSeconds int               `toml:"revoke_timeout_seconds"`
	DeleteMinSeconds     int               `toml:"delete_min_seconds"`
	InvitationBaseURL    string            `toml:"invitation_base_url"`
	Headers              map[string]string `toml:"headers,omitempty"` // sent to every server, overridden per server
}

// Inventory is the servers.toml document.
type Inventory struct {
	Version int      `toml:"version"`
	Servers []Server `toml:"servers"`
}

// Server is one configured server connection.
// Example TOML:
//
//	[[servers]]
//	id = "6f1c..."
//	name = "Home"
//
//	[servers.connection]
//	internal_url = "http://homeassistant.local:8123"
//	external_url = "https://home.example.com"
//	internal_ssids = ["home-wifi"]
//
//	[servers.connection.http_headers]
//	CF-Access-Client-Id = "abc"
type Server struct {
	ID         string     `toml:"id"`
	Name       string     `toml:"name"`    // name reported by the server
	Version    string     `toml:"version"` // last seen server version
	Connection Connection `toml:"connection"`
	Settings   Settings   `toml:"settings"`
	Token      Token      `toml:"token"`
}

// DisplayName prefers the local override over the server-reported name.
func (s Server) DisplayName() string {
	if n := strings.TrimSpace(s.Settings.LocalName); n != "" {
		return n
	}
	if n := strings.TrimSpace(s.Name); n != "" {
		return n
	}
	return s.ID
}

type Connection struct {
	InternalURL                 string            `toml:"internal_url"`
	ExternalURL                 string            `toml:"external_url"`
	RemoteUIURL                 string            `toml:"remote_ui_url"`
	UseCloud                    bool              `toml:"use_cloud"`
	CanUseCloud                 bool              `toml:"can_use_cloud"`
	InternalSSIDs               []string          `toml:"internal_ssids,omitempty"`
	InternalHardwareAddresses   []string          `toml:"internal_hardware_addresses,omitempty"`
	AlwaysFallbackToInternalURL bool              `toml:"always_fallback_to_internal_url"`
	HTTPAdditionalHeaders       map[string]string `toml:"http_headers,omitempty"`
	WebhookID                   string            `toml:"webhook_id"`
}

type Settings struct {
	LocalName          string          `toml:"local_name"`
	OverrideDeviceName string          `toml:"override_device_name"`
	LocationPrivacy    LocationPrivacy `toml:"location_privacy"`
	SensorPrivacy      SensorPrivacy   `toml:"sensor_privacy"`
}

type Token struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Normalize fills unset enum settings with their defaults.
func (s *Server) Normalize() {
	if s.Settings.LocationPrivacy == "" {
		s.Settings.LocationPrivacy = LocationExact
	}
	if s.Settings.SensorPrivacy == "" {
		s.Settings.SensorPrivacy = SensorAll
	}
	if len(s.Connection.HTTPAdditionalHeaders) == 0 {
		s.Connection.HTTPAdditionalHeaders = nil
	}
}

// ValidateServer returns an error for records that cannot be used at all.
func ValidateServer(s Server) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("server id required")
	}
	if strings.TrimSpace(s.Connection.InternalURL) == "" &&
		strings.TrimSpace(s.Connection.ExternalURL) == "" &&
		strings.TrimSpace(s.Connection.RemoteUIURL) == "" {
		return fmt.Errorf("server %q: no URL configured", s.DisplayName())
	}
	switch s.Settings.LocationPrivacy {
	case "", LocationExact, LocationZoneOnly, LocationNever:
	default:
		return fmt.Errorf("server %q: invalid location_privacy %q", s.DisplayName(), s.Settings.LocationPrivacy)
	}
	switch s.Settings.SensorPrivacy {
	case "", SensorAll, SensorNone:
	default:
		return fmt.Errorf("server %q: invalid sensor_privacy %q", s.DisplayName(), s.Settings.SensorPrivacy)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Defaults: Defaults{
			AccentColor:          "",
			ConfirmQuit:          false,
			RevokeTimeoutSeconds: DefaultRevokeTimeoutSeconds,
			DeleteMinSeconds:     DefaultDeleteMinSeconds,
			InvitationBaseURL:    DefaultInvitationBaseURL,
		},
	}
}

func DefaultInventory() Inventory {
	return Inventory{Version: 1}
}
