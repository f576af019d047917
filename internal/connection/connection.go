// Package connection decides which URL a server is reached through and what
// headers go with each request.
package connection

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/headers"
)

// URLType identifies one of a server's configured addresses.
type URLType int

const (
	Internal URLType = iota
	External
	RemoteUI
)

func (t URLType) String() string {
	switch t {
	case Internal:
		return "Internal URL"
	case External:
		return "External URL"
	case RemoteUI:
		return "Cloud"
	default:
		return "Unknown"
	}
}

const (
	RequiresSetup = "‼️ Requires setup"
	CloudLabel    = "Cloud"
	NoValue       = "—"
)

var ErrNoURL = errors.New("no URL configured")

// Network reports what the client is currently attached to.
type Network interface {
	SSID() string
	HardwareAddress() string
}

// StaticNetwork is a Network with fixed values, usually set from flags.
type StaticNetwork struct {
	WiFiSSID string
	HWAddr   string
}

func (n StaticNetwork) SSID() string            { return n.WiFiSSID }
func (n StaticNetwork) HardwareAddress() string { return n.HWAddr }

// Address parses the URL of the given type. It returns false when the URL is
// unset or unparsable.
func Address(c config.Connection, t URLType) (*url.URL, bool) {
	var raw string
	switch t {
	case Internal:
		raw = c.InternalURL
	case External:
		raw = c.ExternalURL
	case RemoteUI:
		raw = c.RemoteUIURL
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// ActiveURLType picks the address used for new requests.
func ActiveURLType(c config.Connection, n Network) URLType {
	_, hasInternal := Address(c, Internal)
	_, hasExternal := Address(c, External)

	if hasInternal && onInternalNetwork(c, n) {
		return Internal
	}
	if c.UseCloud && c.CanUseCloud {
		if _, ok := Address(c, RemoteUI); ok {
			return RemoteUI
		}
	}
	if hasExternal {
		return External
	}
	if hasInternal {
		return Internal
	}
	return External
}

// ActiveURL returns the address chosen by ActiveURLType.
func ActiveURL(c config.Connection, n Network) (*url.URL, error) {
	u, ok := Address(c, ActiveURLType(c, n))
	if !ok {
		return nil, ErrNoURL
	}
	return u, nil
}

func onInternalNetwork(c config.Connection, n Network) bool {
	if c.AlwaysFallbackToInternalURL {
		return true
	}
	if n == nil {
		return false
	}
	if ssid := strings.TrimSpace(n.SSID()); ssid != "" && slices.Contains(c.InternalSSIDs, ssid) {
		return true
	}
	hw := strings.ToLower(strings.TrimSpace(n.HardwareAddress()))
	if hw == "" {
		return false
	}
	for _, a := range c.InternalHardwareAddresses {
		if strings.ToLower(strings.TrimSpace(a)) == hw {
			return true
		}
	}
	return false
}

// InternalRequiresSetup reports whether the internal URL could never be
// selected because no network rule points at it.
func InternalRequiresSetup(c config.Connection) bool {
	return len(c.InternalSSIDs) == 0 &&
		len(c.InternalHardwareAddresses) == 0 &&
		!c.AlwaysFallbackToInternalURL
}

// InternalDisplay is the value shown in the internal URL row.
func InternalDisplay(c config.Connection) string {
	if InternalRequiresSetup(c) {
		return RequiresSetup
	}
	if u := strings.TrimSpace(c.InternalURL); u != "" {
		return u
	}
	return NoValue
}

// ExternalDisplay is the value shown in the external URL row.
func ExternalDisplay(c config.Connection) string {
	if c.UseCloud && c.CanUseCloud {
		return CloudLabel
	}
	if u := strings.TrimSpace(c.ExternalURL); u != "" {
		return u
	}
	return NoValue
}

// InvitationURL builds a link another device can open to add this server.
func InvitationURL(c config.Connection, base string) (string, error) {
	var target *url.URL
	for _, t := range []URLType{External, RemoteUI, Internal} {
		if u, ok := Address(c, t); ok {
			target = u
			break
		}
	}
	if target == nil {
		return "", ErrNoURL
	}
	if base == "" {
		base = config.DefaultInvitationBaseURL
	}
	return base + url.QueryEscape(strings.TrimRight(target.String(), "/")), nil
}

// Headers merges the global default headers with the server's overrides.
// Server values replace defaults with the same canonical name.
func Headers(defaults config.Defaults, server config.Server) http.Header {
	h := make(http.Header)
	headers.Apply(h, defaults.Headers)
	headers.Apply(h, server.Connection.HTTPAdditionalHeaders)
	return h
}
