package connection

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-bashkir/conn-tui/internal/config"
)

func TestURLTypeString(t *testing.T) {
	assert.Equal(t, "Internal URL", Internal.String())
	assert.Equal(t, "External URL", External.String())
	assert.Equal(t, "Cloud", RemoteUI.String())
}

func TestActiveURLType(t *testing.T) {
	both := config.Connection{
		InternalURL:   "http://ha.local:8123",
		ExternalURL:   "https://ha.example.com",
		RemoteUIURL:   "https://abc.ui.nabu.casa",
		InternalSSIDs: []string{"home"},
	}

	tests := []struct {
		name string
		conn func() config.Connection
		net  Network
		want URLType
	}{
		{
			name: "home ssid",
			conn: func() config.Connection { return both },
			net:  StaticNetwork{WiFiSSID: "home"},
			want: Internal,
		},
		{
			name: "other ssid",
			conn: func() config.Connection { return both },
			net:  StaticNetwork{WiFiSSID: "cafe"},
			want: External,
		},
		{
			name: "hardware address case-insensitive",
			conn: func() config.Connection {
				c := both
				c.InternalSSIDs = nil
				c.InternalHardwareAddresses = []string{"AA:BB:CC:DD:EE:FF"}
				return c
			},
			net:  StaticNetwork{HWAddr: "aa:bb:cc:dd:ee:ff"},
			want: Internal,
		},
		{
			name: "always fallback",
			conn: func() config.Connection {
				c := both
				c.AlwaysFallbackToInternalURL = true
				return c
			},
			net:  nil,
			want: Internal,
		},
		{
			name: "cloud",
			conn: func() config.Connection {
				c := both
				c.UseCloud, c.CanUseCloud = true, true
				return c
			},
			net:  StaticNetwork{},
			want: RemoteUI,
		},
		{
			name: "cloud not allowed",
			conn: func() config.Connection {
				c := both
				c.UseCloud = true
				return c
			},
			net:  StaticNetwork{},
			want: External,
		},
		{
			name: "internal only",
			conn: func() config.Connection {
				return config.Connection{InternalURL: "http://ha.local:8123"}
			},
			net:  StaticNetwork{},
			want: Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActiveURLType(tt.conn(), tt.net))
		})
	}
}

func TestActiveURL(t *testing.T) {
	_, err := ActiveURL(config.Connection{}, StaticNetwork{})
	assert.ErrorIs(t, err, ErrNoURL)

	u, err := ActiveURL(config.Connection{ExternalURL: "https://ha.example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ha.example.com", u.Host)
}

func TestDisplays(t *testing.T) {
	c := config.Connection{InternalURL: "http://ha.local:8123"}
	assert.True(t, InternalRequiresSetup(c))
	assert.Equal(t, RequiresSetup, InternalDisplay(c))

	c.InternalSSIDs = []string{"home"}
	assert.False(t, InternalRequiresSetup(c))
	assert.Equal(t, "http://ha.local:8123", InternalDisplay(c))

	assert.Equal(t, NoValue, ExternalDisplay(c))
	c.ExternalURL = "https://ha.example.com"
	assert.Equal(t, "https://ha.example.com", ExternalDisplay(c))
	c.UseCloud, c.CanUseCloud = true, true
	assert.Equal(t, CloudLabel, ExternalDisplay(c))
}

func TestInvitationURL(t *testing.T) {
	_, err := InvitationURL(config.Connection{}, "")
	assert.ErrorIs(t, err, ErrNoURL)

	got, err := InvitationURL(config.Connection{
		InternalURL: "http://ha.local:8123",
		ExternalURL: "https://ha.example.com/",
	}, "https://invite.example/#url=")
	require.NoError(t, err)
	assert.Equal(t, "https://invite.example/#url="+url.QueryEscape("https://ha.example.com"), got)

	got, err = InvitationURL(config.Connection{InternalURL: "http://ha.local:8123"}, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultInvitationBaseURL+url.QueryEscape("http://ha.local:8123"), got)
}

func TestHeadersServerWins(t *testing.T) {
	d := config.Defaults{Headers: map[string]string{"User-Agent": "conn-tui", "X-Env": "prod"}}
	s := config.Server{Connection: config.Connection{
		HTTPAdditionalHeaders: map[string]string{"x-env": "staging", "CF-Access-Client-Id": "id"},
	}}

	h := Headers(d, s)
	assert.Equal(t, "conn-tui", h.Get("User-Agent"))
	assert.Equal(t, "staging", h.Get("X-Env"))
	assert.Equal(t, "id", h.Get("Cf-Access-Client-Id"))
	assert.Len(t, h, 3)
}
