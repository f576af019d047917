package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

func TestServerJSON(t *testing.T) {
	a := &app{cfg: config.DefaultConfig(), network: connection.StaticNetwork{WiFiSSID: "home"}}
	a.cfg.Defaults.ActiveServer = "1"

	srv := config.Server{
		ID:   "1",
		Name: "Home",
		Connection: config.Connection{
			InternalURL:   "http://ha.local:8123",
			ExternalURL:   "https://home.example.com",
			InternalSSIDs: []string{"home"},
		},
	}
	j := a.serverJSON(srv)
	assert.True(t, j.Active)
	assert.Equal(t, connection.Internal.String(), j.Via)
	assert.Equal(t, "http://ha.local:8123", j.URL)
	assert.NotNil(t, j.Headers)
	assert.True(t, j.LoggedOut)

	a.network = connection.StaticNetwork{}
	srv.Token.AccessToken = "tok"
	j = a.serverJSON(srv)
	assert.Equal(t, "https://home.example.com", j.URL)
	assert.False(t, j.LoggedOut)
}

func TestServerJSONWithoutURL(t *testing.T) {
	a := &app{cfg: config.DefaultConfig()}
	j := a.serverJSON(config.Server{ID: "2", Name: "Empty"})
	assert.False(t, j.Active)
	assert.Equal(t, connection.NoValue, j.URL)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"home", "home-5g"}, splitCSV(" home, ,home-5g ,"))
	assert.Nil(t, splitCSV(""))
}
