package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"   ", false},
		{"http://homeassistant.local:8123", false},
		{"https://home.example.com/", false},
		{"ftp://home.example.com", true},
		{"homeassistant.local:8123", true},
		{"https://", true},
		{"http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validateURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"home", "home-5g"}, splitList("home, home-5g ,home,"))
}

func TestURLFormInternalSave(t *testing.T) {
	srv := config.Server{
		ID:         "s1",
		Connection: config.Connection{ExternalURL: "https://home.example.com"},
	}
	m := newURLFormModel(srv, connection.Internal)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})
	assert.Equal(t, []urlField{urlFieldURL, urlFieldSSIDs, urlFieldHWAddrs, urlFieldFallback}, m.fields())

	sendKeys(m, keyRunes("i"), keyRunes("http://10.0.0.2:8123"), keyEnter)
	assert.Equal(t, urlFieldSSIDs, m.focus)
	sendKeys(m, keyRunes("i"), keyRunes("home, lab"), keyEnter)
	sendKeys(m, keyRunes("i"), keyRunes("AA:BB:CC:DD:EE:FF"), keyEnter)
	assert.Equal(t, urlFieldFallback, m.focus)
	sendKeys(m, keyRunes("l"))

	cmd := sendKeys(m, keySave)
	require.NotNil(t, cmd)
	msg, ok := cmd().(urlFormSaveMsg)
	require.True(t, ok)
	assert.Equal(t, "s1", msg.id)

	msg.edit.apply(msg.typ, &srv)
	assert.Equal(t, "http://10.0.0.2:8123", srv.Connection.InternalURL)
	assert.Equal(t, []string{"home", "lab"}, srv.Connection.InternalSSIDs)
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:ff"}, srv.Connection.InternalHardwareAddresses)
	assert.True(t, srv.Connection.AlwaysFallbackToInternalURL)
	assert.Equal(t, "https://home.example.com", srv.Connection.ExternalURL)
}

func TestURLFormRejectsBadURL(t *testing.T) {
	srv := config.Server{ID: "s1", Connection: config.Connection{InternalURL: "http://ha.local"}}
	m := newURLFormModel(srv, connection.External)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})

	sendKeys(m, keyRunes("i"), keyRunes("not a url"))
	assert.Error(t, m.err)

	cmd := sendKeys(m, keySave)
	assert.Nil(t, cmd)
	assert.Equal(t, toastErr, m.toast.level)
	assert.Contains(t, m.View(), "http://")
}

func TestURLFormRefusesToClearLastURL(t *testing.T) {
	srv := config.Server{ID: "s1", Connection: config.Connection{ExternalURL: "https://home.example.com"}}
	m := newURLFormModel(srv, connection.External)

	m.inURL.SetValue("")
	cmd := sendKeys(m, keySave)
	assert.Nil(t, cmd)
	assert.Error(t, m.err)
}

func TestURLFormCloudToggleOnlyWhenAvailable(t *testing.T) {
	srv := config.Server{ID: "s1", Connection: config.Connection{ExternalURL: "https://home.example.com"}}
	assert.Equal(t, []urlField{urlFieldURL}, newURLFormModel(srv, connection.External).fields())

	srv.Connection.CanUseCloud = true
	srv.Connection.RemoteUIURL = "https://abc.ui.nabu.casa"
	m := newURLFormModel(srv, connection.External)
	assert.Equal(t, []urlField{urlFieldURL, urlFieldCloud}, m.fields())

	sendKeys(m, keyRunes("j"), keyRunes(" "))
	assert.True(t, m.useCloud)

	cmd := sendKeys(m, keySave)
	require.NotNil(t, cmd)
	msg := cmd().(urlFormSaveMsg)
	msg.edit.apply(msg.typ, &srv)
	assert.True(t, srv.Connection.UseCloud)
}

func TestURLFormEscCancels(t *testing.T) {
	m := newURLFormModel(config.Server{ID: "s1"}, connection.Internal)
	cmd := sendKeys(m, keyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, urlFormCancelMsg{}, cmd())
}

func TestAppSavesURLForm(t *testing.T) {
	reg := newTestRegistry(t)
	srv := addTestServer(t, reg, "home", "https://home.example.com")
	app := newTestApp(t, reg)

	app.Update(openServerMsg{id: srv.ID})
	app.Update(openURLFormMsg{id: srv.ID, typ: connection.Internal})
	require.Equal(t, screenURLForm, app.screen)
	require.NotNil(t, app.urlForm)

	app.Update(urlFormSaveMsg{id: srv.ID, typ: connection.Internal, edit: urlEdit{
		url:   "http://10.0.0.2:8123",
		ssids: []string{"home"},
	}})
	assert.Equal(t, screenConnection, app.screen)
	assert.Nil(t, app.urlForm)

	got, err := reg.Store().Get(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8123", got.Connection.InternalURL)
	assert.Equal(t, []string{"home"}, got.Connection.InternalSSIDs)
	assert.Equal(t, got.Connection.InternalURL, app.conn.srv.Connection.InternalURL)
	assert.Equal(t, "saved", app.conn.toast.text)
}
