package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/headers"
)

func newTestSettings(t *testing.T) *settingsFormModel {
	t.Helper()
	m := newSettingsFormModel(config.DefaultConfig().Defaults, "laptop")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestSettingsDefaultsRoundTrip(t *testing.T) {
	m := newTestSettings(t)
	d, err := m.apply()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Defaults, d)
	assert.Equal(t, "laptop", m.inDevice.Placeholder)
}

func TestSettingsCycleChoices(t *testing.T) {
	m := newTestSettings(t)
	sendKeys(m, keyRunes("l"), keyRunes("l"))
	assert.Equal(t, "cyan", m.defaults.AccentColor)
	sendKeys(m, keyRunes("h"), keyRunes("h"), keyRunes("h"))
	assert.Equal(t, "magenta", m.defaults.AccentColor)

	sendKeys(m, keyRunes("j"), keyRunes(" "))
	assert.True(t, m.defaults.ConfirmQuit)
}

func TestSettingsSaveEmitsDefaults(t *testing.T) {
	m := newTestSettings(t)
	m.setFocus(settingsFieldDevice)
	sendKeys(m, keyRunes("i"), keyRunes("tablet"), keyEnter)
	assert.Equal(t, settingsFieldInvite, m.focus)

	m.setFocus(settingsFieldHeaders)
	sendKeys(m, keyRunes("i"), keyRunes("X-Global: 1"))

	cmd := sendKeys(m, keySave)
	require.NotNil(t, cmd)
	msg, ok := cmd().(settingsSaveMsg)
	require.True(t, ok)
	assert.Equal(t, "tablet", msg.defaults.DeviceName)
	assert.Equal(t, map[string]string{"X-Global": "1"}, msg.defaults.Headers)
	assert.False(t, m.editing)
}

func TestSettingsHeaderErrorBlocksSave(t *testing.T) {
	m := newTestSettings(t)
	m.setFocus(settingsFieldHeaders)
	sendKeys(m, keyRunes("i"), keyRunes("broken"))
	assert.ErrorIs(t, m.headerErr, headers.ErrInvalidFormat)

	cmd := sendKeys(m, keySave)
	assert.Nil(t, cmd)
	assert.Equal(t, toastErr, m.toast.level)
	assert.Equal(t, settingsFieldHeaders, m.focus)
}

func TestSettingsRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name   string
		revoke string
		floor  string
	}{
		{"zero revoke", "0", "3"},
		{"text revoke", "soon", "3"},
		{"negative floor", "10", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestSettings(t)
			m.inRevoke.SetValue(tt.revoke)
			m.inDelete.SetValue(tt.floor)
			_, err := m.apply()
			assert.Error(t, err)
		})
	}

	m := newTestSettings(t)
	m.inRevoke.SetValue("")
	m.inDelete.SetValue("0")
	d, err := m.apply()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRevokeTimeoutSeconds, d.RevokeTimeoutSeconds)
	assert.Zero(t, d.DeleteMinSeconds)
}

func TestSettingsResetDropsEdits(t *testing.T) {
	m := newTestSettings(t)
	m.inDevice.SetValue("draft")
	m.defaults.AccentColor = "red"

	d := config.DefaultConfig().Defaults
	d.Headers = map[string]string{"X-A": "1"}
	m.reset(d, "laptop")

	assert.Empty(t, m.inDevice.Value())
	assert.Empty(t, m.defaults.AccentColor)
	assert.Equal(t, "X-A: 1", m.headers.Value())
}

func TestAppSettingsSaveAppliesDefaults(t *testing.T) {
	reg := newTestRegistry(t)
	app := newTestApp(t, reg)

	app.Update(switchScreenMsg{to: screenSettings})
	require.Equal(t, screenSettings, app.screen)
	assert.Contains(t, app.View(), "Settings")

	d := app.opts.Config.Defaults
	d.DeviceName = "tablet"
	d.AccentColor = "green"
	d.RevokeTimeoutSeconds = 2
	app.Update(settingsSaveMsg{defaults: d})

	assert.Equal(t, "saved", app.settings.toast.text)
	assert.Equal(t, "tablet", reg.DefaultDeviceName())
	assert.Equal(t, "tablet", app.settings.inDevice.Value())

	cfg, _, err := config.Load(app.opts.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "green", cfg.Defaults.AccentColor)
	assert.Equal(t, 2, cfg.Defaults.RevokeTimeoutSeconds)

	SetAccentColor("")
}
