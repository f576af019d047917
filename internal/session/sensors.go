package session

import (
	"runtime"

	"github.com/al-bashkir/conn-tui/internal/api"
)

// DeviceSensors describes this machine.
func DeviceSensors(deviceName, appVersion string) []api.Sensor {
	if appVersion == "" {
		appVersion = "dev"
	}
	return []api.Sensor{
		{UniqueID: "device_name", Name: "Device name", Type: "sensor", State: deviceName, Icon: "mdi:laptop"},
		{
			UniqueID: "platform",
			Name:     "Platform",
			Type:     "sensor",
			State:    runtime.GOOS,
			Icon:     "mdi:chip",
			Attributes: map[string]any{
				"arch": runtime.GOARCH,
			},
		},
		{UniqueID: "app_version", Name: "App version", Type: "sensor", State: appVersion, Icon: "mdi:information-outline"},
	}
}
