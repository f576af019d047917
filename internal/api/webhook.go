package api

import (
	"context"
	"fmt"

	"github.com/al-bashkir/conn-tui/internal/config"
)

// Sensor is one entity registered through the webhook.
type Sensor struct {
	UniqueID   string         `json:"unique_id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	State      any            `json:"state"`
	Icon       string         `json:"icon,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RegisterSensors registers every sensor unless the server's sensor privacy
// is none. It stops at the first failure.
func (c *Client) RegisterSensors(ctx context.Context, sensors []Sensor) error {
	if c.server.Settings.SensorPrivacy == config.SensorNone {
		c.log.Debug().Msg("sensor privacy is none, skipping registration")
		return nil
	}
	for _, s := range sensors {
		if err := c.webhook(ctx, "register_sensor", s); err != nil {
			return fmt.Errorf("register sensor %s: %w", s.UniqueID, err)
		}
	}
	c.log.Info().Int("sensors", len(sensors)).Msg("sensors registered")
	return nil
}

// Location is the device position reported to the server.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Zone      string // zone name, used when only the zone may be shared
}

type locationPayload struct {
	GPS          []float64 `json:"gps,omitempty"`
	GPSAccuracy  float64   `json:"gps_accuracy,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
}

// UpdateLocation reports loc as far as the server's location privacy allows.
// It returns false when nothing was sent.
func (c *Client) UpdateLocation(ctx context.Context, loc Location) (bool, error) {
	var p locationPayload
	switch c.server.Settings.LocationPrivacy {
	case config.LocationNever:
		c.log.Debug().Msg("location privacy is never, not sending location")
		return false, nil
	case config.LocationZoneOnly:
		if loc.Zone == "" {
			return false, nil
		}
		p.LocationName = loc.Zone
	default:
		p.GPS = []float64{loc.Latitude, loc.Longitude}
		p.GPSAccuracy = loc.Accuracy
		p.LocationName = loc.Zone
	}
	if err := c.webhook(ctx, "update_location", p); err != nil {
		return false, fmt.Errorf("update location: %w", err)
	}
	return true, nil
}
