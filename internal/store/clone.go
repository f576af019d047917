package store

import (
	"maps"
	"slices"

	"github.com/al-bashkir/conn-tui/internal/config"
)

func clone(s config.Server) config.Server {
	s.Connection.InternalSSIDs = slices.Clone(s.Connection.InternalSSIDs)
	s.Connection.InternalHardwareAddresses = slices.Clone(s.Connection.InternalHardwareAddresses)
	s.Connection.HTTPAdditionalHeaders = maps.Clone(s.Connection.HTTPAdditionalHeaders)
	return s
}

func equal(a, b config.Server) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Version != b.Version ||
		a.Settings != b.Settings || a.Token != b.Token {
		return false
	}
	ca, cb := a.Connection, b.Connection
	return ca.InternalURL == cb.InternalURL &&
		ca.ExternalURL == cb.ExternalURL &&
		ca.RemoteUIURL == cb.RemoteUIURL &&
		ca.UseCloud == cb.UseCloud &&
		ca.CanUseCloud == cb.CanUseCloud &&
		ca.AlwaysFallbackToInternalURL == cb.AlwaysFallbackToInternalURL &&
		ca.WebhookID == cb.WebhookID &&
		slices.Equal(ca.InternalSSIDs, cb.InternalSSIDs) &&
		slices.Equal(ca.InternalHardwareAddresses, cb.InternalHardwareAddresses) &&
		maps.Equal(ca.HTTPAdditionalHeaders, cb.HTTPAdditionalHeaders)
}
