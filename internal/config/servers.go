package config

import (
	"sort"
	"strings"
)

// ServerNames returns the display names of all servers, sorted.
// Shell completion uses it.
func ServerNames(inv Inventory) []string {
	set := make(map[string]struct{})
	for _, s := range inv.Servers {
		k := strings.TrimSpace(s.DisplayName())
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FindServer matches by ID first, then case-insensitively by display name or
// server-reported name.
func FindServer(inv Inventory, key string) (int, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1, false
	}
	for i := range inv.Servers {
		if inv.Servers[i].ID == key {
			return i, true
		}
	}
	for i := range inv.Servers {
		s := inv.Servers[i]
		if strings.EqualFold(strings.TrimSpace(s.DisplayName()), key) || strings.EqualFold(strings.TrimSpace(s.Name), key) {
			return i, true
		}
	}
	return -1, false
}
