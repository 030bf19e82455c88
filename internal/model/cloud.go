package model

import "strings"

// CloudConfig addresses one remote document. A config missing either the
// bin id or the key means cloud sync is disabled.
type CloudConfig struct {
	BinID    string `json:"binId"`
	APIKey   string `json:"apiKey"`
	AutoSync bool   `json:"autoSync"`
}

func (c CloudConfig) Enabled() bool {
	return strings.TrimSpace(c.BinID) != "" && strings.TrimSpace(c.APIKey) != ""
}

func (c CloudConfig) Normalized() CloudConfig {
	c.BinID = strings.TrimSpace(c.BinID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	if !c.Enabled() {
		return CloudConfig{}
	}
	return c
}

// MaskedKey keeps the last four characters for display.
func (c CloudConfig) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
