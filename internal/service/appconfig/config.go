package appconfig

import (
	"fmt"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

// ChannelConfig is one provider credential entry of the payment app
// configuration.
type ChannelConfig struct {
	ConfigurationID   string `json:"configurationId"`
	ConfigurationName string `json:"configurationName"`
	APIURL            string `json:"apiUrl"`
	Username          string `json:"username"`
	Password          string `json:"password"`
}

// Validate checks the entry against the fully-configured schema: an entry
// missing any credential field must never reach the provider client.
func (c *ChannelConfig) Validate() error {
	missing := make([]string, 0, 3)
	if c.APIURL == "" {
		missing = append(missing, "apiUrl")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", errors.ErrConfigurationInvalid, missing)
	}
	return nil
}

// AppConfig is the payment app configuration: credential entries plus the
// channel-to-entry mapping.
type AppConfig struct {
	Configurations           []ChannelConfig   `json:"configurations"`
	ChannelToConfigurationID map[string]string `json:"channelToConfigurationId"`
}

// GetConfigurationForChannel resolves the credential entry mapped to a sales
// channel and validates it against the fully-configured schema.
func GetConfigurationForChannel(appConfig *AppConfig, channelID string) (*ChannelConfig, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("%w: no app configuration loaded", errors.ErrConfigurationMissing)
	}
	configurationID, ok := appConfig.ChannelToConfigurationID[channelID]
	if !ok {
		return nil, fmt.Errorf("%w: channel %q has no configuration mapped", errors.ErrConfigurationMissing, channelID)
	}
	for i := range appConfig.Configurations {
		entry := &appConfig.Configurations[i]
		if entry.ConfigurationID == configurationID {
			if err := entry.Validate(); err != nil {
				return nil, err
			}
			cfg := *entry
			return &cfg, nil
		}
	}
	return nil, fmt.Errorf("%w: configuration %q not found", errors.ErrConfigurationMissing, configurationID)
}
