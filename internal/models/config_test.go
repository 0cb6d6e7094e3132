package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		HTTP:  HTTPConfig{Timeout: 30 * time.Second, Retries: 3},
		Rules: RulesConfig{Source: DefaultRulesSource},
		Resolvers: ResolversConfig{
			AMP:      ResolverConfig{Enabled: true, Endpoint: DefaultAMPEndpoint, Timeout: 10 * time.Second},
			Redirect: ResolverConfig{Endpoint: DefaultRedirectEndpoint},
		},
		Bot: BotConfig{APIBase: DefaultAPIBase, Interval: time.Minute, Spacing: time.Second},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing rule source",
			mutate:  func(c *Config) { c.Rules.Source = "" },
			wantErr: "Config.Rules.Source",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.HTTP.Retries = -1 },
			wantErr: "Config.HTTP.Retries",
		},
		{
			name:    "too many retries",
			mutate:  func(c *Config) { c.HTTP.Retries = 11 },
			wantErr: "lte",
		},
		{
			name:    "endpoint is not a url",
			mutate:  func(c *Config) { c.Resolvers.AMP.Endpoint = "not a url" },
			wantErr: "Config.Resolvers.AMP.Endpoint",
		},
		{
			name: "disabled resolver may omit endpoint",
			mutate: func(c *Config) {
				c.Resolvers.Redirect.Endpoint = ""
			},
		},
		{
			name: "enabled resolver needs endpoint",
			mutate: func(c *Config) {
				c.Resolvers.Redirect.Enabled = true
				c.Resolvers.Redirect.Endpoint = ""
			},
			wantErr: "resolvers.redirect is enabled without an endpoint",
		},
		{
			name:    "negative spacing",
			mutate:  func(c *Config) { c.Bot.Spacing = -time.Second },
			wantErr: "Config.Bot.Spacing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
