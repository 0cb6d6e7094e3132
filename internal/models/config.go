package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the main configuration
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Resolvers ResolversConfig `mapstructure:"resolvers"`
	Bot       BotConfig       `mapstructure:"bot"`
	Log       LogConfig       `mapstructure:"log"`
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retries   int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RulesConfig points at the provider rule document
type RulesConfig struct {
	Source          string `mapstructure:"source" validate:"required"`
	CaseInsensitive bool   `mapstructure:"case_insensitive"`
}

// ResolversConfig groups the canonicalization pre-passes
type ResolversConfig struct {
	AMP      ResolverConfig `mapstructure:"amp"`
	Redirect ResolverConfig `mapstructure:"redirect"`
}

// ResolverConfig configures a single external resolver
type ResolverConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// BotConfig contains settings for the comment bot
type BotConfig struct {
	APIBase  string        `mapstructure:"api_base" validate:"omitempty,url"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
	Spacing  time.Duration `mapstructure:"spacing" validate:"gte=0"`
	Mention  string        `mapstructure:"mention"`
	Cookies  string        `mapstructure:"cookies"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

// Default values shared by the CLI and the packages that fall back on them
const (
	DefaultRulesSource      = "https://gitlab.com/ClearURLs/rules/-/raw/master/data.min.json"
	DefaultAMPEndpoint      = "https://www.amputatorbot.com/api/v1/convert"
	DefaultRedirectEndpoint = "https://redirector.pluoi.workers.dev"
	DefaultAPIBase          = "https://pr0gramm.com/api"
	DefaultUserAgent        = "Linkers URL Cleaner Bot"
	DefaultMention          = "@linkers"
)

var validate = validator.New()

// Validate checks field constraints after unmarshalling
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Resolvers.AMP.Enabled && c.Resolvers.AMP.Endpoint == "" {
		return fmt.Errorf("invalid config: resolvers.amp is enabled without an endpoint")
	}
	if c.Resolvers.Redirect.Enabled && c.Resolvers.Redirect.Endpoint == "" {
		return fmt.Errorf("invalid config: resolvers.redirect is enabled without an endpoint")
	}
	return nil
}
