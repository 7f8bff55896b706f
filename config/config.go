// Package config reads the service settings from an optional yaml file
// and CONSENT_* environment variables.
package config

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bitmark-inc/consent-api/pipeline"
)

const envPrefix = "consent"

type Server struct {
	Addr         string   `mapstructure:"addr"`
	Trace        bool     `mapstructure:"trace"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Supabase struct {
	URL    string `mapstructure:"url"`
	Key    string `mapstructure:"key"`
	Bucket string `mapstructure:"bucket"`
}

type ConsentAPI struct {
	Endpoint string `mapstructure:"endpoint"`
}

type GHL struct {
	Endpoint   string `mapstructure:"endpoint"`
	Token      string `mapstructure:"token"`
	LocationID string `mapstructure:"location_id"`
}

type Config struct {
	LogLevel     string     `mapstructure:"log_level"`
	OrphanPolicy string     `mapstructure:"orphan_policy"`
	Server       Server     `mapstructure:"server"`
	Mongo        Mongo      `mapstructure:"mongo"`
	Supabase     Supabase   `mapstructure:"supabase"`
	ConsentAPI   ConsentAPI `mapstructure:"consent_api"`
	GHL          GHL        `mapstructure:"ghl"`
}

// keys lists every setting so AutomaticEnv can resolve it during Unmarshal
var keys = map[string]interface{}{
	"log_level":            "info",
	"orphan_policy":        "keep",
	"server.addr":          ":8080",
	"server.trace":         false,
	"server.allow_origins": []string{},
	"mongo.uri":            "mongodb://localhost:27017",
	"mongo.database":       "consent",
	"supabase.url":         "",
	"supabase.key":         "",
	"supabase.bucket":      "consent-documents",
	"consent_api.endpoint": "",
	"ghl.endpoint":         "https://services.leadconnectorhq.com",
	"ghl.token":            "",
	"ghl.location_id":      "",
}

// Load builds the configuration. file may be empty, in which case only
// defaults and the environment are used.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, d := range keys {
		v.SetDefault(k, d)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		log.WithField("file", v.ConfigFileUsed()).Info("config file loaded")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	if _, err := c.Orphans(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Orphans returns the parsed orphaned-artifact policy
func (c *Config) Orphans() (pipeline.OrphanPolicy, error) {
	return pipeline.ParseOrphanPolicy(c.OrphanPolicy)
}

// SetupLogger applies the configured level to the standard logrus logger
func (c *Config) SetupLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
