package config

import (
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/robfig/config"
)

// DefaultConfigFilePath is the path to the config file when no -config flag
// is given
const DefaultConfigFilePath string = "/etc/itemcache/api.conf"

// APISection is the [api] section of the config file
const APISection string = "api"

// Config file keys
const (
	ListenPort = "listen_port"

	DatabaseDriver   = "database_driver"
	DatabaseHost     = "database_host"
	DatabasePort     = "database_port"
	DatabaseName     = "database_database"
	DatabaseUsername = "database_username"
	DatabasePassword = "database_password"

	MemcachedHost = "memcached_host"
	MemcachedPort = "memcached_port"

	CacheTTLSeconds = "cache_ttl_seconds"

	RetryInitialSeconds = "retry_initial_seconds"
	RetryMaxSeconds     = "retry_max_seconds"
)

// Database drivers understood by DatabaseDriver
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var defaultStrings = map[string]string{
	DatabaseDriver:   DriverPostgres,
	DatabaseHost:     "database",
	DatabaseName:     "itemcache",
	DatabaseUsername: "itemcache",
	DatabasePassword: "",
	MemcachedHost:    "cache",
}

var defaultInt64s = map[string]int64{
	ListenPort:          5000,
	DatabasePort:        5432,
	MemcachedPort:       11211,
	CacheTTLSeconds:     300,
	RetryInitialSeconds: 5,
	RetryMaxSeconds:     60,
}

// Config holds the values read from the config file. It is read once by main
// and handed to whatever needs it.
type Config struct {
	Strings map[string]string
	Int64s  map[string]int64
}

// String returns the string value for key
func (c *Config) String(key string) string {
	return c.Strings[key]
}

// Int64 returns the int64 value for key
func (c *Config) Int64(key string) int64 {
	return c.Int64s[key]
}

// Seconds returns the int64 value for key as a duration in seconds
func (c *Config) Seconds(key string) time.Duration {
	return time.Duration(c.Int64s[key]) * time.Second
}

// Default returns a Config holding only the default values
func Default() *Config {
	c := &Config{
		Strings: map[string]string{},
		Int64s:  map[string]int64{},
	}
	for k, v := range defaultStrings {
		c.Strings[k] = v
	}
	for k, v := range defaultInt64s {
		c.Int64s[k] = v
	}
	return c
}

// Load reads the [api] section of the config file at path over the defaults.
// A missing file is not an error, the defaults are used as they are. A value
// that is present but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	c := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		glog.Warningf("Config file %s not found, using defaults", path)
		return c, nil
	}

	f, err := config.ReadDefault(path)
	if err != nil {
		return nil, err
	}

	for key := range defaultStrings {
		if !f.HasOption(APISection, key) {
			continue
		}
		s, err := f.String(APISection, key)
		if err != nil {
			return nil, err
		}
		c.Strings[key] = s
	}

	for key := range defaultInt64s {
		if !f.HasOption(APISection, key) {
			continue
		}
		i, err := f.Int(APISection, key)
		if err != nil {
			return nil, err
		}
		c.Int64s[key] = int64(i)
	}

	return c, nil
}
