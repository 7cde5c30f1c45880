// Package config loads the registry of named DICOMweb servers
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultTimeout applies to servers that do not set one
const DefaultTimeout = 30 * time.Second

var ErrUnknownServer = errors.New("unknown DICOMweb server")

// Server is one DICOMweb peer. URL is the service root, the path under
// which /studies, /series and /instances live.
type Server struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// Timeout is the HTTP client timeout for the server
func (s Server) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type Config struct {
	Default string            `yaml:"default"`
	Servers map[string]Server `yaml:"servers"`
}

// ReadConfig loads and validates a YAML server registry
func ReadConfig(filePath string) (*Config, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes and validates a YAML server registry
func Parse(raw []byte) (*Config, error) {
	var config Config
	if err := yaml.UnmarshalStrict(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks every server URL and the default name
func (c *Config) Validate() error {
	for _, name := range c.Names() {
		u, err := url.Parse(c.Servers[name].URL)
		if err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server %q: url %q must be absolute http(s)", name, c.Servers[name].URL)
		}
	}
	if c.Default != "" {
		if _, ok := c.Servers[c.Default]; !ok {
			return fmt.Errorf("default %q: %w", c.Default, ErrUnknownServer)
		}
	}
	return nil
}

// Server looks up a server by name. An empty name selects the default, or
// the only server when exactly one is configured.
func (c *Config) Server(name string) (Server, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.Servers) == 1 {
		for _, s := range c.Servers {
			return s, nil
		}
	}
	s, ok := c.Servers[name]
	if !ok {
		return Server{}, fmt.Errorf("%q: %w", name, ErrUnknownServer)
	}
	return s, nil
}

// Names lists the configured servers in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetEnv retrieves an environment variable or returns a default value.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
