package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the ClickHouse HTTP interface port.
const DefaultPort = 8123

// Connection describes how to reach a ClickHouse cluster.
//
// It is usually loaded from a YAML file:
//
//	host: clickhouse.internal
//	port: 8123
//	username: ingest
//	password: secret
//	database: analytics
//	compression: true
//	dial_timeout: 5s
//	settings:
//	  max_execution_time: 60
type Connection struct {
	// Host is resolved to every replica address unless Hosts is set.
	Host string `yaml:"host"`

	// Hosts lists replicas explicitly as "host:port".
	Hosts []string `yaml:"hosts"`

	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	Compression bool `yaml:"compression"`

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// Timeout bounds a whole query, including async CSV uploads.
	Timeout time.Duration `yaml:"timeout"`

	// HealthTimeout is the shared replica probe timeout.
	HealthTimeout time.Duration `yaml:"health_timeout"`

	// Settings are server settings sent with every query.
	Settings map[string]any `yaml:"settings"`
}

// ErrNoHost indicates a connection with neither host nor hosts.
var ErrNoHost = errors.New("chorus/settings: host or hosts must be set")

// Load reads a Connection from a YAML file and applies defaults.
//
// Parameters:
//   - path: YAML file path
//
// Returns:
//   - *Connection: The parsed connection
//   - error: Error if the file can't be read, parsed or validated
func Load(path string) (*Connection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a Connection from YAML and applies defaults.
func Parse(data []byte) (*Connection, error) {
	var conn Connection
	if err := yaml.Unmarshal(data, &conn); err != nil {
		return nil, fmt.Errorf("failed to parse connection file: %w", err)
	}

	conn.SetDefaults()
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	return &conn, nil
}

// SetDefaults fills unset fields.
func (c *Connection) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Username == "" {
		c.Username = "default"
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = 2 * time.Second
	}
}

// Validate checks that the connection can address at least one replica.
func (c *Connection) Validate() error {
	if c.Host == "" && len(c.Hosts) == 0 {
		return ErrNoHost
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("chorus/settings: invalid port %d", c.Port)
	}

	return nil
}

// NewSettings returns session Settings initialised from the connection.
func (c *Connection) NewSettings() *Settings {
	s := New(c.Database)
	s.EnableCompression(c.Compression)
	s.Apply(c.Settings)

	return s
}
