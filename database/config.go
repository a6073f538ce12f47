/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/routinedb/naming"
)

// HealthStatus holds the result of a health check against one connection key.
type HealthStatus struct {
	Key           string        `json:"key" yaml:"key"`
	Healthy       bool          `json:"healthy" yaml:"healthy"`
	ResponseTime  time.Duration `json:"response_time" yaml:"response_time"`
	ActiveConns   int           `json:"active_conns" yaml:"active_conns"`
	IdleConns     int           `json:"idle_conns" yaml:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns" yaml:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time" yaml:"last_check_time"`
}

// DBStats mirrors database/sql pool statistics of one connection key.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfiguration describes one keyed connection. Provider is the
// invariant name of a registered provider ("postgres", "pgx", "mysql",
// "sqlite"). When ConnectionString is empty a DSN is built by the provider
// from the structured fields.
type ConnectionConfiguration struct {
	Key              string `json:"key" yaml:"key"`
	Provider         string `json:"provider" yaml:"provider"`
	ConnectionString string `json:"connection_string" yaml:"connection_string"`

	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbname" yaml:"dbname"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`

	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`

	EnableCommandLog bool          `json:"enable_command_log" yaml:"enable_command_log"`
	SlowCommandTime  time.Duration `json:"slow_command_time" yaml:"slow_command_time"`
}

// DefaultConnectionConfiguration returns a configuration with pool defaults.
func DefaultConnectionConfiguration() ConnectionConfiguration {
	return ConnectionConfiguration{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		SlowCommandTime: time.Second * 2,
	}
}

// withDefaults fills zero pool settings from DefaultConnectionConfiguration.
func (c ConnectionConfiguration) withDefaults() ConnectionConfiguration {
	d := DefaultConnectionConfiguration()
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = d.MaxIdleConns
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = d.MaxOpenConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = d.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = d.ConnMaxIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	return c
}

// Config is the connection section of a configuration file.
type Config struct {
	Connections []ConnectionConfiguration `json:"connections" yaml:"connections"`
}

// ParseConfig decodes YAML connection configuration and applies environment
// overrides to every connection.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse connection configuration: %w", err)
	}
	for i := range cfg.Connections {
		if err := cfg.Connections[i].ApplyEnv(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadConfig reads a YAML connection configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

type connectionEnv struct {
	Provider         string        `envconfig:"PROVIDER"`
	ConnectionString string        `envconfig:"CONNECTION_STRING"`
	Host             string        `envconfig:"HOST"`
	Port             int           `envconfig:"PORT"`
	Username         string        `envconfig:"USERNAME"`
	Password         string        `envconfig:"PASSWORD"`
	DBName           string        `envconfig:"NAME"`
	SSLMode          string        `envconfig:"SSLMODE"`
	MaxIdleConns     int           `envconfig:"MAX_IDLE_CONNS"`
	MaxOpenConns     int           `envconfig:"MAX_OPEN_CONNS"`
	ConnMaxLifetime  time.Duration `envconfig:"CONN_MAX_LIFETIME"`
}

// EnvPrefix returns the environment prefix of the connection: DB for the
// unnamed key, otherwise DB_ followed by the key in UPPER_SNAKE_CASE.
func (c *ConnectionConfiguration) EnvPrefix() string {
	if c.Key == "" {
		return "DB"
	}
	return "DB_" + naming.Apply(c.Key, naming.UpperSnakeCase)
}

// ApplyEnv overrides sensitive and deployment-specific values from the
// environment, e.g. DB_MAIN_HOST or DB_MAIN_PASSWORD for key "main".
func (c *ConnectionConfiguration) ApplyEnv() error {
	var env connectionEnv
	if err := envconfig.Process(c.EnvPrefix(), &env); err != nil {
		return fmt.Errorf("connection %q: %w", c.Key, err)
	}
	if env.Provider != "" {
		c.Provider = env.Provider
	}
	if env.ConnectionString != "" {
		c.ConnectionString = env.ConnectionString
	}
	if env.Host != "" {
		c.Host = env.Host
	}
	if env.Port != 0 {
		c.Port = env.Port
	}
	if env.Username != "" {
		c.Username = env.Username
	}
	if env.Password != "" {
		c.Password = env.Password
	}
	if env.DBName != "" {
		c.DBName = env.DBName
	}
	if env.SSLMode != "" {
		c.SSLMode = env.SSLMode
	}
	if env.MaxIdleConns != 0 {
		c.MaxIdleConns = env.MaxIdleConns
	}
	if env.MaxOpenConns != 0 {
		c.MaxOpenConns = env.MaxOpenConns
	}
	if env.ConnMaxLifetime != 0 {
		c.ConnMaxLifetime = env.ConnMaxLifetime
	}
	return nil
}
