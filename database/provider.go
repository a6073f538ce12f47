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
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// Provider binds an invariant provider name to a database/sql driver, the
// bun dialect used to map rows, and a DSN builder for structured settings.
type Provider struct {
	Name       string
	DriverName string
	Dialect    func() schema.Dialect
	DSN        func(c *ConnectionConfiguration) string
}

var (
	providersMu sync.RWMutex
	providers   = map[string]Provider{}
)

func init() {
	RegisterProvider(Provider{
		Name:       "mysql",
		DriverName: "mysql",
		Dialect:    func() schema.Dialect { return mysqldialect.New() },
		DSN:        mysqlDSN,
	})
	RegisterProvider(Provider{
		Name:       "postgres",
		DriverName: "postgres",
		Dialect:    func() schema.Dialect { return pgdialect.New() },
		DSN:        postgresDSN,
	}, "postgresql")
	RegisterProvider(Provider{
		Name:       "pgx",
		DriverName: "pgx",
		Dialect:    func() schema.Dialect { return pgdialect.New() },
		DSN:        postgresDSN,
	})
	RegisterProvider(Provider{
		Name:       "sqlite",
		DriverName: sqliteshim.ShimName,
		Dialect:    func() schema.Dialect { return sqlitedialect.New() },
		DSN:        sqliteDSN,
	}, "sqlite3")
}

// RegisterProvider makes a provider available under its name and aliases.
// Registering an existing name replaces it.
func RegisterProvider(p Provider, aliases ...string) {
	providersMu.Lock()
	defer providersMu.Unlock()
	for _, name := range append([]string{p.Name}, aliases...) {
		providers[strings.ToLower(name)] = p
	}
}

// LookupProvider returns the provider registered under name.
func LookupProvider(name string) (Provider, error) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q, registered providers: %v", ErrUnknownProvider, name, providerNamesLocked())
	}
	return p, nil
}

func providerNamesLocked() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataSourceName returns the connection string of c, building one with the
// provider when none is configured.
func (p Provider) DataSourceName(c *ConnectionConfiguration) string {
	if c.ConnectionString != "" || p.DSN == nil {
		return c.ConnectionString
	}
	return p.DSN(c)
}

func mysqlDSN(c *ConnectionConfiguration) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.ConnectTimeout,
		c.ReadTimeout,
		c.WriteTimeout,
	)
}

func postgresDSN(c *ConnectionConfiguration) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		sslMode,
		int(c.ConnectTimeout.Seconds()),
	)
}

func sqliteDSN(c *ConnectionConfiguration) string {
	if c.DBName == "" {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("%s.db", c.DBName)
}
