package database

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Config describes the PostgreSQL pool. URL, when set, replaces the discrete
// connection fields.
type Config struct {
	URL             string `toml:"url"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	ApplicationName string `toml:"application_name"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`

	// ConnectAttempts bounds the startup ping. Attempts are spaced by a
	// doubling delay starting at one second.
	ConnectAttempts int `toml:"connect_attempts"`
}

// Env names the environment variables read by Finalize.
type Env struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
	ConnectAttempts string
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn renders the connection string handed to the pgx driver. The
// application name is added to a URL that does not already carry one so
// sessions are identifiable in pg_stat_activity.
func (c *Config) Dsn() string {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil || c.ApplicationName == "" {
			return c.URL
		}
		q := u.Query()
		if q.Get("application_name") == "" {
			q.Set("application_name", c.ApplicationName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}

	pairs := []struct{ key, value string }{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"dbname", c.Name},
		{"user", c.User},
		{"password", c.Password},
		{"sslmode", c.SSLMode},
	}
	if c.ApplicationName != "" {
		pairs = append(pairs, struct{ key, value string }{"application_name", c.ApplicationName})
	}

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + quote(p.value)
	}
	return strings.Join(parts, " ")
}

// Finalize fills defaults, reads env overrides and validates, including a
// parse of the resulting DSN.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range map[*string]string{
		&c.URL:             overlay.URL,
		&c.Host:            overlay.Host,
		&c.Name:            overlay.Name,
		&c.User:            overlay.User,
		&c.Password:        overlay.Password,
		&c.SSLMode:         overlay.SSLMode,
		&c.ApplicationName: overlay.ApplicationName,
		&c.ConnMaxLifetime: overlay.ConnMaxLifetime,
		&c.ConnTimeout:     overlay.ConnTimeout,
	} {
		if src != "" {
			*dst = src
		}
	}
	for dst, src := range map[*int]int{
		&c.Port:            overlay.Port,
		&c.MaxOpenConns:    overlay.MaxOpenConns,
		&c.MaxIdleConns:    overlay.MaxIdleConns,
		&c.ConnectAttempts: overlay.ConnectAttempts,
	} {
		if src != 0 {
			*dst = src
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "docpipe"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "15m"
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "5s"
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
}

func (c *Config) loadEnv(env *Env) {
	strs := map[string]*string{
		env.URL:             &c.URL,
		env.Host:            &c.Host,
		env.Name:            &c.Name,
		env.User:            &c.User,
		env.Password:        &c.Password,
		env.SSLMode:         &c.SSLMode,
		env.ApplicationName: &c.ApplicationName,
		env.ConnMaxLifetime: &c.ConnMaxLifetime,
		env.ConnTimeout:     &c.ConnTimeout,
	}
	for name, field := range strs {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		env.Port:            &c.Port,
		env.MaxOpenConns:    &c.MaxOpenConns,
		env.MaxIdleConns:    &c.MaxIdleConns,
		env.ConnectAttempts: &c.ConnectAttempts,
	}
	for name, field := range ints {
		if name == "" {
			continue
		}
		if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
			*field = n
		}
	}
}

func (c *Config) validate() error {
	if c.URL == "" {
		if c.Name == "" {
			return fmt.Errorf("name required")
		}
		if c.User == "" {
			return fmt.Errorf("user required")
		}
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("connect_attempts must be positive")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot exceed max_open_conns")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	if _, err := pgx.ParseConfig(c.Dsn()); err != nil {
		return fmt.Errorf("invalid connection settings: %w", err)
	}
	return nil
}

// quote wraps a keyword/value DSN value in single quotes when it is empty or
// contains characters the parser would otherwise split on.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}
