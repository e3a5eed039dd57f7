package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const defaultWarehousePort = 5439

// ErrMissingSalt is returned when ANON_SALT is not set.
var ErrMissingSalt = errors.New("missing ANON_SALT in environment")

type Config struct {
	Warehouse Warehouse
	Anon      Anon
}

// Warehouse holds the Redshift connection parameters. Nothing here is required at
// load time; missing values surface when a connection is attempted.
type Warehouse struct {
	Host     string `envconfig:"REDSHIFT_HOST"`
	Port     string `envconfig:"REDSHIFT_PORT"`
	Name     string `envconfig:"REDSHIFT_DB"`
	User     string `envconfig:"REDSHIFT_USER"`
	Password string `envconfig:"REDSHIFT_PASSWORD"`
	SSLMode  string `envconfig:"REDSHIFT_SSLMODE" default:"require"`
}

type Anon struct {
	Salt string `envconfig:"ANON_SALT"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// PortNumber parses REDSHIFT_PORT. Surrounding whitespace and quote characters are
// stripped first, and a blank value falls back to 5439.
func (w Warehouse) PortNumber() (int, error) {
	raw := strings.Trim(strings.TrimSpace(w.Port), `"'`)
	if raw == "" {
		return defaultWarehousePort, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("REDSHIFT_PORT must be an integer, got %q", raw)
	}

	return port, nil
}

// Validate reports which connection variables are unset.
func (w Warehouse) Validate() error {
	var missing []string

	if w.Host == "" {
		missing = append(missing, "REDSHIFT_HOST")
	}

	if w.Name == "" {
		missing = append(missing, "REDSHIFT_DB")
	}

	if w.User == "" {
		missing = append(missing, "REDSHIFT_USER")
	}

	if w.Password == "" {
		missing = append(missing, "REDSHIFT_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing warehouse settings: %s", strings.Join(missing, ", "))
	}

	return nil
}

func (w Warehouse) ConnectionString() (string, error) {
	port, err := w.PortNumber()
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(w.User, w.Password),
		Host:   fmt.Sprintf("%s:%d", w.Host, port),
		Path:   "/" + w.Name,
	}

	if w.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {w.SSLMode}}.Encode()
	}

	return u.String(), nil
}

// RequireSalt returns the anonymization salt or ErrMissingSalt.
func (a Anon) RequireSalt() (string, error) {
	if strings.TrimSpace(a.Salt) == "" {
		return "", ErrMissingSalt
	}

	return a.Salt, nil
}
