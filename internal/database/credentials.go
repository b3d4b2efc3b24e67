package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	defaultPort = "5432"

	// credentialsKey holds a JSON-encoded Bundle inside a secret.
	credentialsKey = "credentials"
)

// Bundle is the set of values needed to open a database connection.
type Bundle struct {
	Host     string `json:"host"`
	Port     string `json:"port,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode,omitempty"`
}

// DevelopmentBundle is the fixed bundle used outside production, matching a local
// `postgres` container started with POSTGRES_USER=testuser POSTGRES_DB=todolist.
var DevelopmentBundle = Bundle{
	Host:     "localhost",
	Username: "testuser",
	Password: "testuser",
	DBName:   "todolist",
}

// ConnString renders the bundle as a postgres:// URL.
func (b Bundle) ConnString() string {
	port := b.Port
	if port == "" {
		port = defaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(b.Username, b.Password),
		Host:   net.JoinHostPort(b.Host, port),
		Path:   "/" + b.DBName,
	}
	if b.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {b.SSLMode}}.Encode()
	}
	return u.String()
}

// Validate checks that the fields needed to connect are present.
func (b Bundle) Validate() error {
	var missing []string
	if b.Host == "" {
		missing = append(missing, "host")
	}
	if b.Username == "" {
		missing = append(missing, "username")
	}
	if b.DBName == "" {
		missing = append(missing, "dbname")
	}
	if len(missing) > 0 {
		return fmt.Errorf("credential bundle is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseURL builds a Bundle from a postgres:// connection URL.
func ParseURL(raw string) (Bundle, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Bundle{}, fmt.Errorf("parsing database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Bundle{}, fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}

	b := Bundle{
		Host:    u.Hostname(),
		Port:    u.Port(),
		DBName:  strings.TrimPrefix(u.Path, "/"),
		SSLMode: u.Query().Get("sslmode"),
	}
	if u.User != nil {
		b.Username = u.User.Username()
		b.Password, _ = u.User.Password()
	}

	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// CredentialSource resolves the bundle the pool is built from.
type CredentialSource interface {
	Resolve(ctx context.Context) (Bundle, error)
}

// StaticSource returns a fixed bundle.
type StaticSource struct {
	Bundle Bundle
}

// Resolve returns the configured bundle.
func (s StaticSource) Resolve(_ context.Context) (Bundle, error) {
	return s.Bundle, nil
}

// HostOverride replaces the host of another source's bundle, e.g. to route
// through a connection pooler instead of the host stored in the secret.
type HostOverride struct {
	Source CredentialSource
	Host   string
}

// Resolve returns the wrapped source's bundle with Host replaced.
func (o HostOverride) Resolve(ctx context.Context) (Bundle, error) {
	b, err := o.Source.Resolve(ctx)
	if err != nil {
		return Bundle{}, err
	}
	b.Host = o.Host
	return b, nil
}

// SecretGetter reads secret data by namespace and name.
type SecretGetter interface {
	GetSecret(ctx context.Context, namespace, name string) (map[string][]byte, error)
}

// SecretSource resolves the bundle from an external secret store.
type SecretSource struct {
	getter    SecretGetter
	namespace string
	name      string
}

// NewSecretSource creates a SecretSource for a "namespace/name" identifier.
func NewSecretSource(getter SecretGetter, secretID string) (*SecretSource, error) {
	namespace, name, ok := strings.Cut(secretID, "/")
	if !ok || namespace == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("secret id %q must have the form namespace/name", secretID)
	}
	return &SecretSource{getter: getter, namespace: namespace, name: name}, nil
}

// Resolve fetches the secret and decodes the bundle from it.
func (s *SecretSource) Resolve(ctx context.Context) (Bundle, error) {
	data, err := s.getter.GetSecret(ctx, s.namespace, s.name)
	if err != nil {
		return Bundle{}, fmt.Errorf("fetching secret %s/%s: %w", s.namespace, s.name, err)
	}

	b, err := BundleFromSecret(data)
	if err != nil {
		return Bundle{}, fmt.Errorf("decoding secret %s/%s: %w", s.namespace, s.name, err)
	}
	return b, nil
}

// BundleFromSecret decodes a bundle from secret data. A JSON document under the
// "credentials" key wins; otherwise the host, port, username, password and dbname
// keys are read individually, the layout of a CloudNativePG application secret.
func BundleFromSecret(data map[string][]byte) (Bundle, error) {
	if len(data) == 0 {
		return Bundle{}, errors.New("secret has no data")
	}

	var b Bundle
	if raw, ok := data[credentialsKey]; ok {
		if err := json.Unmarshal(raw, &b); err != nil {
			return Bundle{}, fmt.Errorf("unmarshalling %s: %w", credentialsKey, err)
		}
	} else {
		b = Bundle{
			Host:     string(data["host"]),
			Port:     string(data["port"]),
			Username: string(data["username"]),
			Password: string(data["password"]),
			DBName:   string(data["dbname"]),
		}
	}

	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
