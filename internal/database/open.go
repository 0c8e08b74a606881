package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Open dials the backend selected by the scheme of uri.
func Open(ctx context.Context, uri string) (Handle, error) {
	uri = strings.TrimSpace(uri)
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("%w: missing scheme", ErrUnsupportedScheme)
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		m, err := OpenMongo(ctx, uri)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "ws", "wss", "http", "https":
		cfg, err := ParseSurrealURI(uri)
		if err != nil {
			return nil, err
		}
		s := NewSurrealDB(cfg)
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		db, err := OpenSQLite(ctx, uri)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedScheme, scheme)
	}
}

// ParseSurrealURI reads user:pass@host:port/namespace/database.
func ParseSurrealURI(uri string) (Config, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Config{}, fmt.Errorf("%w: expected /<namespace>/<database> in the path", ErrConnection)
	}

	cfg := Config{
		Scheme:    u.Scheme,
		Host:      u.Hostname(),
		Port:      u.Port(),
		Namespace: parts[0],
		Database:  parts[1],
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}

// Redact hides the password of a connection string for logging.
func Redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		if scheme, rest, ok := strings.Cut(uri, "://"); ok && strings.Contains(rest, "@") {
			return scheme + "://<redacted>"
		}
		return uri
	}
	if u.User == nil {
		return uri
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func isConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}
