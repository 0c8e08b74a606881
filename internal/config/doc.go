// Package config manages application configuration for the admin API.
//
// # Configuration Loading
//
// Configuration is layered with koanf, lowest precedence first:
//
//  1. built-in defaults (Defaults)
//  2. a YAML file: --config, else ./apimongodb.yaml when present
//  3. environment variables prefixed APIMONGO_
//  4. CLI flags that were explicitly set
//
//	cfg, err := config.Load(cfgFile, cmd.Flags())
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Environment Variables
//
// The first underscore after the prefix separates the section:
//
//	APIMONGO_SERVER_PORT=9090             server.port
//	APIMONGO_SERVER_ALLOWED_ORIGINS=a,b   server.allowed_origins
//	APIMONGO_DATABASE_URI=mongodb://...   database.uri
//	APIMONGO_AUTH_PASSWORD_HASH=$2a$...   auth.password_hash
//
// # Validation
//
// Validate reports every problem at once, joined with errors.Join.
package config
