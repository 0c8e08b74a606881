package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiplsaur/APIMongoDB/internal/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashPassword_FromArgument(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashPassword_FromStdin(t *testing.T) {
	out, err := run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := run(t, "\n", "hash-password")
	assert.Error(t, err)
}

func TestServe_InvalidConfigAborts(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.yaml"
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 99999\n"), 0o600))

	_, err := run(t, "", "serve", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestServe_MissingConfigFile(t *testing.T) {
	_, err := run(t, "", "--config", t.TempDir()+"/absent.yaml")
	assert.Error(t, err)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Level: "info", Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "info", Format: "json"}).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"}).Info("hidden")
	assert.Empty(t, buf.String())
}
