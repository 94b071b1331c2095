package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommandSQLite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "claims.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: sqlite\n  dsn: \"file:"+dbPath+"\"\nlogger:\n  level: error\n"), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"schema", "--config", cfgPath})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "schema ready for sqlite")
	assert.FileExists(t, dbPath)
}

func TestSchemaCommandBadConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"schema", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	assert.Error(t, root.Execute())
}

func TestWatchRequiresRedis(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logger:\n  level: error\n"), 0o600))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"watch", "--config", cfgPath})

	assert.ErrorContains(t, root.Execute(), "redis.addr is not configured")
}
