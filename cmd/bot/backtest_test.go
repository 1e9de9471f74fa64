package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2024"), 0o755))
	for _, name := range []string{"eurusd.csv", "2024/GBPUSD.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("time,open,high,low,close\n"), 0o644))
	}

	single, err := resolveData(filepath.Join(dir, "eurusd.csv"), "USDJPY")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "USDJPY", single[0].symbol, "a single file keeps --symbol")

	many, err := resolveData(filepath.Join(dir, "**", "*.csv"), "USDJPY")
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "GBPUSD", many[0].symbol)
	assert.Equal(t, "EURUSD", many[1].symbol)

	_, err = resolveData(filepath.Join(dir, "*.parquet"), "EURUSD")
	assert.Error(t, err)
}
