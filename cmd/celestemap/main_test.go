package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frqstbite/celestemap"
)

func TestPackageName(t *testing.T) {
	assert.Equal(t, "1-ForsakenCity", packageName("/maps/1-ForsakenCity.bin"))
	assert.Equal(t, "plain", packageName("plain"))
}

func TestImportRoundtrip(t *testing.T) {
	dir := t.TempDir()
	root := celestemap.NewElement("Map")
	root.SetAttr("w", celestemap.ShortValue(320))
	snap, err := celestemap.EncodeSnapshot(celestemap.NewMap("", root), celestemap.CBOR)
	require.NoError(t, err)
	snapPath := filepath.Join(dir, "snap.cbor")
	require.NoError(t, os.WriteFile(snapPath, snap, 0666))

	out := filepath.Join(dir, "2-OldSite.bin")
	require.NoError(t, cmdImport([]string{"-format", "cbor", snapPath, out}))
	require.NoError(t, cmdRoundtrip([]string{out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	m, err := celestemap.Decode(data, celestemap.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2-OldSite", m.Package)

	assert.Error(t, cmdRoundtrip([]string{filepath.Join(dir, "missing.bin")}))
	assert.Error(t, cmdImport([]string{"-format", "xml", snapPath, out}))
}
