package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfig(t *testing.T) {
	isolate(t)

	backupPath, err := BackupUserConfig()

	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupUserConfig_CopiesContent(t *testing.T) {
	// Given: an existing user config
	xdg := isolate(t)
	writeUserConfig(t, xdg, "fulltext:\n  backend: bleve\n")

	// When: backing it up
	backupPath, err := BackupUserConfig()

	// Then: the backup holds the same bytes
	require.NoError(t, err)
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "fulltext:\n  backend: bleve\n", string(data))
}

func TestBackupUserConfig_KeepsNewestBackups(t *testing.T) {
	// Given: more backups than MaxBackups
	xdg := isolate(t)
	writeUserConfig(t, xdg, "version: 1\n")

	var last string
	for i := 0; i < MaxBackups+2; i++ {
		p, err := BackupUserConfig()
		require.NoError(t, err)
		last = p
		time.Sleep(5 * time.Millisecond)
	}

	// When: listing backups
	backups, err := ListUserConfigBackups()

	// Then: only MaxBackups remain, newest first
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
}
