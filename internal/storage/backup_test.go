package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

func TestDB_Backup(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateDeck(ctx, newDeck("deck-1"), []*models.DeckCard{
		{CardName: "Sangen Kaimen", Area: "MAIN", Quantity: 3},
	}))

	dir := filepath.Join(t.TempDir(), "backups")
	info, err := svc.DB().Backup(ctx, dir)
	require.NoError(t, err)
	assert.FileExists(t, info.Path)
	assert.Positive(t, info.Size)
	assert.Len(t, info.Checksum, 64)

	backups, err := svc.DB().ListBackups(dir)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Name, backups[0].Name)

	restored, err := Open(&Config{Path: info.Path, MaxOpenConns: 1, MaxIdleConns: 1, BusyTimeout: DefaultConfig("").BusyTimeout, JournalMode: "WAL", Synchronous: "NORMAL"})
	require.NoError(t, err)
	defer func() { _ = restored.Close() }()

	deck, err := NewService(restored).Decks().GetByID(ctx, "deck-1")
	require.NoError(t, err)
	require.NotNil(t, deck)
	assert.Equal(t, "Tenpai Dragon", deck.Name)
}

func TestDB_ListBackupsMissingDir(t *testing.T) {
	svc := setupTestService(t)
	backups, err := svc.DB().ListBackups(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestVerifyBackup_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Error(t, VerifyBackup(context.Background(), path))
}

func TestDB_BackupDir(t *testing.T) {
	svc := setupTestService(t)
	assert.Equal(t, filepath.Join(filepath.Dir(svc.DB().Path()), "backups"), svc.DB().BackupDir())
}
