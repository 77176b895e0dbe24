package service

import (
	"context"
	"testing"
	"time"

	"ledger/config"

	"github.com/stretchr/testify/assert"
)

func TestBackupService_ObjectName(t *testing.T) {
	s := NewBackupService(&config.BackupConfig{Prefix: "ledger-backups"})
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "ledger-backups/backup-20240115-093000.json", s.objectName(now))

	s = NewBackupService(&config.BackupConfig{Prefix: "/ledger-backups/"})
	assert.Equal(t, "ledger-backups/backup-20240115-093000.json", s.objectName(now))

	s = NewBackupService(&config.BackupConfig{})
	assert.Equal(t, "backup-20240115-093000.json", s.objectName(now))
}

func TestBackupService_ValidateName(t *testing.T) {
	s := NewBackupService(&config.BackupConfig{Prefix: "ledger-backups"})

	assert.NoError(t, s.validateName("ledger-backups/backup-20240115-093000.json"))
	// 前缀之外的对象不允许访问
	assert.ErrorIs(t, s.validateName("other/backup.json"), ErrInvalidBackupName)
	// 路径穿越
	assert.ErrorIs(t, s.validateName("ledger-backups/../secret.json"), ErrInvalidBackupName)
	// 非 JSON 对象
	assert.ErrorIs(t, s.validateName("ledger-backups/backup.tar"), ErrInvalidBackupName)
}

func TestBackupService_DisabledReturnsError(t *testing.T) {
	s := NewBackupService(&config.BackupConfig{Enabled: false})
	ctx := context.Background()

	_, err := s.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrBackupDisabled)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, ErrBackupDisabled)
	_, err = s.Download(ctx, "x.json")
	assert.ErrorIs(t, err, ErrBackupDisabled)
	assert.ErrorIs(t, s.Delete(ctx, "x.json"), ErrBackupDisabled)
	assert.ErrorIs(t, s.Status(ctx), ErrBackupDisabled)
}
