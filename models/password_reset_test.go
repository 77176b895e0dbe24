package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	// 两次生成不重复
	token2, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestPasswordReset_IsValid(t *testing.T) {
	// 未使用且未过期
	valid := PasswordReset{ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, valid.IsValid())

	// 已过期
	expired := PasswordReset{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())

	// 已使用
	used := PasswordReset{ExpiresAt: time.Now().Add(time.Hour), Used: true}
	assert.False(t, used.IsValid())
}
