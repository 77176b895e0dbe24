package middleware

import (
	"net/http"

	"ledger/database"
	"ledger/models"

	"github.com/gin-gonic/gin"
)

// RequireRole 角色校验中间件
// 需在 JWTAuth 之后使用。当前用户角色不在允许集合内时返回 403。
// 角色以数据库中的最新值为准，授权变更即时生效。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		userID := GetCurrentUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "请先登录"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "用户不存在"})
			c.Abort()
			return
		}

		if !allowed[user.Role] {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "message": "权限不足"})
			c.Abort()
			return
		}

		c.Set("role", user.Role)
		c.Next()
	}
}
