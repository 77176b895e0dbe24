package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledger/database"
	"ledger/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func userRows(id uint, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password", "first_name", "last_name", "role", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, "u@example.com", "x", "", "", role, time.Now(), time.Now(), nil)
}

func setUserID(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	gin.SetMode(gin.TestMode)

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRows(1, models.RoleEditor))

	router := gin.New()
	router.Use(setUserID(1))
	router.POST("/suppliers", RequireRole(models.RoleAdmin, models.RoleEditor), func(c *gin.Context) {
		c.String(200, "ok")
	})

	req := httptest.NewRequest("POST", "/suppliers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireRole_Forbidden(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	gin.SetMode(gin.TestMode)

	// viewer 不可调用删除接口
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(2).
		WillReturnRows(userRows(2, models.RoleViewer))

	router := gin.New()
	router.Use(setUserID(2))
	router.DELETE("/suppliers/:id", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.String(200, "ok")
	})

	req := httptest.NewRequest("DELETE", "/suppliers/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 未经过 JWTAuth 写入 userID 时直接 401，不触发业务逻辑
	router := gin.New()
	router.DELETE("/suppliers/:id", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.String(200, "ok")
	})

	req := httptest.NewRequest("DELETE", "/suppliers/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_UserMissing(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	gin.SetMode(gin.TestMode)

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserID(3))
	router.GET("/users", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.String(200, "ok")
	})

	req := httptest.NewRequest("GET", "/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
