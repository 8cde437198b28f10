package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/middleware"
	"github.com/douanenc/backend/internal/models"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))

	handler := NewAuthHandler(db, audit.NewLogger(db), 30*time.Minute)

	router := gin.New()
	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)
	router.GET("/api/auth/me", middleware.AuthMiddleware(), handler.Me)
	return router, db
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerOfficer(t *testing.T, router *gin.Engine) {
	w := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Username: "controleur",
		Email:    "controleur@douane.nc",
		Password: "MotDePasse!2024",
		FullName: "Officier de Contrôle",
		Role:     "control_officer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := setupAuthRouter(t)
	registerOfficer(t, router)

	w := postJSON(t, router, "/api/auth/login", LoginRequest{
		Username: "controleur",
		Password: "MotDePasse!2024",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	require.NotNil(t, resp.User)
	assert.Equal(t, models.RoleControlOfficer, resp.User.Role)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Username: "x",
		Email:    "x@douane.nc",
		Password: "MotDePasse!2024",
		FullName: "X",
		Role:     "superadmin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	router, _ := setupAuthRouter(t)
	registerOfficer(t, router)

	w := postJSON(t, router, "/api/auth/register", RegisterRequest{
		Username: "controleur",
		Email:    "autre@douane.nc",
		Password: "MotDePasse!2024",
		FullName: "Doublon",
		Role:     "control_officer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := setupAuthRouter(t)
	registerOfficer(t, router)

	w := postJSON(t, router, "/api/auth/login", LoginRequest{
		Username: "controleur",
		Password: "mauvais",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router, _ := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	router, _ := setupAuthRouter(t)
	registerOfficer(t, router)

	login := postJSON(t, router, "/api/auth/login", LoginRequest{
		Username: "controleur",
		Password: "MotDePasse!2024",
	})
	require.Equal(t, http.StatusOK, login.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "controleur", user.Username)
	assert.Empty(t, user.PasswordHash)
}
