package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCreateUser(t *testing.T) {
	// Set Gin to Test Mode
	gin.SetMode(gin.TestMode)

	r := gin.Default()
	server := &Server{}

	// Use SQLite as an in-memory database
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	server.DB = db
	require.NoError(t, MigrateAndEnsure(db))

	r.POST("/api/v1/users", server.CreateUser)

	mockUser := map[string]string{
		"username": "testuser",
		"email":    "testuser@example.com",
		"password": "password123",
	}
	requestBody, err := json.Marshal(mockUser)
	if err != nil {
		t.Fatalf("Error creating request body: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBuffer(requestBody))
	if err != nil {
		t.Fatalf("Error creating HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var responseBody map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &responseBody)
	if err != nil {
		t.Fatalf("Error unmarshalling response body: %v", err)
	}

	responseUser := responseBody["response"].(map[string]interface{})

	assert.Equal(t, mockUser["username"], responseUser["username"])
	assert.Equal(t, mockUser["email"], responseUser["email"])

	// The public id, not the storage key, is what goes over the wire.
	publicID, ok := responseUser["id"].(string)
	assert.True(t, ok)
	assert.NotEmpty(t, publicID)

	// Password should not be exposed in the response
	_, passwordExists := responseUser["password"]
	assert.False(t, passwordExists, "Password field should not be exposed in response")
}

func TestLoginUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("API_SECRET", "login-test-secret")

	r := gin.Default()
	server := &Server{}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	server.DB = db
	require.NoError(t, MigrateAndEnsure(db))

	r.POST("/api/v1/users", server.CreateUser)
	r.POST("/api/v1/login", server.Login)

	mockUser := map[string]string{
		"username": "testuser",
		"email":    "testuser@example.com",
		"password": "password123",
	}
	requestBody, _ := json.Marshal(mockUser)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBuffer(requestBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	loginPayload := map[string]string{
		"email":    mockUser["email"],
		"password": mockUser["password"],
	}
	loginBody, _ := json.Marshal(loginPayload)
	loginReq, _ := http.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBuffer(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)

	assert.Equal(t, http.StatusOK, loginW.Code)

	var loginResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(loginW.Body.Bytes(), &loginResponse))
	response := loginResponse["response"].(map[string]interface{})
	token, exists := response["token"].(string)
	assert.True(t, exists, "Token not found in login response")
	assert.NotEmpty(t, token)
	assert.Equal(t, mockUser["username"], response["username"])
}

func TestLoginRejectsCorruptedPasswordHash(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("API_SECRET", "login-test-secret")

	r := gin.Default()
	server := &Server{}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	server.DB = db
	require.NoError(t, MigrateAndEnsure(db))

	r.POST("/api/v1/users", server.CreateUser)
	r.POST("/api/v1/login", server.Login)

	mockUser := map[string]string{
		"username": "testuser",
		"email":    "testuser@example.com",
		"password": "password123",
	}
	requestBody, _ := json.Marshal(mockUser)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBuffer(requestBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// A stored hash that bcrypt cannot parse must refuse the login, not
	// fall through to issuing a token.
	require.NoError(t,
		db.Exec("UPDATE users SET password = ? WHERE email = ?", "not-a-bcrypt-hash", mockUser["email"]).Error)

	loginPayload := map[string]string{
		"email":    mockUser["email"],
		"password": mockUser["password"],
	}
	loginBody, _ := json.Marshal(loginPayload)
	loginReq, _ := http.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBuffer(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)

	assert.Equal(t, http.StatusUnprocessableEntity, loginW.Code)
	assert.NotContains(t, loginW.Body.String(), "token")
}

func TestGetUserByIdentifier(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server, db := setupFollowTestServer(t)
	user := createFollowTestUser(t, db, "lookup")

	r := gin.New()
	r.GET("/api/v1/users/:id", server.GetUser)

	// By public uuid.
	w := doRequest(r, http.MethodGet, "/api/v1/users/"+user.PublicID)
	assert.Equal(t, http.StatusOK, w.Code)

	// By username.
	w = doRequest(r, http.MethodGet, "/api/v1/users/lookup")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	response := body["response"].(map[string]interface{})
	assert.Equal(t, user.PublicID, response["id"])

	// Unknown identifier.
	w = doRequest(r, http.MethodGet, "/api/v1/users/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
