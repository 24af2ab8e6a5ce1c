package chat

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Linkup/auth"
	"Linkup/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHubTest(t *testing.T) (*gorm.DB, *Hub, *httptest.Server) {
	t.Helper()
	t.Setenv("API_SECRET", "hub-test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A second pooled connection to :memory: would be a second, empty
	// database; the hub writes from its own goroutines.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{}, &models.Conversation{}, &models.Message{}, &models.Notification{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate in-memory database: %v", err)
	}

	hub := NewHub(db, zap.NewNop())
	go hub.Run()

	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return db, hub, ts
}

func createHubUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func dialHub(t *testing.T, ts *httptest.Server, userID uint) *websocket.Conn {
	t.Helper()
	token, err := auth.CreateToken(userID)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) OutboundEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env OutboundEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestHubDeliversAndPersistsMessages(t *testing.T) {
	db, _, ts := setupHubTest(t)
	alice := createHubUser(t, db, "alice")
	bob := createHubUser(t, db, "bob")

	aliceConn := dialHub(t, ts, alice.ID)
	bobConn := dialHub(t, ts, bob.ID)

	inbound := InboundEnvelope{
		Type:     "NEW_MESSAGE",
		Sender:   UserRef{ID: alice.PublicID},
		Receiver: UserRef{ID: bob.PublicID},
		Text:     "hello over the wire",
	}
	require.NoError(t, aliceConn.WriteJSON(inbound))

	// Both participants receive the persisted message.
	forBob := readEnvelope(t, bobConn)
	assert.Equal(t, "SEND_MESSAGE", forBob.Type)
	assert.Equal(t, "hello over the wire", forBob.Message.Text)
	assert.Equal(t, alice.PublicID, forBob.Message.Sender.ID)
	assert.NotEmpty(t, forBob.ConversationID)

	forAlice := readEnvelope(t, aliceConn)
	assert.Equal(t, forBob.Message.ID, forAlice.Message.ID)

	// Durable write first: the row and the recipient's notification exist.
	var message models.Message
	require.NoError(t, db.Where("sender_id = ?", alice.ID).First(&message).Error)
	assert.Equal(t, "hello over the wire", message.Text)

	var notification models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", bob.ID, models.NotificationMessage).
		First(&notification).Error)
	require.NotNil(t, notification.MessageID)
	assert.Equal(t, message.ID, *notification.MessageID)
}

func TestHubDropsMalformedPayloads(t *testing.T) {
	db, _, ts := setupHubTest(t)
	alice := createHubUser(t, db, "alice")
	bob := createHubUser(t, db, "bob")

	aliceConn := dialHub(t, ts, alice.ID)
	bobConn := dialHub(t, ts, bob.ID)

	// Garbage, an unknown event, and an empty text are all dropped
	// without killing the connection.
	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, aliceConn.WriteJSON(InboundEnvelope{Type: "TYPING"}))
	require.NoError(t, aliceConn.WriteJSON(InboundEnvelope{
		Type:     "NEW_MESSAGE",
		Sender:   UserRef{ID: alice.PublicID},
		Receiver: UserRef{ID: bob.PublicID},
		Text:     "   ",
	}))

	// The connection is still usable afterwards.
	require.NoError(t, aliceConn.WriteJSON(InboundEnvelope{
		Type:     "NEW_MESSAGE",
		Sender:   UserRef{ID: alice.PublicID},
		Receiver: UserRef{ID: bob.PublicID},
		Text:     "still alive",
	}))

	env := readEnvelope(t, bobConn)
	assert.Equal(t, "still alive", env.Message.Text)

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestHubIgnoresSenderSpoofing(t *testing.T) {
	db, _, ts := setupHubTest(t)
	alice := createHubUser(t, db, "alice")
	bob := createHubUser(t, db, "bob")
	eve := createHubUser(t, db, "eve")

	eveConn := dialHub(t, ts, eve.ID)
	bobConn := dialHub(t, ts, bob.ID)

	// A frame claiming another user's identity over eve's connection is
	// dropped; one sent as herself still goes through.
	require.NoError(t, eveConn.WriteJSON(InboundEnvelope{
		Type:     "NEW_MESSAGE",
		Sender:   UserRef{ID: alice.PublicID},
		Receiver: UserRef{ID: bob.PublicID},
		Text:     "pretending to be alice",
	}))
	require.NoError(t, eveConn.WriteJSON(InboundEnvelope{
		Type:     "NEW_MESSAGE",
		Sender:   UserRef{ID: eve.PublicID},
		Receiver: UserRef{ID: bob.PublicID},
		Text:     "hello from eve",
	}))

	env := readEnvelope(t, bobConn)
	assert.Equal(t, "hello from eve", env.Message.Text)
	assert.Equal(t, eve.PublicID, env.Message.Sender.ID)

	// Only the honest frame was persisted, attributed to eve.
	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var message models.Message
	require.NoError(t, db.First(&message).Error)
	assert.Equal(t, eve.ID, message.SenderID)
}

func TestHubIgnoresForeignConversationID(t *testing.T) {
	db, _, ts := setupHubTest(t)
	alice := createHubUser(t, db, "alice")
	bob := createHubUser(t, db, "bob")
	carol := createHubUser(t, db, "carol")

	foreign, err := models.FindOrCreateConversation(db, alice.ID, carol.ID)
	require.NoError(t, err)

	aliceConn := dialHub(t, ts, alice.ID)
	bobConn := dialHub(t, ts, bob.ID)

	// The supplied id names alice and carol's conversation; the message
	// still lands in alice and bob's own.
	require.NoError(t, aliceConn.WriteJSON(InboundEnvelope{
		Type:           "NEW_MESSAGE",
		ConversationID: foreign.PublicID,
		Sender:         UserRef{ID: alice.PublicID},
		Receiver:       UserRef{ID: bob.PublicID},
		Text:           "wrong address on the envelope",
	}))

	env := readEnvelope(t, bobConn)
	assert.NotEqual(t, foreign.PublicID, env.ConversationID)

	own, err := models.FindConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, own.PublicID, env.ConversationID)

	var message models.Message
	require.NoError(t, db.First(&message).Error)
	assert.Equal(t, own.ID, message.ConversationID)

	var untouched models.Conversation
	require.NoError(t, db.First(&untouched, foreign.ID).Error)
	assert.Equal(t, "", untouched.LastMessage)
}

func TestHubRejectsUnauthenticatedUpgrade(t *testing.T) {
	_, _, ts := setupHubTest(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
