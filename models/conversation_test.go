package models

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupConversationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	err = db.AutoMigrate(&User{}, &Conversation{}, &Message{})
	if err != nil {
		t.Fatalf("Failed to migrate in-memory database: %v", err)
	}
	return db
}

func seedPair(t *testing.T, db *gorm.DB) (*User, *User) {
	t.Helper()
	alice := User{Username: "alice", Email: "alice@example.com", Password: "password123"}
	bob := User{Username: "bob", Email: "bob@example.com", Password: "password123"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	return &alice, &bob
}

func TestFindOrCreateConversationIsCanonical(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	// Both participant orders resolve to the same conversation.
	first, err := FindOrCreateConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)
	second, err := FindOrCreateConversation(db, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PublicID, second.PublicID)

	var count int64
	db.Model(&Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Stored canonically, lower id first.
	assert.Less(t, first.ParticipantA, first.ParticipantB)
}

func TestFindOrCreateConversationConcurrent(t *testing.T) {
	// :memory: would give each pooled connection its own empty database;
	// a shared file with a busy timeout lets the goroutines race for real.
	dsn := filepath.Join(t.TempDir(), "conversations.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Conversation{}, &Message{}))

	alice := User{Username: "alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, db.Create(&alice).Error)

	const pairs = 10
	peers := make([]User, pairs)
	for i := range peers {
		peers[i] = User{
			Username: fmt.Sprintf("peer%d", i),
			Email:    fmt.Sprintf("peer%d@example.com", i),
			Password: "password123",
		}
		require.NoError(t, db.Create(&peers[i]).Error)
	}

	// Both sides of every pair create at once, with opposite argument
	// order; the unique pair index makes the loser re-read the winner's
	// row.
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make([][2]*Conversation, pairs)
	errs := make([][2]error, pairs)
	for i := 0; i < pairs; i++ {
		i := i
		peerID := peers[i].ID
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			results[i][0], errs[i][0] = FindOrCreateConversation(db, alice.ID, peerID)
		}()
		go func() {
			defer wg.Done()
			<-start
			results[i][1], errs[i][1] = FindOrCreateConversation(db, peerID, alice.ID)
		}()
	}
	close(start)
	wg.Wait()

	for i := 0; i < pairs; i++ {
		require.NoError(t, errs[i][0])
		require.NoError(t, errs[i][1])
		assert.Equal(t, results[i][0].ID, results[i][1].ID)
	}

	var count int64
	db.Model(&Conversation{}).Count(&count)
	assert.Equal(t, int64(pairs), count)
}

func TestFindOrCreateConversationRejectsSelf(t *testing.T) {
	db := setupConversationDB(t)
	alice, _ := seedPair(t, db)

	_, err := FindOrCreateConversation(db, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestConversationCounterpart(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	conversation, err := FindOrCreateConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, bob.ID, conversation.Counterpart(alice.ID))
	assert.Equal(t, alice.ID, conversation.Counterpart(bob.ID))
}

func TestAppendMessageUpdatesConversation(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	conversation, err := FindOrCreateConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)

	message, err := AppendMessage(db, conversation.ID, alice.ID, "  hello bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", message.Text)

	var fresh Conversation
	require.NoError(t, db.First(&fresh, conversation.ID).Error)
	assert.Equal(t, "hello bob", fresh.LastMessage)
}

func TestAppendMessageRejectsEmptyText(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	conversation, err := FindOrCreateConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = AppendMessage(db, conversation.ID, alice.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	var count int64
	db.Model(&Message{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestListMessagesForStrangersIsEmpty(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	// No conversation exists yet; the first page is empty, not an error.
	messages, err := ListMessages(db, alice.ID, bob.ID, 1, 30)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListMessagesReverseChronological(t *testing.T) {
	db := setupConversationDB(t)
	alice, bob := seedPair(t, db)

	conversation, err := FindOrCreateConversation(db, alice.ID, bob.ID)
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := AppendMessage(db, conversation.ID, alice.ID, text)
		require.NoError(t, err)
	}

	messages, err := ListMessages(db, bob.ID, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "three", messages[0].Text)
	assert.Equal(t, "two", messages[1].Text)

	messages, err = ListMessages(db, bob.ID, alice.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "one", messages[0].Text)
}
