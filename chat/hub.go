package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"Linkup/auth"
	"Linkup/cache"
	"Linkup/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers send an Origin header; CORS for the HTTP surface is handled
	// elsewhere, and tokens gate the upgrade itself.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns every live connection. Registration, teardown and delivery all
// funnel through its run loop; delivery is keyed per user so a message
// reaches only the connections of its two participants.
type Hub struct {
	db  *gorm.DB
	log *zap.Logger

	register   chan *Client
	unregister chan *Client
	deliveries chan delivery

	clients map[*Client]bool
	byUser  map[uint]map[*Client]bool

	pairs *pairLocks
}

type delivery struct {
	payload    []byte
	recipients []uint
}

func NewHub(db *gorm.DB, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		db:         db,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		clients:    make(map[*Client]bool),
		byUser:     make(map[uint]map[*Client]bool),
		pairs:      newPairLocks(),
	}
}

// Run processes registrations, teardowns and deliveries until the process
// exits. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if h.byUser[client.userID] == nil {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			h.log.Info("websocket connected",
				zap.String("client", client.id), zap.Uint("user_id", client.userID))

		case client := <-h.unregister:
			h.removeClient(client)

		case d := <-h.deliveries:
			for _, userID := range d.recipients {
				for client := range h.byUser[userID] {
					select {
					case client.send <- d.payload:
					default:
						// Send buffer full: the connection is wedged,
						// drop it rather than block delivery.
						h.removeClient(client)
					}
				}
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if set := h.byUser[client.userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	close(client.send)
	h.log.Info("websocket disconnected",
		zap.String("client", client.id), zap.Uint("user_id", client.userID))
}

// ServeWS upgrades the request and registers the connection. The caller
// authenticates the same way as the REST surface (Authorization header or
// ?token= query parameter).
func (h *Hub) ServeWS(c *gin.Context) {
	userID, err := auth.ExtractTokenID(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, userID)
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// handleInbound validates, persists, notifies and delivers one inbound
// frame. A bad payload is logged and dropped; the connection lives on.
func (h *Hub) handleInbound(c *Client, raw []byte) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Warn("dropping malformed websocket payload",
			zap.String("client", c.id), zap.Error(err))
		return
	}
	if env.Type != eventNewMessage {
		h.log.Debug("ignoring websocket event",
			zap.String("client", c.id), zap.String("type", env.Type))
		return
	}
	if strings.TrimSpace(env.Text) == "" || env.Sender.ID == "" || env.Receiver.ID == "" {
		h.log.Warn("dropping incomplete message envelope", zap.String("client", c.id))
		return
	}

	sender, err := h.lookupUser(env.Sender.ID)
	if err != nil {
		h.log.Warn("message sender not found",
			zap.String("client", c.id), zap.String("sender", env.Sender.ID))
		return
	}
	// The sender in the payload must be the user the connection
	// authenticated as.
	if sender.ID != c.userID {
		h.log.Warn("dropping message with mismatched sender",
			zap.String("client", c.id),
			zap.Uint("user_id", c.userID), zap.String("sender", env.Sender.ID))
		return
	}
	receiver, err := h.lookupUser(env.Receiver.ID)
	if err != nil {
		h.log.Warn("message receiver not found",
			zap.String("client", c.id), zap.String("receiver", env.Receiver.ID))
		return
	}
	if sender.ID == receiver.ID {
		h.log.Warn("dropping self-addressed message", zap.String("client", c.id))
		return
	}

	// Appends within one conversation are sequential; other pairs are
	// unaffected.
	key := pairKey(sender.ID, receiver.ID)
	h.pairs.lock(key)
	message, conversation, err := h.persistMessage(&env, sender, receiver)
	h.pairs.unlock(key)
	if err != nil {
		h.log.Error("failed to persist message",
			zap.String("client", c.id), zap.Error(err))
		return
	}

	// The message is the durability boundary; a failed notification is
	// logged, never propagated.
	notification := models.NewMessageNotification(receiver.ID, sender.ID, message.ID)
	if err := notification.Record(h.db); err != nil {
		h.log.Error("failed to record message notification",
			zap.Uint("message_id", message.ID), zap.Error(err))
	} else {
		cache.InvalidateUnreadCount(context.Background(), receiver.ID)
	}

	outbound := OutboundEnvelope{
		Type:           eventSendMessage,
		ConversationID: conversation.PublicID,
		Message: OutboundMessage{
			ID: strconv.FormatUint(uint64(message.ID), 10),
			Sender: UserRef{
				ID:         sender.PublicID,
				Username:   sender.Username,
				AvatarPath: sender.AvatarPath,
			},
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		},
	}
	payload, err := json.Marshal(outbound)
	if err != nil {
		h.log.Error("failed to encode outbound message", zap.Error(err))
		return
	}
	h.deliveries <- delivery{payload: payload, recipients: []uint{sender.ID, receiver.ID}}
}

func (h *Hub) persistMessage(env *InboundEnvelope, sender, receiver *models.User) (*models.Message, *models.Conversation, error) {
	var conversation *models.Conversation
	var err error

	if env.ConversationID != "" {
		conversation, err = h.lookupConversation(env.ConversationID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
		// A supplied id naming some other pair's conversation is ignored;
		// the append goes to this pair's own conversation.
		if conversation != nil && !conversation.HasPair(sender.ID, receiver.ID) {
			conversation = nil
		}
	}
	if conversation == nil {
		conversation, err = models.FindOrCreateConversation(h.db, sender.ID, receiver.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	message, err := models.AppendMessage(h.db, conversation.ID, sender.ID, env.Text)
	if err != nil {
		return nil, nil, err
	}
	return message, conversation, nil
}

func (h *Hub) lookupUser(publicID string) (*models.User, error) {
	var user models.User
	if err := h.db.Where("public_id = ?", publicID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *Hub) lookupConversation(publicID string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := h.db.Where("public_id = ?", publicID).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func pairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
