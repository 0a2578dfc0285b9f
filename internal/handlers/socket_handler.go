package handlers

import (
	"context"
	"encoding/json"

	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/pkg/logger"
	"lifeline/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Frame types accepted from socket clients.
const (
	frameLocationUpdate = "location_update"
	frameError          = "error"
)

// SocketHandler authenticates socket upgrades and serves inbound frames.
type SocketHandler struct {
	dispatch services.DispatchService
	secret   string
	log      *logger.Logger
}

func NewSocketHandler(dispatch services.DispatchService, secret string, log *logger.Logger) *SocketHandler {
	return &SocketHandler{
		dispatch: dispatch,
		secret:   secret,
		log:      log.WithField("component", "socket"),
	}
}

// Identify joins the caller to the rooms of its principal.
func (h *SocketHandler) Identify(c *gin.Context) (websocket.Identity, bool) {
	principal, ok := middleware.Authenticate(c, h.secret)
	if !ok {
		return websocket.Identity{}, false
	}
	return websocket.Identity{
		ID:    principal.PrincipalID().Hex(),
		Role:  string(principal.Role()),
		Rooms: models.Rooms(principal),
	}, true
}

func (h *SocketHandler) OnMessage(ctx context.Context, client *websocket.Client, message websocket.Message) {
	switch message.Type {
	case frameLocationUpdate:
		if err := h.locationUpdate(ctx, client, message.Data); err != nil {
			h.log.WithError(err).WithField("client_id", client.ID).Debug("Location update rejected")
			client.Reply(errorFrame(err))
		}
	default:
		h.log.WithField("type", message.Type).Debug("Ignoring unknown socket frame")
	}
}

func (h *SocketHandler) locationUpdate(ctx context.Context, client *websocket.Client, data json.RawMessage) error {
	if client.Role != string(models.RoleDriver) {
		return services.ErrForbidden
	}
	driverID, err := primitive.ObjectIDFromHex(client.ID)
	if err != nil {
		return err
	}

	var location models.LatLng
	if err := json.Unmarshal(data, &location); err != nil {
		return err
	}
	return h.dispatch.UpdateDriverLocation(ctx, driverID, location)
}

func errorFrame(err error) websocket.Message {
	data, _ := json.Marshal(map[string]string{"message": err.Error()})
	return websocket.Message{Type: frameError, Data: data}
}
