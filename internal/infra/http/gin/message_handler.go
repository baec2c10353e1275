package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	messagesapp "hirely/internal/app/handlers/messages"
	"hirely/internal/app/queries"
)

// MessageHandler serves the per-booking thread. Only the hirer and lister
// may read or write it.
type MessageHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type postMessageRequest struct {
	Text string `json:"text"`
}

func (h MessageHandler) List(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := messagesapp.ListMessagesQuery{BookingID: c.Param("id"), ViewerID: user.UserID}
	result, err := queries.Ask[messagesapp.ListMessagesQuery, dto.ChatMessageList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MessageHandler) Post(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := messagesapp.PostMessageCommand{BookingID: c.Param("id"), SenderID: user.UserID, Text: req.Text}
	result, err := commands.Dispatch[messagesapp.PostMessageCommand, *dto.ChatMessage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "post message", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
