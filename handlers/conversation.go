package handlers

import (
	"net/http"

	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/services"
)

// ConversationHandler, sidebar endpoint'i.
type ConversationHandler struct {
	conversationService services.ConversationService
}

// NewConversationHandler, constructor.
func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List godoc
// GET /api/conversations
// Viewer dışındaki herkes, son aktiviteye göre sıralı, unread sayılarıyla.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	sidebar, err := h.conversationService.Sidebar(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, sidebar)
}
