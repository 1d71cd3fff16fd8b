package handler

import (
	"net/http"

	"stashbox/internal/api/middleware"
	"stashbox/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
