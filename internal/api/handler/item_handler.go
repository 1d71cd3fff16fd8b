package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"stashbox/internal/api/middleware"
	"stashbox/internal/app/service"
	"stashbox/internal/common"

	"github.com/go-chi/chi/v5"
)

type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(is *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: is}
}

// RegisterRoutes mounts the item CRUD. The caller wraps the whole group in
// the authenticator, so every handler can rely on a user in context.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createItem) // POST /api/v1/items
	r.Get("/", h.listItems)   // GET /api/v1/items?limit=
	r.Get("/{itemID}", h.getItem)
	r.Put("/{itemID}", h.updateItem)
	r.Delete("/{itemID}", h.deleteItem)
}

func (h *ItemHandler) createItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.itemService.CreateItem(r.Context(), user.ID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) listItems(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.itemService.ListItems(r.Context(), user.ID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) getItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	item, err := h.itemService.GetItem(r.Context(), user.ID, chi.URLParam(r, "itemID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.itemService.UpdateItem(r.Context(), user.ID, chi.URLParam(r, "itemID"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.itemService.DeleteItem(r.Context(), user.ID, chi.URLParam(r, "itemID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
