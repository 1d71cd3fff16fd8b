package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"stashbox/internal/app/service"
	"stashbox/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/token", h.login) // OAuth2-style form login, same handler
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

// login accepts JSON {username,password} or a form-encoded body with the same
// fields and returns a bearer token. Bad credentials get a 401 with a
// WWW-Authenticate challenge and no hint whether the username exists.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			common.RespondWithChallenge(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tokenResponse{
		AccessToken: resp.Token,
		TokenType:   "bearer",
	})
}

func decodeLoginRequest(r *http.Request) (service.LoginRequest, error) {
	var req service.LoginRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}
