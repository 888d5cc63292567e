package handlers

import (
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/service"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler: регистрация, вход и управление аккаунтом.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type changeUsernameRequest struct {
	Username string `json:"username"`
}

// Register регистрация пользователя
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Register: invalid request body", "error", err)
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Register", err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

// Login авторизация пользователя
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	user, err := h.UserService.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "Me", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.UserService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, h.Logger, "ForgotPassword", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent")
}

// ResetPassword принимает токен из пути или из тела запроса.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	if token := chi.URLParam(r, "token"); token != "" {
		req.Token = token
	}
	if err := h.UserService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, h.Logger, "ResetPassword", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful")
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.UserService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.Logger, "ChangePassword", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

func (h *UserHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req changeUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.UserService.ChangeUsername(r.Context(), userID, req.Username)
	if err != nil {
		writeError(w, h.Logger, "ChangeUsername", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// DeleteAccount удаляет пользователя и все его элементы, токен отзывается.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.UserService.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.Logger, "DeleteAccount", err)
		return
	}
	h.revoke(w, r)
	writeMessage(w, http.StatusOK, "Account deleted successfully")
}

// Logout отзывает текущий токен до его истечения.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *UserHandler) revoke(w http.ResponseWriter, r *http.Request) {
	if raw, exp, ok := middleware.GetTokenFromContext(r.Context()); ok {
		middleware.Revoke(raw, exp)
	}
	middleware.ClearLoginCookie(w)
}

func (h *UserHandler) respondWithToken(w http.ResponseWriter, status int, user *model.User) {
	token, err := middleware.SetLoginCookie(w, user.ID, h.Config.AuthSecret, h.Config.TokenTTL)
	if err != nil {
		h.Logger.Errorw("issue token failed", "user_id", user.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: toUserDTO(user)})
}
