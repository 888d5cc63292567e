package handlers

import (
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	itemService *service.ItemService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	userHandler := NewUserHandler(userService, logger, config)
	itemHandler := NewItemHandler(itemService, logger, config)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Server is running"))
	})

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Post("/forgot-password", userHandler.ForgotPassword)
		r.Post("/reset-password", userHandler.ResetPassword)
		r.Post("/reset-password/{token}", userHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", userHandler.Me)
			r.Post("/logout", userHandler.Logout)
			r.Post("/change-password", userHandler.ChangePassword)
			r.Put("/change-username", userHandler.ChangeUsername)
			r.Delete("/delete-account", userHandler.DeleteAccount)
		})
	})

	// Item routes
	r.Route("/api/items", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", itemHandler.Create)
		r.Get("/", itemHandler.List)
		r.Get("/search", itemHandler.Search)
		r.Get("/calendar", itemHandler.Calendar)
		r.Get("/{id}", itemHandler.Get)
		r.Put("/{id}", itemHandler.Update)
		r.Delete("/{id}", itemHandler.Delete)
		r.Patch("/{id}/favorite", itemHandler.ToggleFavorite)
		r.Post("/{id}/copy", itemHandler.Copy)
		r.Post("/{id}/share", itemHandler.Share)
		r.Post("/{id}/unlock", itemHandler.Unlock)
		r.Get("/{id}/file", itemHandler.File)
	})

	return &Handler{Router: r}
}
