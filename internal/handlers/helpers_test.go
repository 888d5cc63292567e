package handlers_test

import (
	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/handlers"
	"NoteKeeper/internal/mailer"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/service"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	t      *testing.T
	router http.Handler
	blobs  *blobstore.MemoryStore
	cfg    *config.Config
}

// newTestEnv поднимает роутер поверх in-memory SQLite и хранилища файлов в памяти.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zap.NewNop().Sugar()
	cfg := &config.Config{AuthSecret: "test-secret", TokenTTL: time.Hour, BlobMaxSizeMB: 1, FrontendURL: "http://front"}
	items := repo.NewItemRepository(db)
	users := repo.NewUserRepository(db)
	blobs := blobstore.NewMemoryStore()

	itemSvc := service.NewItemService(items, users, blobs, logger, service.WithLocation(time.UTC))
	userSvc := service.NewUserService(users, items, mailer.NewLogMailer(logger), logger, cfg.FrontendURL)
	h := handlers.NewHandler(userSvc, itemSvc, logger, cfg)

	return &testEnv{t: t, router: h.Router, blobs: blobs, cfg: cfg}
}

// do выполняет запрос с JSON-телом (body может быть nil) и токеном (может быть пустым).
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// register создаёт пользователя и возвращает его токен и id.
func (e *testEnv) register(username string) (token, id string) {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": username + "@example.com", "password": "pw-" + username,
	})
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp handlers.AuthResponse
	require.NoError(e.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func (e *testEnv) createItem(token string, body map[string]any) handlers.ItemDTO {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/items", token, body)
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[handlers.ItemDTO](e.t, rr)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
