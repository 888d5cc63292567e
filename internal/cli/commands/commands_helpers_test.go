package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"NoteKeeper/internal/blobstore"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/handlers"
	"NoteKeeper/internal/mailer"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// перехват вывода на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

// startServer поднимает настоящий API поверх in-memory SQLite и возвращает его URL.
func startServer(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB(fmt.Sprintf("file:cli_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zap.NewNop().Sugar()
	srvCfg := &config.Config{AuthSecret: "cli-secret", TokenTTL: time.Hour, BlobMaxSizeMB: 1, FrontendURL: "http://front"}
	items := repo.NewItemRepository(db)
	users := repo.NewUserRepository(db)
	itemSvc := service.NewItemService(items, users, blobstore.NewMemoryStore(), logger, service.WithLocation(time.UTC))
	userSvc := service.NewUserService(users, items, mailer.NewLogMailer(logger), logger, srvCfg.FrontendURL)

	ts := httptest.NewServer(handlers.NewHandler(userSvc, itemSvc, logger, srvCfg).Router)
	t.Cleanup(ts.Close)
	return ts.URL
}

// clientConfig: конфиг CLI с отдельным файлом токена.
func clientConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{ServerURL: serverURL, TokenFile: filepath.Join(t.TempDir(), "notekeeper", "token")}
}

// run выполняет команду и возвращает её вывод.
func run(t *testing.T, cfg *config.Config, cmd Command, args ...string) string {
	t.Helper()
	var err error
	out := withStdoutCapture(t, func() { err = cmd.Run(context.Background(), cfg, args) })
	require.NoError(t, err, "%s %v: %s", cmd.Name(), args, out)
	return out
}

// runErr выполняет команду, ожидая ошибку.
func runErr(t *testing.T, cfg *config.Config, cmd Command, args ...string) error {
	t.Helper()
	var err error
	_ = withStdoutCapture(t, func() { err = cmd.Run(context.Background(), cfg, args) })
	require.Error(t, err)
	return err
}

// createdID достаёт id из строки вида "Создано: <id>".
func createdID(t *testing.T, out string) string {
	t.Helper()
	_, rest, ok := strings.Cut(out, ": ")
	require.True(t, ok, "unexpected output %q", out)
	return strings.Fields(rest)[0]
}
