package repo

import (
	"NoteKeeper/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Ошибки слоя хранения, не зависящие от конкретной БД.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// DefaultSQLitePath: файл БД, если DATABASE_URI не задан.
const DefaultSQLitePath = "notekeeper.db"

// ItemFilter: условия выборки элементов. Все заданные условия объединяются через AND.
type ItemFilter struct {
	// VisibleTo: владелец или пользователь из sharedWith.
	VisibleTo string
	OwnerID   string
	ParentID  *string
	// NameContains: подстрока имени без учёта регистра.
	NameContains string
	Type         model.ItemType
	// CreatedFrom: нижняя граница createdAt включительно.
	CreatedFrom *time.Time
}

// ItemRepository: контракт хранилища документов для Item.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*model.Item, error)
	Create(ctx context.Context, it *model.Item) error
	// Save перезаписывает элемент целиком, включая sharedWith.
	Save(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id string) error
	// DeleteByParent удаляет только прямых детей папки.
	DeleteByParent(ctx context.Context, parentID string) (int64, error)
	DeleteByOwner(ctx context.Context, userID string) (int64, error)
	// Find возвращает элементы в порядке создания.
	Find(ctx context.Context, f ItemFilter) ([]model.Item, error)
}

// UserRepository: контракт хранилища пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// GetUserByResetToken ищет пользователя с действующим (не истёкшим к now) токеном сброса.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	// ExistingIDs возвращает те id из списка, которым соответствует пользователь.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// InitDB открывает БД по DSN и выполняет миграции.
// postgres:// и key=value DSN уходят в PostgreSQL, всё остальное: путь к файлу SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// GormConfig: общие настройки gorm. Время пишется в UTC: SQLite хранит
// метки как текст со смещением, и сравнение created_at работает только в одной зоне.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Migrate создаёт таблицы всех моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Item{}, &model.ItemShare{}, &model.Blob{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// IsPostgresDSN определяет DSN PostgreSQL.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func dialectorFor(dsn string) gorm.Dialector {
	if IsPostgresDSN(dsn) {
		return postgres.Open(dsn)
	}
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	// чистый Go драйвер modernc.org/sqlite, без cgo
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

// translate приводит ошибки gorm к ошибкам пакета.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return err
}
