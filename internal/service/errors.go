package service

import "errors"

// Ошибки бизнес-логики. Обработчики HTTP отображают их в коды ответа.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidType      = errors.New("invalid item type")
	ErrMissingFile      = errors.New("file is required for image or pdf type")
	ErrMissingContent   = errors.New("content is required for note type")
	ErrInvalidParent    = errors.New("invalid parent folder")
	ErrInvalidShareList = errors.New("userIds must be a non-empty array")
	ErrInvalidUser      = errors.New("one or more user IDs are invalid")
	ErrInvalidPin       = errors.New("invalid pin")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// ErrStore: сбой хранилища, причина оборачивается через %w.
	ErrStore = errors.New("internal error")
)
