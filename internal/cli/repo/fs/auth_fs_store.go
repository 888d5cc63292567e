package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"NoteKeeper/internal/cli/repo"
)

// AuthFSStore: файловое хранилище токена и контекста пользователя для CLI.
// Path указывает на файл токена, логин хранится рядом в last_login.
type AuthFSStore struct {
	Path string
}

// NewAuthFSStore создаёт хранилище для файла токена path.
func NewAuthFSStore(path string) AuthFSStore {
	return AuthFSStore{Path: path}
}

func (s AuthFSStore) tokenPath() (string, error) {
	if s.Path == "" {
		return "", errors.New("token file path is not configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return "", err
	}
	return s.Path, nil
}

func (s AuthFSStore) lastLoginPath() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "last_login"), nil
}

// Save сохраняет auth‑токен в файл.
func (s AuthFSStore) Save(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(token), 0o600)
}

// Load читает auth‑токен из файла.
func (s AuthFSStore) Load() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p, "empty token file")
}

// Clear удаляет файл токена; отсутствие файла ошибкой не считается.
func (s AuthFSStore) Clear() error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveLogin сохраняет логин пользователя в файл.
func (s AuthFSStore) SaveLogin(login string) error {
	if login == "" {
		return errors.New("empty login")
	}
	p, err := s.lastLoginPath()
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(login), 0o600)
}

// LoadLogin читает логин пользователя из файла.
func (s AuthFSStore) LoadLogin() (string, error) {
	p, err := s.lastLoginPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p, "no stored login")
}

func readTrimmed(p, emptyMsg string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), "\r\n\t ")
	if v == "" {
		return "", errors.New(emptyMsg)
	}
	return v, nil
}

var _ repo.SessionStore = AuthFSStore{}
