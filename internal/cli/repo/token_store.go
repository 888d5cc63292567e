package repo

// TokenStore описывает абстракцию хранилища auth-токена на клиенте.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// SessionStore: токен плюс email последнего входа, чтобы status мог подсказать,
// под кем входили, когда токена уже нет.
type SessionStore interface {
	TokenStore
	SaveLogin(login string) error
	LoadLogin() (string, error)
}
