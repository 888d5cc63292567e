package middleware

import (
	"sync"
	"time"
)

// TokenBlacklist: отозванные при logout токены.
// Живёт в памяти процесса: пуст при старте и теряется при перезапуске.
// Запись хранится до истечения срока токена, после этого токен отвергается и так.
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time), now: time.Now}
}

// Add отзывает токен до момента exp.
func (b *TokenBlacklist) Add(token string, exp time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	b.tokens[token] = exp
}

func (b *TokenBlacklist) Contains(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[token]
	if !ok {
		return false
	}
	if !b.now().Before(exp) {
		delete(b.tokens, token)
		return false
	}
	return true
}

func (b *TokenBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	return len(b.tokens)
}

func (b *TokenBlacklist) purgeLocked() {
	now := b.now()
	for t, exp := range b.tokens {
		if !now.Before(exp) {
			delete(b.tokens, t)
		}
	}
}

// общий для процесса список
var revoked = NewTokenBlacklist()

// Revoke отзывает токен до его истечения.
func Revoke(token string, exp time.Time) { revoked.Add(token, exp) }

// IsRevoked сообщает, был ли токен отозван.
func IsRevoked(token string) bool { return revoked.Contains(token) }
