package commands

import (
	"errors"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/cli/repo"
	fsrepo "NoteKeeper/internal/cli/repo/fs"
	"NoteKeeper/internal/config"
)

// errNotLoggedIn возвращается командами, которым нужен сохранённый токен.
var errNotLoggedIn = errors.New("not logged in, run login first")

func tokenStore(cfg *config.Config) repo.SessionStore {
	return fsrepo.NewAuthFSStore(cfg.TokenFile)
}

// anonymousClient: клиент без токена для register/login.
func anonymousClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ServerURL, "")
}

// authClient: клиент с сохранённым токеном.
func authClient(cfg *config.Config) (*api.Client, error) {
	token, err := tokenStore(cfg).Load()
	if err != nil || token == "" {
		return nil, errNotLoggedIn
	}
	return api.NewClient(cfg.ServerURL, token), nil
}
