package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/config"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and store auth token" }
func (registerCmd) Usage() string       { return "register <username> <email> <password>" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	req := registerRequest{Username: args[0], Email: args[1], Password: args[2]}
	var out api.AuthResponse
	resp, err := anonymousClient(cfg).DoJSON(ctx, http.MethodPost, "/api/auth/register", req, &out)
	if err != nil {
		if api.StatusOf(err) == http.StatusConflict {
			return errors.New("username or email already in use")
		}
		return err
	}
	if err := persistSession(cfg, resp, out); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Registered as %s\n", out.User.Username)
	return nil
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth token" }
func (loginCmd) Usage() string       { return "login <email> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	var out api.AuthResponse
	resp, err := anonymousClient(cfg).DoJSON(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: args[0], Password: args[1]}, &out)
	if err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			return errors.New("invalid email or password")
		}
		return err
	}
	if err := persistSession(cfg, resp, out); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

func persistSession(cfg *config.Config, resp *http.Response, out api.AuthResponse) error {
	store := tokenStore(cfg)
	if err := api.PersistAuthFromResponse(resp, out.Token, store); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	if out.User.Email != "" {
		_ = store.SaveLogin(out.User.Email)
	}
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Revoke the current token and forget it" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	// токен мог уже истечь, локально его всё равно удаляем
	if _, err := c.DoJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil && api.StatusOf(err) != http.StatusUnauthorized {
		return err
	}
	if err := tokenStore(cfg).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the logged in user" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		if last, lerr := tokenStore(cfg).LoadLogin(); lerr == nil {
			fmt.Fprintf(Out, "Not logged in (last login: %s)\n", last)
			return nil
		}
		fmt.Fprintln(Out, "Not logged in")
		return nil
	}
	var u api.User
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			fmt.Fprintln(Out, "Session expired, login again")
			return nil
		}
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s <%s>\n", u.Username, u.Email)
	return nil
}

func init() {
	Register(GroupAccount,
		registerCmd{},
		loginCmd{},
		logoutCmd{},
		statusCmd{},
	)
}
