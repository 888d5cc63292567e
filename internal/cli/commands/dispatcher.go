package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/config"
)

// Коды выхода nkcli.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
	// ExitAuth: нужен вход или сессия истекла.
	ExitAuth = 3
)

// Dispatch выполняет команду args[0] и возвращает код выхода процесса.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	switch name {
	case "help", "-h", "--help":
		return help(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}
	return report(cfg, c, c.Run(ctx, cfg, args[1:]))
}

func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitOK
	}
	if c, ok := Get(args[0]); ok {
		fmt.Fprintf(Out, "Usage: %s\n  %s\n", c.Usage(), c.Description())
		return ExitOK
	}
	fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
	fmt.Fprint(Out, FormatGlobalUsage())
	return ExitUsage
}

// report печатает результат команды и переводит ошибку в код выхода.
func report(cfg *config.Config, c Command, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	case errors.Is(err, errNotLoggedIn):
		fmt.Fprintf(Out, "%s: not logged in, run `nkcli login <email> <password>`\n", c.Name())
		return ExitAuth
	case api.StatusOf(err) == http.StatusUnauthorized:
		// сервер токен больше не принимает: отзыв или истечение срока
		_ = tokenStore(cfg).Clear()
		fmt.Fprintf(Out, "%s: session expired, login again\n", c.Name())
		return ExitAuth
	}
	fmt.Fprintf(Out, "%s error: %s\n", c.Name(), describe(cfg, err))
	return ExitError
}

// describe формулирует ошибку сервера для пользователя.
func describe(cfg *config.Config, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusNotFound:
			return "item not found"
		case apiErr.Status == http.StatusForbidden && apiErr.Message == "Unauthorized":
			return "access denied"
		case apiErr.Status == http.StatusRequestEntityTooLarge:
			return "file is too large for the server"
		case apiErr.Status >= http.StatusInternalServerError:
			return fmt.Sprintf("server error (%d), try again later", apiErr.Status)
		case apiErr.Message != "":
			return apiErr.Message
		}
		return apiErr.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "interrupted"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && cfg != nil {
		return fmt.Sprintf("cannot reach server at %s", cfg.ServerURL)
	}
	return err.Error()
}
