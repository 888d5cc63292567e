package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/config"
)

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

func itemPath(id string, suffix ...string) string {
	p := "/api/items/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

type mkdirCmd struct{}

func (mkdirCmd) Name() string        { return "mkdir" }
func (mkdirCmd) Description() string { return "Создать папку" }
func (mkdirCmd) Usage() string       { return "mkdir <name> [parentId]" }

func (mkdirCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	return createItem(ctx, cfg, createRequest{Name: args[0], Type: "folder", ParentID: optionalArg(args, 1)})
}

type noteCmd struct{}

func (noteCmd) Name() string        { return "note" }
func (noteCmd) Description() string { return "Создать заметку" }
func (noteCmd) Usage() string       { return "note <name> <content> [parentId]" }

func (noteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	return createItem(ctx, cfg, createRequest{Name: args[0], Type: "note", Content: args[1], ParentID: optionalArg(args, 2)})
}

func createItem(ctx context.Context, cfg *config.Config, req createRequest) error {
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var it api.Item
	if _, err := c.DoJSON(ctx, http.MethodPost, "/api/items", req, &it); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Создано: %s\n", it.ID)
	return nil
}

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Загрузить изображение или PDF" }
func (uploadCmd) Usage() string       { return "upload <file> [parentId]" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	filename := filepath.Base(args[0])
	fields := map[string]string{
		"name": strings.TrimSuffix(filename, filepath.Ext(filename)),
		"type": fileType(filename),
	}
	if p := optionalArg(args, 1); p != "" {
		fields["parentId"] = p
	}
	var it api.Item
	if err := c.Upload(ctx, http.MethodPost, "/api/items", fields, filename, f, &it); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Загружено: %s (%s)\n", it.ID, it.FilePath)
	return nil
}

func fileType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "pdf"
	}
	return "image"
}

type downloadCmd struct{}

func (downloadCmd) Name() string        { return "download" }
func (downloadCmd) Description() string { return "Скачать файл записи" }
func (downloadCmd) Usage() string       { return "download <id> <output>" }

func (downloadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(args[1], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	ct, err := c.Download(ctx, itemPath(args[0], "file"), out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(args[1])
		return err
	}
	fmt.Fprintf(Out, "Сохранено в %s (%s)\n", args[1], ct)
	return nil
}

type favCmd struct{}

func (favCmd) Name() string        { return "fav" }
func (favCmd) Description() string { return "Переключить избранное" }
func (favCmd) Usage() string       { return "fav <id>" }

func (favCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var it api.Item
	if _, err := c.DoJSON(ctx, http.MethodPatch, itemPath(args[0], "favorite"), nil, &it); err != nil {
		return err
	}
	if it.IsFavorite {
		fmt.Fprintln(Out, "Добавлено в избранное")
	} else {
		fmt.Fprintln(Out, "Убрано из избранного")
	}
	return nil
}

type shareCmd struct{}

func (shareCmd) Name() string        { return "share" }
func (shareCmd) Description() string { return "Открыть доступ пользователям" }
func (shareCmd) Usage() string       { return "share <id> <userId> [userId...]" }

func (shareCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	body := map[string][]string{"userIds": args[1:]}
	var out api.ShareResponse
	if _, err := c.DoJSON(ctx, http.MethodPost, itemPath(args[0], "share"), body, &out); err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s: %s\n", out.Message, strings.Join(out.SharedWith, ", "))
	return nil
}

type copyCmd struct{}

func (copyCmd) Name() string        { return "copy" }
func (copyCmd) Description() string { return "Скопировать запись (папку рекурсивно)" }
func (copyCmd) Usage() string       { return "copy <id> [parentId]" }

func (copyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var body any
	if p := optionalArg(args, 1); p != "" {
		body = map[string]string{"parentId": p}
	}
	var it api.Item
	if _, err := c.DoJSON(ctx, http.MethodPost, itemPath(args[0], "copy"), body, &it); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Скопировано: %s (%s)\n", it.ID, it.Name)
	return nil
}

type mvCmd struct{}

func (mvCmd) Name() string        { return "mv" }
func (mvCmd) Description() string { return "Переместить запись в другую папку" }
func (mvCmd) Usage() string       { return "mv <id> <parentId>" }

func (mvCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 || args[1] == "" {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	body := map[string]string{"parentId": args[1]}
	if _, err := c.DoJSON(ctx, http.MethodPut, itemPath(args[0]), body, nil); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Перемещено")
	return nil
}

type rmCmd struct{}

func (rmCmd) Name() string        { return "rm" }
func (rmCmd) Description() string { return "Удалить запись (папку вместе с содержимым)" }
func (rmCmd) Usage() string       { return "rm <id>" }

func (rmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	if _, err := c.DoJSON(ctx, http.MethodDelete, itemPath(args[0]), nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Удалено")
	return nil
}

type unlockCmd struct{}

func (unlockCmd) Name() string        { return "unlock" }
func (unlockCmd) Description() string { return "Открыть запись, защищённую PIN" }
func (unlockCmd) Usage() string       { return "unlock <id> <pin>" }

func (unlockCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var it api.Item
	if _, err := c.DoJSON(ctx, http.MethodPost, itemPath(args[0], "unlock"), map[string]string{"pin": args[1]}, &it); err != nil {
		if api.StatusOf(err) == http.StatusForbidden {
			return fmt.Errorf("invalid pin or no access")
		}
		return err
	}
	fmt.Fprintln(Out, formatItem(it))
	if it.Content != "" {
		fmt.Fprintln(Out, it.Content)
	}
	return nil
}

func init() {
	Register(GroupItems,
		mkdirCmd{},
		noteCmd{},
		uploadCmd{},
		downloadCmd{},
		favCmd{},
		shareCmd{},
		copyCmd{},
		mvCmd{},
		rmCmd{},
		unlockCmd{},
	)
}
