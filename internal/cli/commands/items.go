package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/config"
)

// printItems печатает элементы по одному в строке.
func printItems(w io.Writer, list []api.Item) {
	if len(list) == 0 {
		fmt.Fprintln(w, "Нет записей")
		return
	}
	for _, it := range list {
		fmt.Fprintln(w, formatItem(it))
	}
	fmt.Fprintf(w, "Всего: %d\n", len(list))
}

func formatItem(it api.Item) string {
	var flags []string
	if it.IsFavorite {
		flags = append(flags, "★")
	}
	if it.IsPrivate {
		flags = append(flags, "private")
	}
	if it.HasPin {
		flags = append(flags, "pin")
	}
	if len(it.SharedWith) > 0 {
		flags = append(flags, fmt.Sprintf("shared:%d", len(it.SharedWith)))
	}
	parent := "-"
	if it.ParentID != nil && *it.ParentID != "" {
		parent = *it.ParentID
	}
	line := fmt.Sprintf("- %s  [%s] %s  parent=%s", it.ID, it.Type, it.Name, parent)
	if len(flags) > 0 {
		line += "  (" + strings.Join(flags, ", ") + ")"
	}
	return line
}

type itemsCmd struct{}

func (itemsCmd) Name() string        { return "items" }
func (itemsCmd) Description() string { return "Показать все записи (свои и расшаренные)" }
func (itemsCmd) Usage() string       { return "items [parentId]" }

func (itemsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var list []api.Item
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/items", nil, &list); err != nil {
		return err
	}
	if len(args) == 1 {
		filtered := list[:0]
		for _, it := range list {
			if it.ParentID != nil && *it.ParentID == args[0] {
				filtered = append(filtered, it)
			}
		}
		list = filtered
	}
	printItems(Out, list)
	return nil
}

type itemCmd struct{}

func (itemCmd) Name() string        { return "item" }
func (itemCmd) Description() string { return "Показать запись по id" }
func (itemCmd) Usage() string       { return "item <id>" }

func (itemCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	var it api.Item
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/items/"+url.PathEscape(args[0]), nil, &it); err != nil {
		return err
	}
	fmt.Fprintln(Out, formatItem(it))
	if it.Content != "" {
		fmt.Fprintln(Out, it.Content)
	}
	return nil
}

type searchCmd struct{}

func (searchCmd) Name() string        { return "search" }
func (searchCmd) Description() string { return "Поиск по имени и содержимому" }
func (searchCmd) Usage() string       { return "search <query> [type] [date]" }

func (searchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("query", args[0])
	if len(args) > 1 && args[1] != "" {
		q.Set("type", args[1])
	}
	if len(args) > 2 {
		q.Set("date", args[2])
	}
	var list []api.Item
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/items/search?"+q.Encode(), nil, &list); err != nil {
		return err
	}
	printItems(Out, list)
	return nil
}

type calendarCmd struct{}

func (calendarCmd) Name() string        { return "calendar" }
func (calendarCmd) Description() string { return "Записи, сгруппированные по дате создания" }
func (calendarCmd) Usage() string       { return "calendar [day|week|month]" }

func (calendarCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	c, err := authClient(cfg)
	if err != nil {
		return err
	}
	path := "/api/items/calendar"
	if len(args) == 1 {
		path += "?groupBy=" + url.QueryEscape(args[0])
	}
	var cal orderedBuckets
	if _, err := c.DoJSON(ctx, http.MethodGet, path, nil, &cal); err != nil {
		return err
	}
	if len(cal.keys) == 0 {
		fmt.Fprintln(Out, "Нет записей")
		return nil
	}
	for _, k := range cal.keys {
		fmt.Fprintf(Out, "%s (%d)\n", k, len(cal.buckets[k]))
		for _, it := range cal.buckets[k] {
			fmt.Fprintln(Out, "  "+formatItem(it))
		}
	}
	return nil
}

// orderedBuckets сохраняет порядок ключей объекта календаря.
type orderedBuckets struct {
	keys    []string
	buckets map[string][]api.Item
}

func (o *orderedBuckets) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("calendar: expected object")
	}
	o.buckets = make(map[string][]api.Item)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("calendar: expected key")
		}
		var items []api.Item
		if err := dec.Decode(&items); err != nil {
			return err
		}
		if _, seen := o.buckets[key]; !seen {
			o.keys = append(o.keys, key)
		}
		o.buckets[key] = items
	}
	_, err = dec.Token()
	return err
}

func init() {
	Register(GroupItems,
		itemsCmd{},
		itemCmd{},
		searchCmd{},
		calendarCmd{},
	)
}
