package service

import (
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
	"time"
)

// Группировки календаря.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

const (
	dayKeyLayout   = "2006-1-2"
	monthKeyLayout = "2006-1"
)

// CalendarView: элементы, сгруппированные по дате создания.
// Keys хранит ключи в порядке первого появления.
type CalendarView struct {
	Keys    []string
	Buckets map[string][]model.Item
}

// Calendar группирует видимые пользователю элементы по дню, неделе (с воскресенья) или месяцу.
// Неизвестное groupBy трактуется как day.
func (s *ItemService) Calendar(ctx context.Context, userID, groupBy string) (*CalendarView, error) {
	items, err := s.items.Find(ctx, repo.ItemFilter{VisibleTo: userID})
	if err != nil {
		return nil, s.storeErr("calendar items", err)
	}
	return groupItems(items, groupBy, s.loc), nil
}

func groupItems(items []model.Item, groupBy string, loc *time.Location) *CalendarView {
	view := &CalendarView{Keys: []string{}, Buckets: make(map[string][]model.Item)}
	for _, it := range items {
		key := bucketKey(it.CreatedAt, groupBy, loc)
		if _, ok := view.Buckets[key]; !ok {
			view.Keys = append(view.Keys, key)
		}
		view.Buckets[key] = append(view.Buckets[key], it)
	}
	return view
}

func bucketKey(t time.Time, groupBy string, loc *time.Location) string {
	t = t.In(loc)
	switch groupBy {
	case GroupByMonth:
		return t.Format(monthKeyLayout)
	case GroupByWeek:
		// AddDate по календарным дням, без проблем с переходом на летнее время
		return t.AddDate(0, 0, -int(t.Weekday())).Format(dayKeyLayout)
	default:
		return t.Format(dayKeyLayout)
	}
}
