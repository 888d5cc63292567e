package handlers

import (
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/service"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// память под multipart, остальное уходит во временные файлы
const multipartMemory = 10 << 20

var errTooLarge = errors.New("payload too large")

// ItemHandler: операции над деревом элементов.
type ItemHandler struct {
	ItemService *service.ItemService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewItemHandler создаёт хендлер items
func NewItemHandler(itemService *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{ItemService: itemService, Logger: logger, Config: cfg}
}

type createItemRequest struct {
	Name      string         `json:"name"`
	Type      model.ItemType `json:"type"`
	IsPrivate bool           `json:"isPrivate"`
	Pin       string         `json:"pin"`
	Content   string         `json:"content"`
	ParentID  string         `json:"parentId"`
}

type updateItemRequest struct {
	Name      *string `json:"name"`
	IsPrivate *bool   `json:"isPrivate"`
	Content   *string `json:"content"`
	ParentID  *string `json:"parentId"`
	Pin       *string `json:"pin"`
}

type copyRequest struct {
	ParentID string `json:"parentId"`
}

type shareRequest struct {
	UserIDs json.RawMessage `json:"userIds"`
}

type shareResponse struct {
	Message    string   `json:"message"`
	SharedWith []string `json:"sharedWith"`
}

type unlockRequest struct {
	Pin string `json:"pin"`
}

// Create создание элемента: JSON или multipart/form-data с полем file
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var in service.CreateInput
	if isMultipart(r) {
		form, file, err := h.parseMultipart(w, r)
		if err != nil {
			h.badForm(w, "Create", err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		isPrivate, err := parseOptionalBool(form, "isPrivate")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "isPrivate must be a boolean")
			return
		}
		in = service.CreateInput{
			Name:     formValue(form, "name"),
			Type:     model.ItemType(formValue(form, "type")),
			Pin:      formValue(form, "pin"),
			Content:  formValue(form, "content"),
			ParentID: formValue(form, "parentId"),
			File:     file.upload(),
		}
		if isPrivate != nil {
			in.IsPrivate = *isPrivate
		}
	} else {
		var req createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Logger.Warnw("Create: invalid request body", "error", err)
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return
		}
		in = service.CreateInput{
			Name: req.Name, Type: req.Type, IsPrivate: req.IsPrivate,
			Pin: req.Pin, Content: req.Content, ParentID: req.ParentID,
		}
	}

	it, err := h.ItemService.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.Logger, "Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(it))
}

// List все элементы пользователя и расшаренные ему
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	items, err := h.ItemService.ListItems(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "List", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	it, err := h.ItemService.GetItem(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, h.Logger, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(it))
}

// Update частичное обновление: меняются только переданные поля
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var upd service.ItemUpdate
	if isMultipart(r) {
		form, file, err := h.parseMultipart(w, r)
		if err != nil {
			h.badForm(w, "Update", err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		isPrivate, err := parseOptionalBool(form, "isPrivate")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "isPrivate must be a boolean")
			return
		}
		upd = service.ItemUpdate{
			Name:      optionalValue(form, "name"),
			IsPrivate: isPrivate,
			Content:   optionalValue(form, "content"),
			ParentID:  optionalValue(form, "parentId"),
			Pin:       optionalValue(form, "pin"),
			File:      file.upload(),
		}
	} else {
		var req updateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Logger.Warnw("Update: invalid request body", "error", err)
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return
		}
		upd = service.ItemUpdate{
			Name: req.Name, IsPrivate: req.IsPrivate, Content: req.Content,
			ParentID: req.ParentID, Pin: req.Pin,
		}
	}

	it, err := h.ItemService.Update(r.Context(), chi.URLParam(r, "id"), userID, upd)
	if err != nil {
		writeError(w, h.Logger, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(it))
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.ItemService.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, h.Logger, "Delete", err)
		return
	}
	writeMessage(w, http.StatusOK, "Item deleted")
}

func (h *ItemHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	it, err := h.ItemService.ToggleFavorite(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, h.Logger, "ToggleFavorite", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(it))
}

// Copy тело запроса необязательно: без parentId копия ложится рядом с исходным элементом
func (h *ItemHandler) Copy(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	it, err := h.ItemService.Copy(r.Context(), chi.URLParam(r, "id"), userID, req.ParentID)
	if err != nil {
		writeError(w, h.Logger, "Copy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(it))
}

func (h *ItemHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	// userIds должен быть массивом строк, иначе это ошибка списка
	var ids []string
	if len(req.UserIDs) == 0 || json.Unmarshal(req.UserIDs, &ids) != nil {
		ids = nil
	}

	it, err := h.ItemService.Share(r.Context(), chi.URLParam(r, "id"), userID, ids)
	if err != nil {
		writeError(w, h.Logger, "Share", err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Message: "Item shared successfully", SharedWith: it.SharedWith.Slice()})
}

func (h *ItemHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	it, err := h.ItemService.UnlockItem(r.Context(), chi.URLParam(r, "id"), userID, req.Pin)
	if err != nil {
		writeError(w, h.Logger, "Unlock", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(it))
}

// Search query, type и date (RFC3339 или YYYY-MM-DD) из строки запроса
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	q := r.URL.Query()

	sq := service.SearchQuery{Query: q.Get("query"), Type: model.ItemType(q.Get("type"))}
	if raw := q.Get("date"); raw != "" {
		from, err := parseDate(raw, h.Config.Location())
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid date")
			return
		}
		sq.From = &from
	}

	items, err := h.ItemService.Search(r.Context(), userID, sq)
	if err != nil {
		writeError(w, h.Logger, "Search", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

func (h *ItemHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	groupBy := r.URL.Query().Get("groupBy")
	if groupBy == "" {
		groupBy = service.GroupByDay
	}
	view, err := h.ItemService.Calendar(r.Context(), userID, groupBy)
	if err != nil {
		writeError(w, h.Logger, "Calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, calendarJSON{keys: view.Keys, buckets: view.Buckets})
}

// File отдаёт содержимое картинки или pdf
func (h *ItemHandler) File(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	it, rc, err := h.ItemService.OpenFile(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, h.Logger, "File", err)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(it.FilePath))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": it.Name + filepath.Ext(it.FilePath)}))
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warnw("File: stream interrupted", "id", it.ID, "error", err)
	}
}

// uploadedFile: файл из multipart-формы.
type uploadedFile struct {
	multipart.File
	header *multipart.FileHeader
}

func (f *uploadedFile) upload() *service.Upload {
	if f == nil {
		return nil
	}
	return &service.Upload{Filename: f.header.Filename, Content: f.File}
}

// parseMultipart ограничивает тело запроса размером BLOB_MAX_MB (+1 МБ на поля формы).
func (h *ItemHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, *uploadedFile, error) {
	limit := h.Config.BlobMaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, nil, errTooLarge
		}
		return nil, nil, err
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return r.MultipartForm, nil, nil
	case err != nil:
		return nil, nil, err
	}
	if header.Size > limit {
		_ = file.Close()
		return nil, nil, errTooLarge
	}
	return r.MultipartForm, &uploadedFile{File: file, header: header}, nil
}

func (h *ItemHandler) badForm(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, errTooLarge) {
		h.Logger.Warnw(op+": payload too large", "limit_mb", h.Config.BlobMaxSizeMB)
		writeMessage(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	h.Logger.Warnw(op+": invalid multipart form", "error", err)
	writeMessage(w, http.StatusBadRequest, "invalid multipart form")
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// optionalValue различает отсутствующее поле (nil) и переданное.
func optionalValue(form *multipart.Form, key string) *string {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func parseOptionalBool(form *multipart.Form, key string) (*bool, error) {
	raw := optionalValue(form, key)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// parseDate: RFC3339 как есть, YYYY-MM-DD считается началом дня в зоне календаря.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}
