// Package blobstore хранит содержимое загруженных файлов (картинки, pdf).
// Файл адресуется ключом: сгенерированным уникальным именем с исходным расширением.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound: файла с таким ключом нет.
var ErrNotFound = errors.New("blob not found")

// Store: контракт хранилища файлов.
type Store interface {
	// Put сохраняет содержимое под новым уникальным ключом, расширение берётся из filename.
	Put(ctx context.Context, filename string, r io.Reader) (key string, err error)
	// Copy дублирует файл под новым уникальным ключом с тем же расширением.
	Copy(ctx context.Context, srcKey string) (key string, err error)
	// Open открывает файл на чтение.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewName генерирует имя вида <unix-ms>-<случайное 0..1e9><ext>.
func NewName(original string) string {
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), strings.ToLower(filepath.Ext(original)))
}

// validKey отсекает ключи с путями, чтобы нельзя было выйти за пределы хранилища.
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && filepath.Base(key) == key
}
