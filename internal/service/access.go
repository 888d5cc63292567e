package service

import "NoteKeeper/internal/model"

// CanRead: владелец или пользователь, с которым поделились.
func CanRead(it *model.Item, userID string) bool {
	if it == nil || userID == "" {
		return false
	}
	return it.UserID == userID || it.SharedWith.Has(userID)
}

// CanWrite совпадает с CanRead: получатели доступа тоже могут редактировать.
func CanWrite(it *model.Item, userID string) bool { return CanRead(it, userID) }

// CanDelete: только владелец.
func CanDelete(it *model.Item, userID string) bool {
	return it != nil && userID != "" && it.UserID == userID
}

// CanShare: только владелец.
func CanShare(it *model.Item, userID string) bool { return CanDelete(it, userID) }
