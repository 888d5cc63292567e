package repo

import (
	"NoteKeeper/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт реализацию репозитория пользователей поверх GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return r.first(ctx, "reset_token = ? AND reset_expires > ?", token, now.UTC())
}

func (r *userRepo) UpdateUser(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepo) DeleteUser(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	found := []string{}
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *userRepo) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
