package service

import (
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// resetTokenTTL: срок жизни ссылки сброса пароля.
const resetTokenTTL = time.Hour

// ResetMailer доставляет ссылку для сброса пароля.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// UserService: регистрация, вход и управление учётной записью.
type UserService struct {
	users       repo.UserRepository
	items       repo.ItemRepository
	mailer      ResetMailer
	logger      *zap.SugaredLogger
	frontendURL string
	now         func() time.Time
}

func NewUserService(users repo.UserRepository, items repo.ItemRepository, mailer ResetMailer, logger *zap.SugaredLogger, frontendURL string) *UserService {
	return &UserService{
		users:       users,
		items:       items,
		mailer:      mailer,
		logger:      logger,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.storeErr("check email", err)
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.storeErr("check username", err)
	}

	hash, err := hashSecret(password)
	if err != nil {
		return nil, s.storeErr("hash password", err)
	}
	user, err := s.users.CreateUser(ctx, &model.User{Username: username, Email: email, Password: hash})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, s.storeErr("create user", err)
	}
	s.logger.Infow("user registered", "id", user.ID)
	return user, nil
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль неразличимы.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.storeErr("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storeErr("load user", err)
	}
	return user, nil
}

// ForgotPassword выдаёт токен сброса на час и отправляет ссылку на почту.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return s.storeErr("load user", err)
	}

	token, err := newResetToken()
	if err != nil {
		return s.storeErr("generate reset token", err)
	}
	expires := s.now().Add(resetTokenTTL)
	user.ResetToken = &token
	user.ResetExpires = &expires
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return s.storeErr("save reset token", err)
	}

	link := s.frontendURL + "/reset-password/" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		s.logger.Errorw("reset email not sent", "user", user.ID, "err", err)
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	user, err := s.users.GetUserByResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		return s.storeErr("load user by token", err)
	}

	hash, err := hashSecret(password)
	if err != nil {
		return s.storeErr("hash password", err)
	}
	user.Password = hash
	user.ResetToken = nil
	user.ResetExpires = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return s.storeErr("save password", err)
	}
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := hashSecret(next)
	if err != nil {
		return s.storeErr("hash password", err)
	}
	user.Password = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return s.storeErr("save password", err)
	}
	return nil
}

// ChangeUsername меняет имя. Своё же имя: успешный no-op.
func (s *UserService) ChangeUsername(ctx context.Context, userID, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	other, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil && other.ID != userID:
		return nil, ErrUsernameTaken
	case err == nil:
		return other, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, s.storeErr("check username", err)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Username = username
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, s.storeErr("save username", err)
	}
	return user, nil
}

// DeleteAccount удаляет все элементы пользователя одной операцией, затем саму запись.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	n, err := s.items.DeleteByOwner(ctx, userID)
	if err != nil {
		return s.storeErr("delete user items", err)
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return s.storeErr("delete user", err)
	}
	s.logger.Infow("account deleted", "id", userID, "items", n)
	return nil
}

// ExistingUserIDs возвращает id из списка, которые принадлежат пользователям.
func (s *UserService) ExistingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	found, err := s.users.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, s.storeErr("existing users", err)
	}
	return found, nil
}

func (s *UserService) storeErr(op string, err error) error {
	s.logger.Errorw("store failure", "op", op, "err", err)
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func newResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
