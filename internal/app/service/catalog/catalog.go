// Package catalog reads subjects and users. Both are owned by other parts of
// the portal; payments only look them up.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/examportal/internal/models"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrUserNotFound    = errors.New("user not found")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}
	return &subject, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
