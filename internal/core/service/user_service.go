package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/sequence"
)

// UserService registers customers and resolves their identity for order
// placement. Email and name are required; address and phone are optional and
// never substituted with defaults.
type UserService struct {
	repo   port.UserRepository
	seq    *sequence.Sequencer
	events port.EventPublisher
	log    *zap.Logger
}

func NewUserService(repo port.UserRepository, seq *sequence.Sequencer,
	events port.EventPublisher, log *zap.Logger) *UserService {
	return &UserService{repo: repo, seq: seq, events: events, log: log}
}

func (s *UserService) Register(ctx context.Context, email, name, address, phone string) (domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", domain.ErrInvalidArgument)
	}
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}

	u := domain.User{
		ID:        s.seq.NextUserID(),
		Email:     email,
		Name:      name,
		Address:   strings.TrimSpace(address),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}

	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.NewEvent(domain.EventUserRegistered, strconv.FormatInt(u.ID, 10))); err != nil {
			s.log.Warn("event publish failed", zap.Error(err))
		}
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.GetUser(ctx, id)
}
