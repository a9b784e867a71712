package service

import (
	"context"
	"log/slog"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/util"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

type createUserInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"max=200"`
}

// UserService manages reader identities.
type UserService struct {
	store     store.Store
	clock     clock.Clock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st store.Store, clk clock.Clock, v *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     st,
		clock:     clk,
		validator: v,
		logger:    logger,
	}
}

// Create registers a user. Emails are stored lowercased and are unique
// ignoring case.
func (s *UserService) Create(ctx context.Context, email, name string) (*domain.User, error) {
	in := createUserInput{Email: domain.NormalizeEmail(email), Name: util.CleanName(name)}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, domainerrors.Internal("generate user id", err)
	}
	user := &domain.User{Record: domain.Record{ID: userID}, Email: in.Email, Name: in.Name}
	user.InitTimestamps(s.clock.Now())

	err = s.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, translate(err, "user with email "+in.Email)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, translate(err, "user "+userID)
	}
	return user, nil
}

// GetByEmail returns a user by email, ignoring case.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, translate(err, "user "+email)
	}
	return user, nil
}
