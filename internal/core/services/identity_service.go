package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

const (
	minPasswordLength = 8
	avatarPrefix      = "avatars"
)

// IdentityService implémente ports.IdentityService (Primary Port)
type IdentityService struct {
	repo          ports.UserRepository
	hasher        ports.PasswordHasher
	tokenProvider ports.TokenProvider
	storage       ports.MediaStorage
	broker        ports.EventPublisher
	now           func() time.Time
}

func NewIdentityService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	token ports.TokenProvider,
	storage ports.MediaStorage,
	broker ports.EventPublisher,
) *IdentityService {
	return &IdentityService{
		repo:          repo,
		hasher:        hasher,
		tokenProvider: token,
		storage:       storage,
		broker:        broker,
		now:           time.Now,
	}
}

func (s *IdentityService) Register(ctx context.Context, cmd ports.RegisterCmd) (*ports.AuthResponse, error) {
	if len(cmd.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	// 1. Vérification "soft" de l'unicité, la contrainte UNIQUE de la DB reste la vraie garantie
	existing, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cmd.Email)))
	if err == nil && existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := domain.NewUser(cmd.Email, cmd.Username, hashed)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("repository save failed: %w", err)
	}

	access, refresh, err := s.tokenProvider.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	if err := s.broker.PublishUserRegistered(ctx, user.ID, user.Email); err != nil {
		slog.ErrorContext(ctx, "Failed to publish user.registered", "user_id", user.ID, "error", err)
	}

	return &ports.AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.tokenProvider.AccessExpiry(),
	}, nil
}

func (s *IdentityService) Login(ctx context.Context, cmd ports.LoginCmd) (*ports.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cmd.Email)))
	if err != nil {
		// On ne dit pas au client si c'est l'email ou le mot de passe
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, cmd.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	access, refresh, err := s.tokenProvider.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("login token gen failed: %w", err)
	}

	return &ports.AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.tokenProvider.AccessExpiry(),
	}, nil
}

func (s *IdentityService) ValidateToken(ctx context.Context, token string) (string, error) {
	userID, err := s.tokenProvider.Validate(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return userID, nil
}

func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *IdentityService) UpdateProfile(ctx context.Context, cmd ports.UpdateProfileCmd) (*domain.User, error) {
	if !cmd.Viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, cmd.Viewer.UserID)
	if err != nil {
		return nil, err
	}

	if err := user.ApplyProfile(cmd.Username, cmd.Email, s.now()); err != nil {
		return nil, err
	}

	// Même vérification "soft" qu'à l'inscription, en excluant soi-même
	if cmd.Email != nil {
		other, err := s.repo.GetByEmail(ctx, user.Email)
		if err == nil && other != nil && other.ID != user.ID {
			return nil, domain.ErrEmailAlreadyExists
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	previousKey := user.ImageKey
	var stored domain.Media
	if !cmd.Avatar.IsEmpty() {
		stored, err = s.storage.Put(ctx, avatarPrefix, cmd.Avatar)
		if err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		user.ImageKey, user.ImageURL = stored.Key, stored.URL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if !stored.IsZero() {
			if delErr := s.storage.Delete(ctx, stored.Key); delErr != nil {
				slog.WarnContext(ctx, "Failed to remove orphan avatar", "key", stored.Key, "error", delErr)
			}
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	// L'ancien avatar n'est plus référencé
	if !stored.IsZero() && previousKey != "" {
		if err := s.storage.Delete(ctx, previousKey); err != nil {
			slog.WarnContext(ctx, "Failed to remove previous avatar", "key", previousKey, "error", err)
		}
	}

	slog.InfoContext(ctx, "👤 Profile updated", "user_id", user.ID)
	return user, nil
}

func (s *IdentityService) ChangePassword(ctx context.Context, cmd ports.ChangePasswordCmd) error {
	if !cmd.Viewer.IsAuthenticated() {
		return domain.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, cmd.Viewer.UserID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, cmd.Current); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(cmd.New) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hashed, err := s.hasher.Hash(cmd.New)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
