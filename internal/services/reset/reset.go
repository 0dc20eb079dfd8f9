// Package reset manages single-use password reset tokens.
//
// A token moves through ISSUED -> (CONSUMED | EXPIRED | SUPERSEDED).
// Issue overwrites whatever token the user held before, so at most one
// token per user is live. Consume succeeds at most once per token.
package reset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/avdeyev/authsvc/internal/storage"
)

var (
	ErrTokenInvalid = errors.New("reset token invalid")
	ErrTokenExpired = errors.New("reset token expired")
)

// tokenBytes of randomness per token, hex-encoded for transport.
const tokenBytes = 32

type TokenSaver interface {
	SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error
	CompleteReset(ctx context.Context, token string, passHash []byte, now time.Time) error
}

type TokenProvider interface {
	UserByResetToken(ctx context.Context, token string) (models.User, error)
}

type Service struct {
	log      *slog.Logger
	saver    TokenSaver
	provider TokenProvider
	ttl      time.Duration
}

func New(log *slog.Logger, saver TokenSaver, provider TokenProvider, ttl time.Duration) *Service {
	return &Service{
		log:      log,
		saver:    saver,
		provider: provider,
		ttl:      ttl,
	}
}

// Issue generates a fresh token for the user, valid for the configured
// TTL, and stores it in place of any previous one. The superseded token
// stops matching immediately.
func (s *Service) Issue(ctx context.Context, user models.User) (string, time.Time, error) {
	const op = "reset.Issue"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", user.ID))

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		log.Error("failed to read random bytes", slog.Any("error", err))
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	token := hex.EncodeToString(buf)

	expiry := time.Now().Add(s.ttl)

	if err := s.saver.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		log.Error("failed to store reset token", slog.Any("error", err))
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reset token issued")
	return token, expiry, nil
}

// Consume looks up the user holding the token, verifies it against now,
// and atomically installs newPassHash while clearing the token. A token
// that was never issued, already consumed, or superseded yields
// ErrTokenInvalid; a matching but stale token yields ErrTokenExpired.
// Callers must present both cases to users as one generic failure.
func (s *Service) Consume(ctx context.Context, token string, newPassHash []byte, now time.Time) (models.User, error) {
	const op = "reset.Consume"
	log := s.log.With(slog.String("op", op))

	user, err := s.provider.UserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("no user holds the presented reset token")
			return models.User{}, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
		}
		log.Error("failed to look up reset token", slog.Any("error", err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.ResetTokenExpiry.After(now) {
		log.Info("reset token expired", slog.Int64("user_id", user.ID))
		return models.User{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	// The conditional update is the commit point. If a concurrent
	// consume won the race between our lookup and here, zero rows match
	// and this attempt loses.
	if err := s.saver.CompleteReset(ctx, token, newPassHash, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("reset token consumed concurrently", slog.Int64("user_id", user.ID))
			return models.User{}, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
		}
		log.Error("failed to complete reset", slog.Any("error", err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reset token consumed", slog.Int64("user_id", user.ID))
	return user, nil
}
