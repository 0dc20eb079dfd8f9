package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/avdeyev/authsvc/internal/config"
	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/avdeyev/authsvc/internal/lib/password"
	"github.com/avdeyev/authsvc/internal/services/reset"
	"github.com/avdeyev/authsvc/internal/storage"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Keeping them indistinguishable blocks account enumeration via login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")

	ErrResetTokenInvalid = reset.ErrTokenInvalid
	ErrResetTokenExpired = reset.ErrTokenExpired
)

type UserSaver interface {
	SaveUser(ctx context.Context, email, name, phone string, passHash []byte) (int64, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, userID int64) (models.User, error)
}

type TokenIssuer interface {
	Issue(user models.User, remember bool) (string, error)
}

type ResetTokenStore interface {
	Issue(ctx context.Context, user models.User) (token string, expiry time.Time, err error)
	Consume(ctx context.Context, token string, newPassHash []byte, now time.Time) (models.User, error)
}

type Notifier interface {
	SendPasswordReset(ctx context.Context, email, resetLink, userName string) error
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      TokenIssuer
	reset       ResetTokenStore
	notifier    Notifier
	policy      config.PasswordPolicy
	linkBase    string
}

// New returns a new instance of the Auth service.
func New(
	log *slog.Logger,
	usrSaver UserSaver,
	usrProvider UserProvider,
	tokens TokenIssuer,
	resetStore ResetTokenStore,
	notifier Notifier,
	policy config.PasswordPolicy,
	linkBase string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    usrSaver,
		usrProvider: usrProvider,
		tokens:      tokens,
		reset:       resetStore,
		notifier:    notifier,
		policy:      policy,
		linkBase:    strings.TrimRight(linkBase, "/"),
	}
}

// Register creates a new user and returns a session token alongside the
// sanitized profile.
func (a *Auth) Register(ctx context.Context, email, name, phone, pass, confirmPass string) (string, models.Profile, error) {
	const op = "auth.Register"

	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	log := a.log.With(slog.String("op", op), slog.String("email", email))

	if email == "" || name == "" {
		return "", models.Profile{}, fmt.Errorf("%s: %w: all required fields must be filled", op, ErrValidation)
	}
	if err := a.checkPassword(pass, confirmPass); err != nil {
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registering user")

	passHash, err := password.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", slog.Any("error", err))
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, email, name, phone, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return "", models.Profile{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		log.Error("failed to save user", slog.Any("error", err))
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{ID: id, Email: email, Name: name, Phone: phone}

	token, err := a.tokens.Issue(user, false)
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered successfully", slog.Int64("user_id", id))
	return token, user.Profile(), nil
}

// Login verifies the credentials and returns a session token. Unknown
// email and wrong password fail identically with ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, pass string, remember bool) (string, models.Profile, error) {
	const op = "auth.Login"

	email = normalizeEmail(email)
	log := a.log.With(slog.String("op", op), slog.String("email", email))
	log.Info("attempting to login user")

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("user not found")
			return "", models.Profile{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", slog.Any("error", err))
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	if !password.Verify(pass, user.PassHash) {
		log.Info("invalid credentials")
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := a.tokens.Issue(user, remember)
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return "", models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to touch last login", slog.Any("error", err))
	}

	log.Info("user logged in successfully")
	return token, user.Profile(), nil
}

// ForgotPassword starts the reset flow. Whether or not the email is
// registered, a nil error means the caller gets the same generic
// acknowledgement. Delivery failures are logged, never surfaced.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	email = normalizeEmail(email)
	log := a.log.With(slog.String("op", op), slog.String("email", email))

	if email == "" {
		return fmt.Errorf("%s: %w: email is required", op, ErrValidation)
	}

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("password reset requested for unknown email")
			return nil
		}
		log.Error("failed to get user", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, _, err := a.reset.Issue(ctx, user)
	if err != nil {
		log.Error("failed to issue reset token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", a.linkBase, token)

	if err := a.notifier.SendPasswordReset(ctx, user.Email, resetLink, user.Name); err != nil {
		log.Warn("failed to send reset email", slog.Any("error", err))
	}

	return nil
}

// ResetPassword consumes the reset token and installs the new password.
// Token consumption and password update are one atomic storage step.
func (a *Auth) ResetPassword(ctx context.Context, token, pass, confirmPass string) error {
	const op = "auth.ResetPassword"
	log := a.log.With(slog.String("op", op))

	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%s: %w: all fields are required", op, ErrValidation)
	}
	if err := a.checkPassword(pass, confirmPass); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := password.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.reset.Consume(ctx, token, passHash, time.Now())
	if err != nil {
		if errors.Is(err, reset.ErrTokenInvalid) || errors.Is(err, reset.ErrTokenExpired) {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to consume reset token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset completed", slog.Int64("user_id", user.ID))
	return nil
}

// Profile returns the sanitized view of a user by id.
func (a *Auth) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	const op = "auth.Profile"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Profile{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		a.log.With(slog.String("op", op)).Error("failed to get user", slog.Any("error", err))
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return user.Profile(), nil
}

func (a *Auth) checkPassword(pass, confirmPass string) error {
	if pass == "" || confirmPass == "" {
		return fmt.Errorf("%w: all required fields must be filled", ErrValidation)
	}
	if pass != confirmPass {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(pass) < a.policy.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, a.policy.MinLength)
	}

	if a.policy.RequireMixedCase {
		var hasUpper, hasLower bool
		for _, r := range pass {
			hasUpper = hasUpper || unicode.IsUpper(r)
			hasLower = hasLower || unicode.IsLower(r)
		}
		if !hasUpper || !hasLower {
			return fmt.Errorf("%w: password must contain upper and lower case letters", ErrValidation)
		}
	}
	if a.policy.RequireDigit {
		var hasDigit bool
		for _, r := range pass {
			hasDigit = hasDigit || unicode.IsDigit(r)
		}
		if !hasDigit {
			return fmt.Errorf("%w: password must contain a digit", ErrValidation)
		}
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
