package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/metrics"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", models.ErrNotFound)
	// ErrInvalidCredentials covers both an unknown user and a wrong
	// password so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSelfDelete         = fmt.Errorf("%w: cannot delete your own account", models.ErrValidation)
)

type NewUser struct {
	Username string `json:"username" validate:"required,max=64,username"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Language string `json:"language" validate:"max=32"`
}

type UserService struct {
	db     *database.DB
	audit  *audit.Log
	logger zerolog.Logger
}

func NewUserService(db *database.DB, auditLog *audit.Log, logger zerolog.Logger) *UserService {
	return &UserService{db: db, audit: auditLog, logger: logger}
}

// Add creates the user or replaces every field of an existing one.
func (s *UserService) Add(ctx context.Context, actor models.Actor, in NewUser) (*models.User, error) {
	if err := models.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Language == "" {
		in.Language = models.DefaultLanguage
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.upsert(ctx, in)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "add_user", Table: "users", TargetID: in.Username,
		Details: map[string]string{"role": in.Role},
	})
	return user, nil
}

func (s *UserService) upsert(ctx context.Context, in NewUser) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, language) VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password = excluded.password,
			role = excluded.role,
			language = excluded.language
	`, in.Username, string(hash), in.Role, in.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return &models.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Language:     in.Language,
	}, nil
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// burn comparable time so a missing user is not faster than a bad password
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			metrics.LoginsTotal.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return user, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT username, password, role, language FROM users WHERE username = ?",
		username,
	).Scan(&user.Username, &user.PasswordHash, &user.Role, &user.Language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// List never selects the password column.
func (s *UserService) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := models.RequireAdmin(actor); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT username, role, language FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Username, &user.Role, &user.Language); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ResetPassword is allowed for admins and for users changing their own password.
func (s *UserService) ResetPassword(ctx context.Context, actor models.Actor, username, newPassword string) error {
	if !actor.IsAdmin() && actor.Username != username {
		return models.ErrPermissionDenied
	}
	if len(newPassword) < 6 {
		return models.Invalid("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET password = ? WHERE username = ?", string(hash), username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}

	s.audit.Append(ctx, audit.Entry{Actor: actor.Name(), Action: "reset_password", Table: "users", TargetID: username})
	return nil
}

// SetLanguage updates the actor's own preferred language.
func (s *UserService) SetLanguage(ctx context.Context, actor models.Actor, language string) error {
	if language == "" {
		return models.Invalid("language is required")
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET language = ? WHERE username = ?", language, actor.Username)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "set_language", Table: "users", TargetID: actor.Username,
		Details: map[string]string{"language": language},
	})
	return nil
}

// Delete leaves customers owned by the user untouched.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, username string) error {
	if err := models.RequireAdmin(actor); err != nil {
		return err
	}
	if username == actor.Username {
		return ErrSelfDelete
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}

	s.audit.Append(ctx, audit.Entry{Actor: actor.Name(), Action: "delete_user", Table: "users", TargetID: username})
	return nil
}

// EnsureDefaultAdmin creates username as an admin when it does not exist.
// The password is a first-run convenience and must be rotated.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	_, err := s.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if _, err := s.upsert(ctx, NewUser{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
		Language: models.DefaultLanguage,
	}); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	s.logger.Warn().Str("username", username).Msg("default admin created with the configured default password; rotate it now")
	s.audit.Append(ctx, audit.Entry{
		Actor: models.SystemActor.Username, Action: "add_user", Table: "users", TargetID: username,
		Details: map[string]string{"role": models.RoleAdmin},
	})
	return nil
}
