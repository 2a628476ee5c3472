package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulaPelizer/DocScriptum/internal/config"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/utils"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mailer is the outbound mail collaborator. Fire-and-forget, no delivery
// guarantee.
type Mailer interface {
	Send(to, subject, body string) error
}

// AuthService owns credential verification, signup-token registration and
// the password reset flow.
type AuthService struct {
	db       *gorm.DB
	tokens   *TokenService
	mailer   Mailer
	security config.SecurityConfig
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func NewAuthService(db *gorm.DB, tokens *TokenService, mailer Mailer, security config.SecurityConfig, logger *zap.Logger, collector *metrics.Collector) *AuthService {
	return &AuthService{
		db:       db,
		tokens:   tokens,
		mailer:   mailer,
		security: security,
		logger:   logger.With(zap.String("service", "auth_service")),
		metrics:  collector,
	}
}

// FindPrincipal looks the principal up case-insensitively.
func (as *AuthService) FindPrincipal(username string) (*models.User, error) {
	var user models.User
	err := as.db.Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair. Absent, disabled and
// password-mismatch principals all fail with the same ErrInvalidCredentials.
func (as *AuthService) Authenticate(username, password string) (*models.User, error) {
	user, err := as.FindPrincipal(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			as.metrics.RecordLogin("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Enabled || !utils.VerifyPassword(user.PasswordHash, password) {
		as.metrics.RecordLogin("failure")
		return nil, ErrInvalidCredentials
	}

	// The stamp is best-effort: a failed write must not fail the login.
	if err := as.db.Model(user).Update("last_login", time.Now()).Error; err != nil {
		as.logger.Warn("Failed to stamp last login",
			zap.String("username", user.Username), zap.Error(err))
	}
	as.metrics.RecordLogin("success")
	return user, nil
}

// Login authenticates and issues a bearer token for the principal.
func (as *AuthService) Login(username, password string) (token string, user *models.User, err error) {
	user, err = as.Authenticate(username, password)
	if err != nil {
		return "", nil, err
	}
	token, err = as.tokens.Issue(user.Username, user.RoleList())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// resolveSignupRoles maps a signup token to the role tier it grants.
// Unknown tokens grant nothing; the caller only learns the token was
// invalid, never which tier it almost matched.
func (as *AuthService) resolveSignupRoles(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}
	switch {
	case as.security.SignupTokenDBA != "" && t == as.security.SignupTokenDBA:
		return "DBA,ADMIN,RESOURCE"
	case as.security.SignupTokenAdmin != "" && t == as.security.SignupTokenAdmin:
		return "ADMIN,RESOURCE"
	case as.security.SignupTokenResource != "" && t == as.security.SignupTokenResource:
		return "RESOURCE"
	}
	return ""
}

// Register creates a principal from a signup token. The token selects the
// role tier; usernames are unique case-insensitively.
func (as *AuthService) Register(username, password, email, signupToken string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, missingField("username")
	}
	if password == "" {
		return nil, missingField("password")
	}

	roles := as.resolveSignupRoles(signupToken)
	if roles == "" {
		return nil, fmt.Errorf("%w: invalid signup token", ErrForbidden)
	}

	if _, err := as.FindPrincipal(username); err == nil {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := utils.EncryptPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Enabled:      true,
	}
	user.SetRoleList(models.ParseRoles(roles))

	if err := as.db.Create(user).Error; err != nil {
		return nil, err
	}

	as.logger.Info("User registered",
		zap.String("username", user.Username),
		zap.Uint("user_id", user.ID))
	return user, nil
}

// ForgotPassword issues a reset token when the email belongs to a user and
// mails it out. The outcome is indistinguishable to the caller either way,
// so the endpoint cannot be used to enumerate accounts.
func (as *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := as.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	reset := &models.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(as.security.ResetTokenTTL),
	}
	if err := as.db.Create(reset).Error; err != nil {
		return err
	}

	body := fmt.Sprintf("Use the token below to reset your DocScriptum password. It expires in %s.\n\n%s\n",
		as.security.ResetTokenTTL, reset.Token)
	if err := as.mailer.Send(user.Email, "DocScriptum password reset", body); err != nil {
		as.logger.Warn("Failed to send reset email", zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token. Unknown, expired and already-used
// tokens fail uniformly.
func (as *AuthService) ResetPassword(token, newPassword string) error {
	if newPassword == "" {
		return missingField("password")
	}

	return as.db.Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordResetToken
		err := tx.Where("token = ?", token).First(&reset).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if reset.Used || time.Now().After(reset.ExpiresAt) {
			return ErrInvalidToken
		}

		hash, err := utils.EncryptPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
}
