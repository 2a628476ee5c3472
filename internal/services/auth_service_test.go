package services

import (
	"testing"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/utils"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*AuthService, *gorm.DB, *captureMailer) {
	t.Helper()
	database := newTestDB(t)
	mailer := &captureMailer{}
	as := NewAuthService(database, newTestTokens(t), mailer, testSecurity(), zap.NewNop(), metrics.NewCollector())
	return as, database, mailer
}

func seedUser(t *testing.T, database *gorm.DB, username, password, email string, enabled bool) *models.User {
	t.Helper()
	hash, err := utils.EncryptPassword(password)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Enabled:      enabled,
		Roles:        "ROLE_RESOURCE",
	}
	require.NoError(t, database.Create(user).Error)
	return user
}

func TestAuthenticateFailsUniformly(t *testing.T) {
	as, database, _ := newAuthFixture(t)
	seedUser(t, database, "paula", "s3cret", "paula@example.com", true)
	seedUser(t, database, "disabled", "s3cret", "off@example.com", false)

	// Unknown user, wrong password and disabled account are the same error.
	_, err := as.Authenticate("ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = as.Authenticate("paula", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = as.Authenticate("disabled", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateIsCaseInsensitiveAndStampsLastLogin(t *testing.T) {
	as, database, _ := newAuthFixture(t)
	seedUser(t, database, "Paula", "s3cret", "paula@example.com", true)

	user, err := as.Authenticate("pAuLa", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Paula", user.Username)

	var reloaded models.User
	require.NoError(t, database.First(&reloaded, user.ID).Error)
	assert.WithinDuration(t, time.Now(), reloaded.LastLogin, 5*time.Second)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	as, database, _ := newAuthFixture(t)
	seedUser(t, database, "paula", "s3cret", "paula@example.com", true)

	token, user, err := as.Login("paula", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)

	tokens := newTestTokens(t)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "paula", claims.Subject)
	assert.Equal(t, []string{"ROLE_RESOURCE"}, claims.Roles)
}

func TestRegisterRoleTiers(t *testing.T) {
	as, _, _ := newAuthFixture(t)

	cases := []struct {
		name, signupToken string
		roles             []string
	}{
		{"dba", "dba-signup-token", []string{"ROLE_DBA", "ROLE_ADMIN", "ROLE_RESOURCE"}},
		{"admin", "admin-signup-token", []string{"ROLE_ADMIN", "ROLE_RESOURCE"}},
		{"resource", "resource-signup-token", []string{"ROLE_RESOURCE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := as.Register("user-"+tc.name, "s3cret", tc.name+"@example.com", tc.signupToken)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.roles, user.RoleList())
			assert.True(t, user.Enabled)
		})
	}
}

func TestRegisterRejectsUnknownToken(t *testing.T) {
	as, _, _ := newAuthFixture(t)

	_, err := as.Register("paula", "s3cret", "paula@example.com", "guessed-token")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = as.Register("paula", "s3cret", "paula@example.com", "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	as, _, _ := newAuthFixture(t)

	_, err := as.Register("paula", "s3cret", "a@example.com", "resource-signup-token")
	require.NoError(t, err)

	// Case differences do not create a second account.
	_, err = as.Register("PAULA", "s3cret", "b@example.com", "resource-signup-token")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestForgotPasswordSilentForUnknownEmail(t *testing.T) {
	as, database, mailer := newAuthFixture(t)

	require.NoError(t, as.ForgotPassword("nobody@example.com"))
	assert.Empty(t, mailer.sent)

	var count int64
	require.NoError(t, database.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPasswordResetFlow(t *testing.T) {
	as, database, mailer := newAuthFixture(t)
	user := seedUser(t, database, "paula", "old-pass", "paula@example.com", true)

	require.NoError(t, as.ForgotPassword("paula@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "paula@example.com", mailer.sent[0].To)

	var reset models.PasswordResetToken
	require.NoError(t, database.Where("user_id = ?", user.ID).First(&reset).Error)
	assert.Contains(t, mailer.sent[0].Body, reset.Token)

	require.NoError(t, as.ResetPassword(reset.Token, "new-pass"))

	_, err := as.Authenticate("paula", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = as.Authenticate("paula", "new-pass")
	assert.NoError(t, err)

	// Single use: the same token is dead afterwards.
	err = as.ResetPassword(reset.Token, "another-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPasswordRejectsExpiredAndUnknownTokens(t *testing.T) {
	as, database, _ := newAuthFixture(t)
	user := seedUser(t, database, "paula", "s3cret", "paula@example.com", true)

	err := as.ResetPassword("never-issued", "new-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &models.PasswordResetToken{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, database.Create(expired).Error)

	err = as.ResetPassword("expired-token", "new-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
