package services

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/paulaPelizer/DocScriptum/internal/config"
	"github.com/paulaPelizer/DocScriptum/internal/db"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	return database
}

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret:           strings.Repeat("k", 32),
		JWTExpMinutes:       120,
		ClockSkewSeconds:    30,
		SignupTokenDBA:      "dba-signup-token",
		SignupTokenAdmin:    "admin-signup-token",
		SignupTokenResource: "resource-signup-token",
		ResetTokenTTL:       time.Hour,
	}
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(strings.Repeat("k", 32), 120, 30)
	require.NoError(t, err)
	return tokens
}

type sentMail struct {
	To, Subject, Body string
}

type captureMailer struct {
	sent []sentMail
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func createTestProject(t *testing.T, database *gorm.DB, code string) *models.Project {
	t.Helper()
	project := &models.Project{Code: code, Name: "Project " + code, Status: "ACTIVE"}
	require.NoError(t, database.Create(project).Error)
	return project
}

func createTestOrganization(t *testing.T, database *gorm.DB, name string, orgType models.OrgType) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, OrgType: orgType, Status: "ACTIVE"}
	require.NoError(t, database.Create(org).Error)
	return org
}

func newDocumentService(t *testing.T, database *gorm.DB) *DocumentService {
	t.Helper()
	return NewDocumentService(database, zap.NewNop(), metrics.NewCollector())
}

func newRequestService(t *testing.T, database *gorm.DB, mailer Mailer) *RequestService {
	t.Helper()
	if mailer == nil {
		mailer = &captureMailer{}
	}
	return NewRequestService(database, mailer, zap.NewNop(), metrics.NewCollector())
}

func newGRDService(t *testing.T, database *gorm.DB) *GRDService {
	t.Helper()
	return NewGRDService(database, zap.NewNop(), metrics.NewCollector())
}
