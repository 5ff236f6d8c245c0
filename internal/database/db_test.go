package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/config"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}
}

func TestConnectSQLite(t *testing.T) {
	db, err := Connect(testConfig(t))
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.Application{}))
	assert.True(t, db.Migrator().HasTable(&models.ResumeBlob{}))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)

	_, err = Connect(&config.Config{DBDriver: "postgres"})
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestSeedReplacesUsersAndJobs(t *testing.T) {
	db, err := Connect(testConfig(t))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.User{Name: "Old", Email: "old@x.test", PasswordHash: "x"}).Error)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := Seed(ctx, db, "", now)
	require.NoError(t, err)
	require.Len(t, res.Users, 4)
	require.Len(t, res.Jobs, 2)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(4), count)
	db.Model(&models.User{}).Where("email = ?", "old@x.test").Count(&count)
	assert.Zero(t, count)

	var company models.User
	require.NoError(t, db.First(&company, "role = ?", models.RoleCompany).Error)
	assert.True(t, auth.CheckPassword(company.PasswordHash, DemoPassword))

	var jobs []models.Job
	require.NoError(t, db.Order("deadline ASC").Find(&jobs).Error)
	assert.Equal(t, company.ID, jobs[0].CreatedBy)
	assert.True(t, now.Add(7*24*time.Hour).Equal(*jobs[0].Deadline))

	// Seeding twice does not fail on the unique email index.
	_, err = Seed(ctx, db, "", now)
	require.NoError(t, err)
}
