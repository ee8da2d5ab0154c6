package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzarao/carsaaz/internal/models"
)

func TestAutoMigrateAndSeed(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:migrations_test?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrateAndSeed(db))

	var count int64
	require.NoError(t, db.Model(&models.MessageTemplate{}).Count(&count).Error)
	require.EqualValues(t, 4, count)

	var tpl models.MessageTemplate
	require.NoError(t, db.
		Where("name = ? AND channel = ?", models.TemplateBookingRequestDealership, models.TemplateChannelEmail).
		First(&tpl).Error)
	require.True(t, tpl.IsActive)
	require.NotEmpty(t, tpl.Subject)
	require.Contains(t, tpl.Body, "{{car_model}}")

	// Seeding again must not duplicate or overwrite rows.
	require.NoError(t, db.Model(&tpl).Update("subject", "edited by operator").Error)
	require.NoError(t, SeedData(db))

	require.NoError(t, db.Model(&models.MessageTemplate{}).Count(&count).Error)
	require.EqualValues(t, 4, count)

	var after models.MessageTemplate
	require.NoError(t, db.First(&after, "id = ?", tpl.ID).Error)
	require.Equal(t, "edited by operator", after.Subject)
}
