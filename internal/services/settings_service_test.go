package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
)

func TestSettingsDefaultsAndSeed(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := NewSettingsService(db)
	require.NoError(t, err)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Homefolio", settings.SiteName)
	require.False(t, settings.MaintenanceMode)
	require.Equal(t, 6, settings.FeaturedLimit)
}

func TestSettingsUpdate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := NewSettingsService(db)
	require.NoError(t, err)
	ctx := context.Background()

	name := "Homefolio Estates"
	maintenance := true
	limit := 10
	settings, err := svc.Update(ctx, UpdateSettingsInput{
		SiteName:        &name,
		MaintenanceMode: &maintenance,
		FeaturedLimit:   &limit,
	})
	require.NoError(t, err)
	require.Equal(t, name, settings.SiteName)
	require.True(t, settings.MaintenanceMode)
	require.Equal(t, 10, settings.FeaturedLimit)

	// Updates persist across reads.
	loaded, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, name, loaded.SiteName)

	enabled, err := svc.MaintenanceMode(ctx)
	require.NoError(t, err)
	require.True(t, enabled)

	empty := ""
	_, err = svc.Update(ctx, UpdateSettingsInput{SiteName: &empty})
	require.Error(t, err)

	bad := 0
	_, err = svc.Update(ctx, UpdateSettingsInput{FeaturedLimit: &bad})
	require.Error(t, err)
}
