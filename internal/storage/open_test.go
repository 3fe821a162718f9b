package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BearBump/YardBox/config"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/stretchr/testify/require"
)

func TestOpen_LocalDrivers(t *testing.T) {
	for _, driver := range []string{"", DriverFile, DriverSQLite} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := &config.Config{Storage: config.StorageConfig{Driver: driver, DataDir: filepath.Join(t.TempDir(), "data")}}
			st, err := Open(context.Background(), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			ctx := context.Background()
			state := models.NewFacilityState()
			state.YardSlots = append(state.YardSlots, &models.YardSlot{ID: "y1", Number: 1})
			require.NoError(t, st.Save(ctx, state))

			got, err := st.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got.YardSlots, 1)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
	require.Error(t, err)

	_, err = Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: DriverS3}})
	require.Error(t, err)
}
