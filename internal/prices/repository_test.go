package prices

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/capm-optimizer/pkg/config"
	"github.com/wonny/capm-optimizer/pkg/database"
)

func TestRepositoryLoad(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	obs := []Observation{
		{Symbol: "ZZTEST1", Date: date("2020-01-02"), Close: 10},
		{Symbol: "ZZTEST1", Date: date("2020-01-03"), Close: 11},
	}
	require.NoError(t, repo.SaveBatch(ctx, obs))

	table, err := repo.Load(ctx, []string{"ZZTEST1"}, date("2020-01-01"), date("2020-01-31"))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	require.Equal(t, 11.0, table.Rows[1][0])
}
