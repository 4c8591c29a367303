//go:build integration

package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/tag"
)

// startMySQLContainer starts a MySQL server and returns provider options
// pointing at it.
func startMySQLContainer(t *testing.T, ctx context.Context) Options {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "root",
			"MYSQL_DATABASE":      "placebreak",
			"MYSQL_USER":          "placebreak",
			"MYSQL_PASSWORD":      "placebreak",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return Options{
		Type:              MySQL,
		Table:             testTable,
		Host:              host,
		Port:              portNum,
		TLS:               false,
		Username:          "placebreak",
		Password:          "placebreak",
		Database:          "placebreak",
		PoolSize:          4,
		ConnectionTimeout: 30 * time.Second,
	}
}

func TestIntegration_MySQLTagStore(t *testing.T) {
	ctx := context.Background()
	opts := startMySQLContainer(t, ctx)

	p := connectProvider(t, opts)
	s := NewTagStore(p)

	v, err := p.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())

	a := blockAt("world", 12, 45, -234)
	b := blockAt("world", 12, 46, -234)
	original := createTestTag(a, baseTime, true)

	require.NoError(t, s.Put(ctx, original))
	assertTag(t, original, mustFind(t, s, a))

	require.NoError(t, s.UpdateLocations(ctx, tag.Moves([]location.BlockLocation{a}, location.BlockVector{DY: 1})))
	assertAbsent(t, s, a)
	assertTag(t, original.WithLocation(b), mustFind(t, s, b))

	require.NoError(t, s.Delete(ctx, b))
	assertAbsent(t, s, b)
}

func TestIntegration_MySQLMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	opts := startMySQLContainer(t, ctx)

	for i := 0; i < 2; i++ {
		p := connectProvider(t, opts)
		assert.Equal(t, 2, historyRows(t, rawDB(t, p)), "iteration %d", i)
		require.NoError(t, p.Disconnect())
	}
}

func TestIntegration_MySQLIndexMigrationRecoversFromLostHistory(t *testing.T) {
	ctx := context.Background()
	opts := startMySQLContainer(t, ctx)

	// CREATE INDEX commits implicitly, so a failed history insert can leave
	// the index in place with no record of 1.1.0.
	p := connectProvider(t, opts)
	_, err := rawDB(t, p).ExecContext(ctx,
		"DELETE FROM "+HistoryTable+" WHERE table_name = ? AND version = ?", testTable, "1.1.0")
	require.NoError(t, err)
	require.NoError(t, p.Disconnect())

	p = connectProvider(t, opts)
	v, err := p.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())
	assert.Equal(t, 2, historyRows(t, rawDB(t, p)))

	exists, err := mysqlIndexExists(ctx, rawDB(t, p), testTable, mysqlLocationIndex)
	require.NoError(t, err)
	assert.True(t, exists)
}
