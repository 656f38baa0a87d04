package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"antisocial/internal/config"
	"antisocial/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// newTestServer builds a Server over a private in-memory SQLite database without Redis.
func newTestServer(t *testing.T, flags string) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	return newTestServerWithRedis(t, flags, nil)
}

func newTestServerWithRedis(t *testing.T, flags string, rdb *redis.Client) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{
		Port:           "0",
		Env:            "test",
		FeatureFlags:   flags,
		DBDriver:       config.DriverSQLite,
		DBPath:         fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", dbSeq.Add(1)),
		DBSchemaMode:   database.SchemaModeSQL,
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return srv, srv.App(), db
}

// doJSON performs a request and decodes the JSON body into out when out is non-nil.
func doJSON(t *testing.T, app *fiber.App, method, path, body string, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}
