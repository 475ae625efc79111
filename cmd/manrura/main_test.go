package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/checklist"
	"github.com/rskariadi-dev/manrura/internal/cliconfig"
	"github.com/rskariadi-dev/manrura/internal/config"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/handler"
	"github.com/rskariadi-dev/manrura/internal/remote"
	"github.com/rskariadi-dev/manrura/internal/repository"
	"github.com/rskariadi-dev/manrura/internal/seed"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) (*httptest.Server, *repository.Repository) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.PublicURL = "http://manrura.test"
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = ":memory:"
	cfg.Database.ConnectTimeout = 5
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Upload.MaxBytes = 1 << 20
	cfg.InitialAdmin.Name = "Admin Utama"
	cfg.InitialAdmin.Email = "admin@rskariadi.co.id"
	cfg.InitialAdmin.Password = "password123"

	db, err := repository.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepository(cfg, db)
	require.NoError(t, repo.Migrate())
	require.NoError(t, seed.EnsureInitialAdmin(repo, cfg))
	require.NoError(t, seed.Demo(repo, "password123", time.Now()))

	h, err := handler.NewHandler(cfg, repo, checklist.Default(), nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()

	srv := httptest.NewServer(h.Mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func newTestApp(t *testing.T, endpoint string) (*app, *bytes.Buffer) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if endpoint != "" {
		cfg := &cliconfig.Config{}
		cfg.API.Endpoint = endpoint
		require.NoError(t, cliconfig.Save(path, cfg))
	}

	var out bytes.Buffer
	a, err := newApp(path, quietLogger(), &out)
	require.NoError(t, err)
	return a, &out
}

func TestStaffScoresOwnWard(t *testing.T) {
	srv, repo := startServer(t)
	a, out := newTestApp(t, srv.URL+"/exec")
	ctx := context.Background()
	pointID := checklist.Default().PointIDs()[0]

	require.NoError(t, a.run(ctx, "login", []string{"-email", "ani.perawat@rskariadi.co.id", "-password", "password123"}))
	assert.Contains(t, out.String(), "Perawat Ani")

	require.NoError(t, a.run(ctx, "score", []string{"-point", pointID, "-score", "10", "-notes", "SOP tersedia"}))
	assert.Contains(t, out.String(), "saved")

	ps, err := repo.GetPointScores("mawar", pointID)
	require.NoError(t, err)
	require.True(t, ps.WardStaff.Scored())
	assert.Equal(t, 10, *ps.WardStaff.Score)
	assert.Equal(t, "SOP tersedia", ps.WardStaff.Notes)

	out.Reset()
	require.NoError(t, a.run(ctx, "status", nil))
	assert.Contains(t, out.String(), "Ruang Mawar")
	assert.Contains(t, out.String(), pointID)

	err = a.run(ctx, "add-ward", []string{"-name", "Ruang Anggrek"})
	var authErr *assessment.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, assessment.ErrNotAdmin)
}

func TestStaffUploadsEvidence(t *testing.T) {
	srv, repo := startServer(t)
	a, _ := newTestApp(t, srv.URL+"/exec")
	ctx := context.Background()
	pointID := checklist.Default().PointIDs()[0]

	file := filepath.Join(t.TempDir(), "sop.txt")
	require.NoError(t, os.WriteFile(file, []byte("standar prosedur operasional"), 0o600))

	require.NoError(t, a.run(ctx, "login", []string{"-email", "ani.perawat@rskariadi.co.id", "-password", "password123"}))
	require.NoError(t, a.run(ctx, "upload", []string{"-point", pointID, "-file", file}))

	ps, err := repo.GetPointScores("mawar", pointID)
	require.NoError(t, err)
	require.NotNil(t, ps.WardStaff)
	require.NotNil(t, ps.WardStaff.Evidence)
	assert.Equal(t, "sop.txt", ps.WardStaff.Evidence.Name)
	assert.Equal(t, "text/plain; charset=utf-8", ps.WardStaff.Evidence.Type)
}

func TestAdminManagesWardsAndUsers(t *testing.T) {
	srv, repo := startServer(t)
	a, out := newTestApp(t, srv.URL+"/exec")
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "login", []string{"-email", "admin@rskariadi.co.id", "-password", "password123"}))
	require.NoError(t, a.run(ctx, "add-ward", []string{"-name", "Ruang Anggrek"}))
	require.NoError(t, a.run(ctx, "add-user", []string{
		"-name", "Perawat Citra", "-email", "citra@rskariadi.co.id", "-password", "rahasia1", "-role", "staff", "-ward", "icu",
	}))

	wards, err := repo.GetAllWards()
	require.NoError(t, err)
	assert.Len(t, wards, len(seed.DemoWards)+1)

	citra, err := repo.GetUserByEmail("citra@rskariadi.co.id")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWardStaff, citra.Role)
	assert.Equal(t, "icu", citra.WardID)

	out.Reset()
	require.NoError(t, a.run(ctx, "summary", nil))
	assert.Contains(t, out.String(), "Ruang Anggrek")

	err = a.run(ctx, "score", []string{"-ward", "mawar", "-point", checklist.Default().PointIDs()[0], "-score", "5"})
	assert.ErrorIs(t, err, assessment.ErrReadOnly)
}

func TestSignedOutAndUnconfigured(t *testing.T) {
	srv, _ := startServer(t)
	ctx := context.Background()

	a, _ := newTestApp(t, srv.URL+"/exec")
	assert.ErrorIs(t, a.run(ctx, "status", nil), errNotSignedIn)

	require.NoError(t, a.run(ctx, "login", []string{"-email", "budi.s@rskariadi.co.id", "-password", "password123"}))
	require.NoError(t, a.run(ctx, "logout", nil))
	assert.ErrorIs(t, a.run(ctx, "summary", nil), errNotSignedIn)

	bare, _ := newTestApp(t, "")
	assert.ErrorIs(t, bare.run(ctx, "login", []string{"-email", "budi.s@rskariadi.co.id", "-password", "x"}), remote.ErrConfigMissing)

	assert.Error(t, a.run(ctx, "frobnicate", nil))
}

func TestParseRole(t *testing.T) {
	r, err := parseRole("Assessor")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssessor, r)

	r, err = parseRole("staff")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWardStaff, r)

	_, err = parseRole("janitor")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestWhoamiAndPassword(t *testing.T) {
	srv, _ := startServer(t)
	a, out := newTestApp(t, srv.URL+"/exec")
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "whoami", nil), errNotSignedIn)

	require.NoError(t, a.run(ctx, "login", []string{"-email", "bayu.perawat@rskariadi.co.id", "-password", "password123"}))
	out.Reset()
	require.NoError(t, a.run(ctx, "whoami", nil))
	assert.Contains(t, out.String(), "Perawat Bayu")
	assert.Contains(t, out.String(), "melati")

	err := a.run(ctx, "password", []string{"-current", "wrong", "-new", "rahasia-baru"})
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "current password is incorrect", apiErr.Message)

	require.NoError(t, a.run(ctx, "password", []string{"-current", "password123", "-new", "rahasia-baru"}))
	require.NoError(t, a.run(ctx, "login", []string{"-email", "bayu.perawat@rskariadi.co.id", "-password", "rahasia-baru"}))
}
