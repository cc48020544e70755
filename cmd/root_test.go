package cmd

import (
	"bytes"
	"nutrition-catalog/domain"
	"nutrition-catalog/pkg/jwt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	err := root.Execute()
	return out.String(), err
}

func localEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSTORE_BACKEND", "memory")
	t.Setenv("BLOBSTORE_BACKEND", "local")
	t.Setenv("ASSET_DIR", filepath.Join(dir, "assets"))
	t.Setenv("LEGACY_DB_DIR", filepath.Join(dir, "legacy"))
	t.Setenv("EVENT_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("MODERATOR_IDS", "mod")
}

func TestTokenCmd(t *testing.T) {
	localEnv(t)
	out, err := run(t, "token", "--user", "alice", "--email", "alice@example.com")
	require.NoError(t, err)

	user, err := jwt.NewJWTService("cli-secret").GetIdentityByToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestCatalogCmd_Filters(t *testing.T) {
	localEnv(t)
	out, err := run(t, "catalog", "--user", "alice", "--category", "fruits", "--search", "ban")
	require.NoError(t, err)
	assert.Contains(t, out, "Banana")
	assert.NotContains(t, out, "Apple")

	_, err = run(t, "catalog", "--category", "candy")
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestModerateCmd_RequiresModerator(t *testing.T) {
	localEnv(t)
	_, err := run(t, "moderate", "list", "--as", "alice")
	assert.ErrorIs(t, err, domain.ErrNotModerator)

	out, err := run(t, "moderate", "list", "--as", "mod")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATED")
}
