// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Set
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, RedisPassword, "  hunter2  \n")
				writeFile(t, dir, CatalogDSN, "postgres://copilot@db/studies\n")
				return dir
			},
			want: Set{
				RedisPassword: "hunter2",
				CatalogDSN:    "postgres://copilot@db/studies",
			},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Set{},
		},
		{
			name: "skips empty files, dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, RedisPassword, "pw")
				writeFile(t, dir, "empty-key", "   \n\t")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Set{RedisPassword: "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFileIsLogged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, RedisPassword, "pw")
	bad := filepath.Join(dir, CatalogDSN)
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	var buf bytes.Buffer
	got, err := Load(dir, zerolog.New(&buf))
	require.NoError(t, err)
	assert.Equal(t, Set{RedisPassword: "pw"}, got)
	assert.Contains(t, buf.String(), CatalogDSN)
}

func TestFill(t *testing.T) {
	s := Set{RedisPassword: "from-file"}

	var empty string
	s.Fill(&empty, RedisPassword)
	assert.Equal(t, "from-file", empty)

	explicit := "from-config"
	s.Fill(&explicit, RedisPassword)
	assert.Equal(t, "from-config", explicit)

	var missing string
	s.Fill(&missing, CatalogDSN)
	assert.Empty(t, missing)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
