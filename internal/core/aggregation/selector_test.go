package aggregation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSelector(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadSelectors_DefaultsWhenDirMissing(t *testing.T) {
	sels, err := LoadSelectors(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Equal(t, DefaultSelectors(), sels)

	require.Equal(t, KindDownloads, sels[0].Kind)
	require.Equal(t, KindDeletes, sels[1].Kind)
	require.Equal(t, KindSessions, sels[2].Kind)
	require.True(t, sels[2].Optional)
	for _, s := range sels {
		require.NoError(t, s.Validate())
	}
}

func TestLoadSelectors_OverridesByKind(t *testing.T) {
	dir := t.TempDir()
	writeSelector(t, dir, "deletes.yaml", `
kind: deletes
category: APP_USAGE
prefer: ["Uninstall", "Deletion"]
`)
	writeSelector(t, dir, "notes.txt", "ignored")
	writeSelector(t, dir, "empty.yaml", "# nothing here\n")

	sels, err := LoadSelectors(dir)
	require.NoError(t, err)
	require.Len(t, sels, 3)
	require.Equal(t, []string{"Uninstall", "Deletion"}, sels[1].Prefer)
	require.False(t, sels[1].Optional)
	require.Len(t, sels[1].Fingerprint, 64)
	require.Equal(t, ReportAppDownloads, sels[0].NameExact)
}

func TestLoadSelectors_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "unknown kind", files: map[string]string{"a.yaml": "kind: crashes\nname_exact: X\n"}},
		{name: "nothing to match", files: map[string]string{"a.yaml": "kind: downloads\ncategory: APP_USAGE\n"}},
		{name: "bad yaml", files: map[string]string{"a.yaml": "kind: [\n"}},
		{name: "duplicate kind", files: map[string]string{
			"a.yaml": "kind: sessions\nname_exact: A\n",
			"b.yaml": "kind: sessions\nname_exact: B\n",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tc.files {
				writeSelector(t, dir, name, body)
			}
			_, err := LoadSelectors(dir)
			require.Error(t, err)
		})
	}
}

func TestLoadSelectors_OptionalOverride(t *testing.T) {
	dir := t.TempDir()
	writeSelector(t, dir, "sessions.yml", "kind: sessions\nname_exact: App Sessions Detailed\noptional: false\n")

	sels, err := LoadSelectors(dir)
	require.NoError(t, err)
	require.False(t, sels[2].Optional)
	require.Equal(t, "App Sessions Detailed", sels[2].NameExact)
}
