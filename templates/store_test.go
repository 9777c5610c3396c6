package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	subs := map[string]string{
		"PREFIX":        "demo",
		"SKYFLOW_TABLE": "persons",
	}
	out := Substitute("CREATE CATALOG ${PREFIX}_catalog -- ${SKYFLOW_TABLE}", subs)
	assert.Equal(t, "CREATE CATALOG demo_catalog -- persons", out)
}

func TestSubstituteLeavesUnknownPlaceholders(t *testing.T) {
	out := Substitute("SELECT '${UNKNOWN_KEY}' FROM ${PREFIX}_t", map[string]string{"PREFIX": "demo"})
	assert.Equal(t, "SELECT '${UNKNOWN_KEY}' FROM demo_t", out)
}

func TestSubstituteRepeatedPlaceholder(t *testing.T) {
	out := Substitute("${PREFIX}.${PREFIX}", map[string]string{"PREFIX": "a"})
	assert.Equal(t, "a.a", out)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sql"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sql", "q.sql"), []byte("USE ${PREFIX}_catalog;"), 0o644))

	store := NewStore(dir)
	out, err := store.Render("sql/q.sql", map[string]string{"PREFIX": "demo"})
	require.NoError(t, err)
	assert.Equal(t, "USE demo_catalog;", out)
}

func TestRenderMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Render("sql/nope.sql", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sql/nope.sql")
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.sql"), []byte("SELECT 1"), 0o644))

	store := NewStore(dir)
	missing := store.Missing([]string{"present.sql", "absent.sql"})
	assert.Equal(t, []string{"absent.sql"}, missing)
}

// The shipped templates must all parse against the full substitution set:
// a leftover ${...} means a key fell out of the map.
func TestShippedTemplatesHaveNoUnknownPlaceholders(t *testing.T) {
	subs := map[string]string{
		"PREFIX":            "demo",
		"SKYFLOW_VAULT_URL": "vault.skyflowapis.com",
		"SKYFLOW_VAULT_ID":  "v123",
		"SKYFLOW_TABLE":     "persons",
		"PLAIN_TEXT_GROUPS": "auditor",
		"MASKED_GROUPS":     "customer_service",
		"REDACTED_GROUPS":   "marketing",
	}

	store := NewStore(".")
	require.Empty(t, store.Missing(RequiredFiles))

	for _, rel := range RequiredFiles {
		out, err := store.Render(rel, subs)
		require.NoError(t, err, rel)
		assert.NotContains(t, out, "${", "unresolved placeholder in %s", rel)
	}
}
