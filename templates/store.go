package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Paths of every template one integration instance needs. Checked up front
// so a create run fails before touching the workspace.
var RequiredFiles = []string{
	"sql/setup/setup_uc_connections_api.sql",
	"sql/setup/create_sample_table.sql",
	"sql/setup/apply_column_masks.sql",
	"sql/verify/verify_functions.sql",
	"sql/destroy/remove_column_masks.sql",
	"sql/destroy/drop_functions.sql",
	"sql/destroy/drop_table.sql",
	"notebooks/notebook_tokenize_table.ipynb",
	"dashboards/customer_insights_dashboard.lvdash.json",
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Store reads named template files (SQL, notebook, dashboard) below a root
// directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Load returns the raw bytes of a template by its relative path.
func (s *Store) Load(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", rel, err)
	}
	return data, nil
}

// Render loads a template and applies the substitution map over its whole
// text.
func (s *Store) Render(rel string, subs map[string]string) (string, error) {
	data, err := s.Load(rel)
	if err != nil {
		return "", err
	}
	return Substitute(string(data), subs), nil
}

// Missing reports which of the given template paths are absent.
func (s *Store) Missing(paths []string) []string {
	var missing []string
	for _, rel := range paths {
		if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil {
			missing = append(missing, rel)
		}
	}
	return missing
}

// Substitute replaces every ${KEY} placeholder that has a value in subs.
// Unknown placeholders are left untouched.
func Substitute(text string, subs map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		key := placeholderPattern.FindStringSubmatch(placeholder)[1]
		if value, ok := subs[key]; ok {
			return value
		}
		return placeholder
	})
}
