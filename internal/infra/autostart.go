package infra

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/firecorners/cornerd/internal/domain"
)

const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name=FireCorners
Comment=Hot corners daemon
Exec={{quote .ExecutablePath}} run
Terminal=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`

// XDGAutostartManager implements domain.LoginItemManager with an XDG
// autostart desktop entry. Session managers read it at the next login.
type XDGAutostartManager struct {
	dir  string
	path string
}

// NewXDGAutostartManager creates an autostart manager for the given paths.
func NewXDGAutostartManager(p *Paths) *XDGAutostartManager {
	return &XDGAutostartManager{dir: p.LoginItemDir, path: p.LoginItemPath}
}

func (m *XDGAutostartManager) content(execPath string) ([]byte, error) {
	tmpl, err := template.New("desktop").Funcs(template.FuncMap{"quote": quoteExecArg}).Parse(desktopEntryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse desktop entry template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ ExecutablePath string }{execPath}); err != nil {
		return nil, fmt.Errorf("failed to execute desktop entry template: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the desktop entry.
func (m *XDGAutostartManager) Install(execPath string) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}
	data, err := m.content(execPath)
	if err != nil {
		return err
	}
	return atomicWriteFile(m.path, data, 0644)
}

// Uninstall removes the desktop entry.
func (m *XDGAutostartManager) Uninstall() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsInstalled checks if the desktop entry exists.
func (m *XDGAutostartManager) IsInstalled() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// NeedsUpdate checks if the entry exists but differs from what Install writes.
func (m *XDGAutostartManager) NeedsUpdate(execPath string) bool {
	if !m.IsInstalled() {
		return false
	}
	current, err := os.ReadFile(m.path)
	if err != nil {
		return true
	}
	expected, err := m.content(execPath)
	if err != nil {
		return true
	}
	return !bytes.Equal(current, expected)
}

// Update rewrites the desktop entry.
func (m *XDGAutostartManager) Update(execPath string) error {
	return m.Install(execPath)
}

// GetPath returns the desktop entry path.
func (m *XDGAutostartManager) GetPath() string {
	return m.path
}

// quoteExecArg quotes an Exec= argument the way desktop entry files require.
func quoteExecArg(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// Ensure XDGAutostartManager implements domain.LoginItemManager.
var _ domain.LoginItemManager = (*XDGAutostartManager)(nil)
