package infra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/firecorners/cornerd/internal/domain"
)

// LaunchAgent plist template (runs as user)
const launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>Crashed</key>
        <true/>
    </dict>

    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>

    <key>StandardErrorPath</key>
    <string>{{.ErrorLogPath}}</string>

    <key>ProcessType</key>
    <string>Interactive</string>

    <key>ThrottleInterval</key>
    <integer>10</integer>
</dict>
</plist>
`

const launchctlTimeout = 10 * time.Second

type plistConfig struct {
	Label          string
	ExecutablePath string
	LogPath        string
	ErrorLogPath   string
}

// LaunchdManagerImpl implements domain.LoginItemManager with a per-user LaunchAgent.
type LaunchdManagerImpl struct {
	plistDir  string
	plistPath string
	logDir    string
	cmdRunner CommandRunner
	// activate loads/unloads the job with launchctl. The running daemon
	// reconciles with activate=false so it never unloads itself.
	activate bool
}

// NewLaunchdManager creates a LaunchAgent manager for the given paths.
func NewLaunchdManager(p *Paths, cmdRunner CommandRunner, activate bool) *LaunchdManagerImpl {
	return &LaunchdManagerImpl{
		plistDir:  p.LoginItemDir,
		plistPath: p.LoginItemPath,
		logDir:    p.AgentLogDir,
		cmdRunner: cmdRunner,
		activate:  activate,
	}
}

// generatePlistContent creates plist content for the given exec path.
func (m *LaunchdManagerImpl) generatePlistContent(execPath string) ([]byte, error) {
	config := plistConfig{
		Label:          LaunchdLabel,
		ExecutablePath: execPath,
		LogPath:        filepath.Join(m.logDir, "firecorners.log"),
		ErrorLogPath:   filepath.Join(m.logDir, "firecorners.error.log"),
	}

	tmpl, err := template.New("plist").Parse(launchAgentTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plist template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("failed to execute plist template: %w", err)
	}

	return buf.Bytes(), nil
}

// Install creates the plist and, when activating, loads it.
func (m *LaunchdManagerImpl) Install(execPath string) error {
	if err := m.write(execPath); err != nil {
		return err
	}
	return m.load()
}

// Uninstall unloads and removes the plist.
func (m *LaunchdManagerImpl) Uninstall() error {
	if !m.IsInstalled() {
		return nil
	}
	// Unload first (ignore errors if not loaded)
	_ = m.unload()

	return os.Remove(m.plistPath)
}

// IsInstalled checks if plist is installed.
func (m *LaunchdManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.plistPath)
	return err == nil
}

// NeedsUpdate checks if plist exists but has different content than expected.
func (m *LaunchdManagerImpl) NeedsUpdate(execPath string) bool {
	if !m.IsInstalled() {
		return false // Doesn't exist, needs install not update
	}

	currentContent, err := os.ReadFile(m.plistPath)
	if err != nil {
		return true // Can't read, assume needs update
	}

	expectedContent, err := m.generatePlistContent(execPath)
	if err != nil {
		return true
	}

	return !bytes.Equal(currentContent, expectedContent)
}

// Update unloads, rewrites the plist, and reloads.
func (m *LaunchdManagerImpl) Update(execPath string) error {
	_ = m.unload()
	if err := m.write(execPath); err != nil {
		return err
	}
	return m.load()
}

// GetPath returns the plist file path.
func (m *LaunchdManagerImpl) GetPath() string {
	return m.plistPath
}

func (m *LaunchdManagerImpl) write(execPath string) error {
	if err := os.MkdirAll(m.plistDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(m.logDir, 0755); err != nil {
		return err
	}

	content, err := m.generatePlistContent(execPath)
	if err != nil {
		return fmt.Errorf("failed to generate plist content: %w", err)
	}
	return atomicWriteFile(m.plistPath, content, 0644)
}

// load loads the plist using launchctl.
// Note: `launchctl load` is deprecated but still works on macOS.
func (m *LaunchdManagerImpl) load() error {
	if !m.activate {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), launchctlTimeout)
	defer cancel()
	return m.cmdRunner.Run(ctx, "launchctl", "load", m.plistPath)
}

// unload unloads the plist using launchctl.
func (m *LaunchdManagerImpl) unload() error {
	if !m.activate {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), launchctlTimeout)
	defer cancel()
	return m.cmdRunner.Run(ctx, "launchctl", "unload", m.plistPath)
}

// Ensure LaunchdManagerImpl implements domain.LoginItemManager.
var _ domain.LoginItemManager = (*LaunchdManagerImpl)(nil)
