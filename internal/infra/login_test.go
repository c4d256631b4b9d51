package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoginPaths(t *testing.T, itemName string) *Paths {
	t.Helper()
	home := t.TempDir()
	p := PathsForHome(home)
	p.LoginItemDir = filepath.Join(home, "items")
	p.LoginItemPath = filepath.Join(p.LoginItemDir, itemName)
	return p
}

func TestLaunchdManager_InstallUpdateUninstall(t *testing.T) {
	p := testLoginPaths(t, LaunchdLabel+".plist")
	cmds := newMockCommandRunner()
	m := NewLaunchdManager(p, cmds, true)

	assert.False(t, m.IsInstalled())
	assert.False(t, m.NeedsUpdate("/usr/local/bin/firecorners"))

	require.NoError(t, m.Install("/usr/local/bin/firecorners"))
	assert.True(t, m.IsInstalled())
	assert.False(t, m.NeedsUpdate("/usr/local/bin/firecorners"))
	assert.True(t, m.NeedsUpdate("/opt/bin/firecorners"))

	content, err := os.ReadFile(m.GetPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "<string>com.firecorners.daemon</string>")
	assert.Contains(t, string(content), "<string>/usr/local/bin/firecorners</string>")
	assert.Contains(t, string(content), "<string>run</string>")
	assert.Contains(t, string(content), filepath.Join(p.AgentLogDir, "firecorners.log"))

	require.NoError(t, m.Update("/opt/bin/firecorners"))
	assert.False(t, m.NeedsUpdate("/opt/bin/firecorners"))

	require.NoError(t, m.Uninstall())
	assert.False(t, m.IsInstalled())

	assert.Equal(t, []string{
		"launchctl load " + m.GetPath(),
		"launchctl unload " + m.GetPath(),
		"launchctl load " + m.GetPath(),
		"launchctl unload " + m.GetPath(),
	}, cmds.Commands())
}

func TestLaunchdManager_InactiveSkipsLaunchctl(t *testing.T) {
	p := testLoginPaths(t, LaunchdLabel+".plist")
	cmds := newMockCommandRunner()
	m := NewLaunchdManager(p, cmds, false)

	require.NoError(t, m.Install("/usr/local/bin/firecorners"))
	require.NoError(t, m.Uninstall())
	assert.Empty(t, cmds.Commands())
}

func TestXDGAutostartManager(t *testing.T) {
	p := testLoginPaths(t, "firecorners.desktop")
	m := NewXDGAutostartManager(p)

	require.NoError(t, m.Install("/home/me/my apps/firecorners"))
	content, err := os.ReadFile(m.GetPath())
	require.NoError(t, err)

	var execLine string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "Exec=") {
			execLine = line
		}
	}
	assert.Equal(t, `Exec="/home/me/my apps/firecorners" run`, execLine)
	assert.False(t, m.NeedsUpdate("/home/me/my apps/firecorners"))
	assert.True(t, m.NeedsUpdate("/usr/bin/firecorners"))

	require.NoError(t, m.Uninstall())
	assert.False(t, m.IsInstalled())
	require.NoError(t, m.Uninstall(), "uninstall is idempotent")
}
