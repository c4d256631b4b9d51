// Package infra implements infrastructure concerns (config file, pointer,
// OS actions, processes, login items).
package infra

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

const (
	// ConfigDirName is the per-user directory holding the document and logs.
	ConfigDirName = ".firecorners"
	// ConfigFileName is the document file name.
	ConfigFileName = "config.json"

	// LaunchdLabel is the LaunchAgent label used for launch at login.
	LaunchdLabel = "com.firecorners.daemon"

	socketName = "firecorners.sock"
)

// Paths holds every per-user file location the daemon touches.
type Paths struct {
	HomeDir       string
	ConfigDir     string
	ConfigPath    string
	LogPath       string
	ErrorLogPath  string
	LockPath      string
	InstancePath  string
	SocketPath    string
	LoginItemDir  string
	LoginItemPath string
	AgentLogDir   string // launchd stdout/stderr for the LaunchAgent
}

// DetectPaths resolves paths for the real user (honours SUDO_USER).
func DetectPaths() *Paths {
	p := PathsForHome(GetRealUserHome())
	if sock, err := SocketPath(); err == nil {
		p.SocketPath = sock
	}
	return p
}

// PathsForHome builds paths rooted at home (for testing).
// The socket lives in the config dir; DetectPaths moves it to the runtime dir.
func PathsForHome(home string) *Paths {
	configDir := filepath.Join(home, ConfigDirName)
	p := &Paths{
		HomeDir:      home,
		ConfigDir:    configDir,
		ConfigPath:   filepath.Join(configDir, ConfigFileName),
		LogPath:      filepath.Join(configDir, "firecorners.log"),
		ErrorLogPath: filepath.Join(configDir, "firecorners.error.log"),
		LockPath:     filepath.Join(configDir, "daemon.lock"),
		InstancePath: filepath.Join(configDir, "daemon.json"),
		SocketPath:   filepath.Join(configDir, socketName),
		AgentLogDir:  filepath.Join(home, "Library", "Logs", "FireCorners"),
	}

	if runtime.GOOS == "darwin" {
		p.LoginItemDir = filepath.Join(home, "Library", "LaunchAgents")
		p.LoginItemPath = filepath.Join(p.LoginItemDir, LaunchdLabel+".plist")
	} else {
		p.LoginItemDir = filepath.Join(xdgConfigHome(home), "autostart")
		p.LoginItemPath = filepath.Join(p.LoginItemDir, "firecorners.desktop")
	}
	return p
}

// WithConfigPath returns a copy of p using an alternate document path.
func (p *Paths) WithConfigPath(path string) *Paths {
	out := *p
	if path != "" {
		out.ConfigPath = ExpandHome(path, p.HomeDir)
	}
	return &out
}

// RuntimeDir returns the directory for the control socket. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/firecorners-runtime-<uid> (created)
func RuntimeDir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := filepath.Join(os.TempDir(), fmt.Sprintf("firecorners-runtime-%d", uid))
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the control socket path.
func SocketPath() (string, error) {
	dir, err := RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

// ExpandHome expands a leading ~ to home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
// Under sudo, os.UserHomeDir() returns /var/root, so we use SUDO_USER to find the real user.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

func xdgConfigHome(home string) string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home, ".config")
}
