package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.odysia.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".odysia")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the UDS socket path for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// BackendDBPath returns the mock backend's backend.db path.
func BackendDBPath(name string) string {
	return filepath.Join(Dir(name), "backend.db")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "odysiad.log")
}

// DashboardLogPath returns the terminal dashboard's log file path.
func DashboardLogPath(name string) string {
	return filepath.Join(LogDir(name), "odysia.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
