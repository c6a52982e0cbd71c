package session

import "github.com/adethefirst1/odysia/internal/config"

const DefaultSessionName = "client"

// Resolve determines the active session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_session
// 3. "client"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}

// RoleFor picks the dashboard role for a session. A session named after a
// role uses that role; any other session uses the configured one.
func RoleFor(name, configured string) string {
	switch name {
	case "client", "expert":
		return name
	}
	if configured == "" {
		return "client"
	}
	return configured
}
