package types

import (
	"github.com/lepinkainen/pageconv/config"
	"github.com/sirupsen/logrus"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Logger  *logrus.Logger
	Config  *config.Config
}

// Log returns the application logger, or a fresh one when none was set
func (c *AppContext) Log() *logrus.Logger {
	if c == nil || c.Logger == nil {
		return logrus.New()
	}
	return c.Logger
}

// GetVersion returns the version string, falling back to DefaultVersion
func (c *AppContext) GetVersion() string {
	if c == nil || c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}
