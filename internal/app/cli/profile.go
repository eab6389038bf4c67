package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultProfileName = ".petportal.yaml"
	defaultTimeout     = 30 * time.Second
	envPrefix          = "PETPORTAL_"
)

// Profile points the CLI at a listing backend.
type Profile struct {
	BackendURL       string `yaml:"backend_url"`
	UploadServiceURL string `yaml:"upload_service_url"`
	OwnerID          string `yaml:"owner_id"`
	Timeout          string `yaml:"timeout"`
}

// DefaultProfilePath is $HOME/.petportal.yaml, or the working directory when
// no home directory is known.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultProfileName
	}
	return filepath.Join(home, defaultProfileName)
}

// LoadProfile reads path and applies PETPORTAL_* overrides. A missing file is
// only an error when the caller asked for it explicitly.
func LoadProfile(path string, explicit bool) (Profile, error) {
	var profile Profile
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	override(&profile.BackendURL, "BACKEND_URL")
	override(&profile.UploadServiceURL, "UPLOAD_SERVICE_URL")
	override(&profile.OwnerID, "OWNER_ID")
	override(&profile.Timeout, "TIMEOUT")
	if profile.UploadServiceURL == "" {
		profile.UploadServiceURL = profile.BackendURL
	}
	return profile, nil
}

// HTTPTimeout parses Timeout, defaulting to 30s.
func (p Profile) HTTPTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(p.Timeout)
	if raw == "" {
		return defaultTimeout, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil || timeout <= 0 {
		return 0, fmt.Errorf("timeout must be a positive duration, got %q", raw)
	}
	return timeout, nil
}

func override(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		*target = value
	}
}
