// Package config loads the dashboard layout and Sheets credentials from
// viper for the command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/javajack/xldash"
	"github.com/javajack/xldash/sheets"
	"github.com/spf13/viper"
)

// LoadLayout returns DefaultLayout overridden by the "layout" section.
// Keys absent from the config keep their defaults.
func LoadLayout(v *viper.Viper) (xldash.Layout, error) {
	layout := xldash.DefaultLayout()
	if v.IsSet("layout") {
		if err := v.UnmarshalKey("layout", &layout); err != nil {
			return layout, fmt.Errorf("failed to parse layout: %w", err)
		}
	}
	return layout, nil
}

// LoadHealthBands returns the "health_bands" list, or the default bands
// when the key is absent.
func LoadHealthBands(v *viper.Viper) (xldash.HealthBands, error) {
	if !v.IsSet("health_bands") {
		return xldash.DefaultHealthBands, nil
	}
	var bands xldash.HealthBands
	if err := v.UnmarshalKey("health_bands", &bands); err != nil {
		return nil, fmt.Errorf("failed to parse health bands: %w", err)
	}
	return bands, nil
}

// LoadSheetsConfig loads Google Sheets configuration. It follows this
// precedence:
// 1. Viper configuration (from config file or XLDASH_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()
	fields := map[string]*string{
		"sheets.client_id":            &config.ClientID,
		"sheets.client_secret":        &config.ClientSecret,
		"sheets.refresh_token":        &config.RefreshToken,
		"sheets.service_account_path": &config.ServiceAccountPath,
		"sheets.spreadsheet_id":       &config.SpreadsheetID,
		"sheets.endpoint":             &config.Endpoint,
	}
	for key, field := range fields {
		if s := v.GetString(key); s != "" {
			*field = s
		}
	}
	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
