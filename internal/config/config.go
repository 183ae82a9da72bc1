package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ManualFolder is one user-configured scan directory
type ManualFolder struct {
	Path      string
	Recursive bool
}

// Config holds all application configuration
type Config struct {
	// Scan sources
	XboxPackagesRoot string // UWP package install root (empty disables the scanner)
	GamePassRoot     string // fixed Game Pass library root (empty disables the scanner)
	ManualFolders    []ManualFolder

	// Providers
	SGDBApiKey       string // SteamGridDB API key (empty disables the provider)
	IGDBClientID     string
	IGDBClientSecret string

	// Pipeline
	Workers          int // bounded concurrency for resolve/acquire (default: 4)
	ProviderDelayMs  int // delay between successive calls to one provider (default: 350)
	HeadTimeoutSec   int // existence checks (default: 5)
	SearchTimeoutSec int // title searches and metadata lookups (default: 30)
	FetchTimeoutSec  int // image downloads (default: 60)

	// Server
	ServerPort string

	// Scheduling
	ScanCron string // cron spec for background imports in serve mode

	// Paths
	DatabaseFile     string // $CONFIG_DIR/gamarr.db
	ArtworkDir       string // $CONFIG_DIR/artwork
	TokenFile        string // $CONFIG_DIR/igdb_token.json
	FranchiseMapFile string // optional override for the built-in franchise table

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("WORKERS", 4)
	viper.SetDefault("PROVIDER_DELAY_MS", 350)
	viper.SetDefault("HEAD_TIMEOUT_SECONDS", 5)
	viper.SetDefault("SEARCH_TIMEOUT_SECONDS", 30)
	viper.SetDefault("FETCH_TIMEOUT_SECONDS", 60)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SCAN_CRON", "0 */6 * * *")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "gamarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		XboxPackagesRoot: viper.GetString("XBOX_PACKAGES_ROOT"),
		GamePassRoot:     viper.GetString("GAMEPASS_ROOT"),
		ManualFolders:    parseManualFolders(viper.GetString("MANUAL_FOLDERS")),

		SGDBApiKey:       viper.GetString("SGDB_API_KEY"),
		IGDBClientID:     viper.GetString("IGDB_CLIENT_ID"),
		IGDBClientSecret: viper.GetString("IGDB_CLIENT_SECRET"),

		Workers:          viper.GetInt("WORKERS"),
		ProviderDelayMs:  viper.GetInt("PROVIDER_DELAY_MS"),
		HeadTimeoutSec:   viper.GetInt("HEAD_TIMEOUT_SECONDS"),
		SearchTimeoutSec: viper.GetInt("SEARCH_TIMEOUT_SECONDS"),
		FetchTimeoutSec:  viper.GetInt("FETCH_TIMEOUT_SECONDS"),

		ServerPort: viper.GetString("SERVER_PORT"),
		ScanCron:   viper.GetString("SCAN_CRON"),

		DatabaseFile:     filepath.Join(configDir, "gamarr.db"),
		ArtworkDir:       filepath.Join(configDir, "artwork"),
		TokenFile:        filepath.Join(configDir, "igdb_token.json"),
		FranchiseMapFile: viper.GetString("FRANCHISE_MAP_FILE"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if config.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1")
	}

	if config.XboxPackagesRoot == "" && config.GamePassRoot == "" && len(config.ManualFolders) == 0 {
		return nil, fmt.Errorf("no scan sources configured: set XBOX_PACKAGES_ROOT, GAMEPASS_ROOT or MANUAL_FOLDERS")
	}

	return config, nil
}

// parseManualFolders parses MANUAL_FOLDERS entries of the form
// "path" or "path|recursive", separated by commas
func parseManualFolders(raw string) []ManualFolder {
	var folders []ManualFolder
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		folder := ManualFolder{Path: part}
		if idx := strings.LastIndex(part, "|"); idx > 0 {
			folder.Path = strings.TrimSpace(part[:idx])
			folder.Recursive = strings.EqualFold(strings.TrimSpace(part[idx+1:]), "recursive")
		}
		folders = append(folders, folder)
	}
	return folders
}
