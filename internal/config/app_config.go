// Package config loads llm-fuse defaults from global and project configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/llm-fuse/internal/types"
	"github.com/temirov/llm-fuse/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// HomeDirectory overrides the user home directory holding the global configuration.
	HomeDirectory string
}

// ApplicationConfiguration holds aggregation defaults. Pointer and empty values are unset.
type ApplicationConfiguration struct {
	Include         string   `mapstructure:"include"`
	Exclude         string   `mapstructure:"exclude"`
	Output          string   `mapstructure:"output"`
	Git             *bool    `mapstructure:"git"`
	MaxTokens       *int     `mapstructure:"max_tokens"`
	IncludeGit      *bool    `mapstructure:"include_git"`
	SkipDirectories []string `mapstructure:"skip_directories"`
	Copy            *bool    `mapstructure:"copy"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local
// or explicit file, the latter overriding the former.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if resolvedHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = resolvedHome
		}
	}
	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.ConfigurationDirectoryName, utils.ConfigurationFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.LocalConfigurationFileName)
}

// loadConfigurationFromPath reads path, treating a missing file as empty unless required is set.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("%w: stat configuration %s: %v", types.ErrConfiguration, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("%w: configuration path %s is a directory", types.ErrConfiguration, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("%w: read configuration from %s: %v", types.ErrConfiguration, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("%w: decode configuration from %s: %v", types.ErrConfiguration, path, decodeErr)
	}
	if config.MaxTokens != nil && *config.MaxTokens <= 0 {
		return ApplicationConfiguration{}, fmt.Errorf("%w: max_tokens in %s must be positive, got %d", types.ErrConfiguration, path, *config.MaxTokens)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Include != "" {
		result.Include = override.Include
	}
	if override.Exclude != "" {
		result.Exclude = override.Exclude
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Git != nil {
		result.Git = cloneBool(override.Git)
	}
	if override.MaxTokens != nil {
		result.MaxTokens = cloneInt(override.MaxTokens)
	}
	if override.IncludeGit != nil {
		result.IncludeGit = cloneBool(override.IncludeGit)
	}
	if len(override.SkipDirectories) > 0 {
		result.SkipDirectories = append([]string{}, utils.DeduplicatePatterns(override.SkipDirectories)...)
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	return result
}

// BoolValue returns the value of an optional flag, or fallback when unset.
func BoolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// IntValue returns the value of an optional number, or fallback when unset.
func IntValue(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
