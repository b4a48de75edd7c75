package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// LoadServerEnv assembles the environment for the game server process.
// Priority (lowest to highest): env_file, then inline env from the config.
// Relative env_file paths resolve against configDir.
func LoadServerEnv(server ServerConfig, configDir string) (map[string]string, error) {
	var fileEnv map[string]string
	var err error

	if server.EnvFile != "" {
		fileEnv, err = LoadEnvFile(resolvePath(server.EnvFile, configDir))
		if err != nil {
			return nil, fmt.Errorf("loading server env file: %w", err)
		}
	}

	return MergeEnv(fileEnv, server.Env), nil
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
