package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"structfill/internal/config"
)

// envConfig holds an inline JSON or YAML document, as written by a job
// scheduler or a CI step.
const envConfig = "STRUCTFILL_CONFIG"

// overlayConfigFromEnv applies the document in STRUCTFILL_CONFIG on top of the
// file at cfgPath (or the defaults when the file does not exist yet) and
// writes the merged configuration back in the file's own format.
func overlayConfigFromEnv(cfgPath string) (bool, error) {
	payload := strings.TrimSpace(os.Getenv(envConfig))
	if payload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("environment provided configuration but no -config path supplied")
	}

	cfg, err := baseConfig(cfgPath)
	if err != nil {
		return false, err
	}
	if err := decodePayload(payload, cfg); err != nil {
		return false, err
	}
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate environment config: %w", err)
	}

	data, err := encodeConfig(cfgPath, cfg)
	if err != nil {
		return false, err
	}
	if err := writeFileAtomic(cfgPath, data); err != nil {
		return false, err
	}
	return true, nil
}

func baseConfig(cfgPath string) (*config.Config, error) {
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load base config: %w", err)
	}
	return cfg, nil
}

// decodePayload treats a document opening with '{' as JSON and anything else
// as YAML. Both merge into cfg, leaving absent keys untouched.
func decodePayload(payload string, cfg *config.Config) error {
	if strings.HasPrefix(payload, "{") {
		if err := json.Unmarshal([]byte(payload), cfg); err != nil {
			return fmt.Errorf("decode environment config json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal([]byte(payload), cfg); err != nil {
		return fmt.Errorf("decode environment config yaml: %w", err)
	}
	return nil
}

func encodeConfig(cfgPath string, cfg *config.Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(cfgPath)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("marshal config yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal config yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal config json: %w", err)
		}
		return data, nil
	}
}

// writeFileAtomic replaces path so a concurrent reader never sees a partial
// file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".structfill-config-*")
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
