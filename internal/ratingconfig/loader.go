package ratingconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file on top of Default() and returns the Config with raw bytes.
// An empty path returns the defaults.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	if path == "" {
		return Default(), nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rating config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML onto the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode rating config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
