package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringKV keeps session keys in the OS keychain, with a JSON file fallback
// for environments that have no keyring service.
type KeyringKV struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyringKV creates a keyring-backed KV.
func NewKeyringKV(serviceName, fallbackPath string) *KeyringKV {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "sats-arcade"
	}
	return &KeyringKV{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

func (k *KeyringKV) Get(key string) (string, bool, error) {
	val, err := keyring.Get(k.service, key)
	if err == nil {
		return val, true, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", false, fmt.Errorf("sessionstore: keyring get %s: %w", key, err)
	}
	return k.getFallback(key)
}

// SetMany writes keys one by one and removes the ones already written if a
// later write fails.
func (k *KeyringKV) SetMany(values map[string]string) error {
	var written []string
	for key, val := range values {
		if err := k.set(key, val); err != nil {
			_ = k.Delete(written...)
			return err
		}
		written = append(written, key)
	}
	return nil
}

func (k *KeyringKV) set(key, val string) error {
	err := keyring.Set(k.service, key, val)
	if err == nil {
		return nil
	}
	if !isKeyringUnavailable(err) {
		return fmt.Errorf("sessionstore: keyring set %s: %w", key, err)
	}
	return k.setFallback(key, val)
}

func (k *KeyringKV) Delete(keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := keyring.Delete(k.service, key)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
			errs = append(errs, err)
		}
	}
	// Fallback cleanup runs even if the keyring delete failed.
	ferr := k.deleteFallback(keys...)
	if len(errs) > 0 {
		return fmt.Errorf("sessionstore: keyring delete failed: %w", errs[0])
	}
	return ferr
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

func (k *KeyringKV) getFallback(key string) (string, bool, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", false, nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", false, err
	}
	val, ok := data[key]
	return val, ok, nil
}

func (k *KeyringKV) setFallback(key, val string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("sessionstore: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[key] = val
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringKV) deleteFallback(keys ...string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	for _, key := range keys {
		delete(data, key)
	}
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringKV) readFallbackUnlocked() (map[string]string, error) {
	out := map[string]string{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("sessionstore: read fallback: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("sessionstore: decode fallback: %w", err)
	}
	return out, nil
}

func (k *KeyringKV) writeFallbackUnlocked(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(k.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("sessionstore: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sessionstore: encode fallback: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("sessionstore: write fallback: %w", err)
	}
	return nil
}
