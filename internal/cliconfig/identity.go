package cliconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	machineIDPath     = "etc/machine-id"
	dbusMachineIDPath = "var/lib/dbus/machine-id"
)

// LoadDockID fills in DockID from the host machine identity when it was not
// configured explicitly. The derived ID is stable across reboots.
func LoadDockID(cfg *Config) error {
	return loadDockID(cfg, "/")
}

func loadDockID(cfg *Config, root string) error {
	if cfg.DockID != "" {
		return nil
	}

	id, err := readMachineID(root)
	if err != nil {
		return fmt.Errorf("dock-id is required (machine id: %w)", err)
	}

	cfg.DockID = deriveDockID(id)
	return nil
}

// readMachineID returns the systemd machine id, falling back to the
// D-Bus location on systems without /etc/machine-id.
func readMachineID(root string) (string, error) {
	var lastErr error
	for _, p := range []string{machineIDPath, dbusMachineIDPath} {
		b, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			lastErr = err
			continue
		}
		id := strings.TrimSpace(string(b))
		if id != "" {
			return id, nil
		}
		lastErr = fmt.Errorf("%s is empty", p)
	}
	return "", lastErr
}

// deriveDockID derives a short stable ID from the machine id.
// The ID is the first 6 bytes of SHA256(machine id) in hex, so the raw
// machine id never appears in store paths.
func deriveDockID(machineID string) string {
	sum := sha256.Sum256([]byte(machineID))
	return "dock-" + hex.EncodeToString(sum[:6])
}
