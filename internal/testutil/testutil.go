// Package testutil generates synthetic screen captures and recapture
// degradations for tests.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// GetProjectRoot walks up from this file to the directory holding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find go.mod above " + filename)
		}
		dir = parent
	}
}

// GetTestDataDir returns the repository testdata directory.
func GetTestDataDir(t *testing.T) string {
	t.Helper()
	root, err := GetProjectRoot()
	require.NoError(t, err, "failed to find project root")
	return filepath.Join(root, "testdata")
}

// SamplePayload returns a payload with plausible field values.
func SamplePayload() payload.Payload {
	return payload.Payload{
		SubjectID:    "jdoe",
		DeviceLabel:  "workstation-7",
		DeviceUUID:   "3f2a1b9c-4d5e-6f70-8192-a3b4c5d6e7f8",
		EpochSeconds: 1700000000,
	}
}

// ShortPayload returns the smallest payload that still passes structural
// validation, for capacity-sensitive tests.
func ShortPayload() payload.Payload {
	return payload.Payload{
		SubjectID:    "u1",
		DeviceLabel:  "d1",
		DeviceUUID:   "aa11",
		EpochSeconds: 1700000000,
	}
}
