package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

const UsageFile = "usage.json"

// UpdateUsage stores the stats inside an existing workspace. Outside one it
// is a no-op, so metering alone never creates .learnroad/.
func (r *FilesystemRepository) UpdateUsage(stats ai.UsageStats) error {
	if !r.IsInitialized() {
		return nil
	}
	path, err := r.ResolvePath(UsageFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage stats: %w", err)
	}
	return writeAtomic(path, data)
}

func (r *FilesystemRepository) LoadUsage() (*ai.UsageStats, error) {
	path, err := r.ResolvePath(UsageFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read usage file: %w", err)
	}

	var stats ai.UsageStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage stats: %w", err)
	}
	return &stats, nil
}
