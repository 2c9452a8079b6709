package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

func (r *FilesystemRepository) AppendProgress(e learning.ProgressEvent) (err error) {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(HistoryFile)
	if err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history file: %w", cerr)
		}
	}()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write progress event: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) LoadProgress() ([]learning.ProgressEvent, error) {
	path, err := r.ResolvePath(HistoryFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []learning.ProgressEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	events := []learning.ProgressEvent{}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e learning.ProgressEvent
		if err := json.Unmarshal(line, &e); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, e)
	}
	return events, nil
}
