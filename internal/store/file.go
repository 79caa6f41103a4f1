package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// File keeps the state as an indented JSON document on disk.
type File struct {
	path   string
	route  string
	logger logger.Logger
}

func NewFile(path, route string, log logger.Logger) *File {
	return &File{path: path, route: route, logger: log}
}

func (f *File) Load(_ context.Context) (domain.State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Info("no state file found, starting fresh", logger.String("path", f.path))
			return domain.NewState(f.route), nil
		}
		return domain.State{}, fmt.Errorf("%w: read %s: %v", domain.ErrStateIO, f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		f.logger.Warn("state file is empty, starting fresh", logger.String("path", f.path))
		return domain.NewState(f.route), nil
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.State{}, fmt.Errorf("%w: decode %s: %v", domain.ErrStateIO, f.path, err)
	}
	if ok, reason := usable(state, f.route); !ok {
		f.logger.Warn("ignoring persisted state", logger.String("path", f.path), logger.String("reason", reason))
		return domain.NewState(f.route), nil
	}
	if state.Snapshots == nil {
		state.Snapshots = make(map[civil.Date]domain.Snapshot)
	}
	state.Route = f.route

	f.logger.Debug("loaded state",
		logger.String("path", f.path),
		logger.Int("dates", len(state.Snapshots)))
	return state, nil
}

// Save replaces the file atomically: a temporary sibling is written, synced and renamed.
func (f *File) Save(_ context.Context, state domain.State) error {
	state.Version = domain.StateVersion
	state.Route = f.route

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", domain.ErrStateIO, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStateIO, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrStateIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrStateIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrStateIO, tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", domain.ErrStateIO, f.path, err)
	}

	f.logger.Debug("state saved", logger.String("path", f.path), logger.Int("dates", len(state.Snapshots)))
	return nil
}
