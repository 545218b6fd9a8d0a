package rundir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AxelElaldi/fast-equivariant-deconv/internal/config"
)

const (
	resultDir      = "result"
	historyDir     = "history"
	configFileName = "config.yml"
	argsFileName   = "args.txt"
)

// Workspace is the on-disk layout of a single training run. The trainer
// expects <data_path>/result/<expname>/ with a history/ directory holding
// one checkpoint per epoch and the resolved configuration next to them.
type Workspace struct {
	Root    string
	History string
}

// New derives the workspace layout from a configuration without touching
// the filesystem
func New(cfg *config.Config) *Workspace {
	root := filepath.Join(cfg.Data.DataPath, resultDir, cfg.Training.Expname)
	return &Workspace{
		Root:    root,
		History: filepath.Join(root, historyDir),
	}
}

// Prepare creates the run directories. Existing directories are left as they
// are so a resumed run reuses its workspace.
func (w *Workspace) Prepare() error {
	if err := os.MkdirAll(w.History, 0755); err != nil {
		return fmt.Errorf("failed to create run directory %s: %w", w.History, err)
	}
	return nil
}

// ConfigPath returns the location of the resolved configuration document
func (w *Workspace) ConfigPath() string {
	return filepath.Join(w.Root, configFileName)
}

// WriteResolved writes the effective configuration into the run directory.
// The trainer rewrites this document after every epoch so the run can be
// resumed or reproduced from exactly the parameters in effect.
func (w *Workspace) WriteResolved(cfg *config.Config) error {
	data, err := cfg.Resolved()
	if err != nil {
		return fmt.Errorf("failed to encode resolved config: %w", err)
	}
	if err := os.WriteFile(w.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write resolved config: %w", err)
	}
	return nil
}

// WriteArgs records the invocation arguments as an indented JSON document
func (w *Workspace) WriteArgs(args map[string]any) error {
	data, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}
	path := filepath.Join(w.Root, argsFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CheckpointPath returns the model state path for an epoch
func (w *Workspace) CheckpointPath(epoch int) string {
	return filepath.Join(w.History, fmt.Sprintf("epoch_%d.pth", epoch))
}

// LatestCheckpoint scans the history directory and returns the highest saved
// epoch and its path. The epoch is -1 when no checkpoint exists.
func (w *Workspace) LatestCheckpoint() (int, string, error) {
	entries, err := os.ReadDir(w.History)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, "", nil
		}
		return -1, "", fmt.Errorf("failed to read history directory %s: %w", w.History, err)
	}
	latest := -1
	for _, entry := range entries {
		epoch, ok := checkpointEpoch(entry.Name())
		if ok && epoch > latest {
			latest = epoch
		}
	}
	if latest < 0 {
		return -1, "", nil
	}
	return latest, w.CheckpointPath(latest), nil
}

// Prune removes every checkpoint older than the given epoch. The trainer
// calls this after each save when only_save_last is enabled.
func (w *Workspace) Prune(latest int) error {
	entries, err := os.ReadDir(w.History)
	if err != nil {
		return fmt.Errorf("failed to read history directory %s: %w", w.History, err)
	}
	for _, entry := range entries {
		epoch, ok := checkpointEpoch(entry.Name())
		if !ok || epoch >= latest {
			continue
		}
		path := filepath.Join(w.History, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove checkpoint %s: %w", path, err)
		}
	}
	return nil
}

// checkpointEpoch parses an epoch_N.pth filename
func checkpointEpoch(name string) (int, bool) {
	rest, found := strings.CutPrefix(name, "epoch_")
	if !found {
		return 0, false
	}
	rest, found = strings.CutSuffix(rest, ".pth")
	if !found {
		return 0, false
	}
	epoch, err := strconv.Atoi(rest)
	if err != nil || epoch < 0 {
		return 0, false
	}
	return epoch, true
}
