package rundir

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/AxelElaldi/fast-equivariant-deconv/internal/config"
)

func testConfig(t *testing.T, dataPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.DataPath = dataPath
	cfg.Training.Expname = "exp1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Test config is invalid: %v", err)
	}
	return cfg
}

func TestWorkspaceLayout(t *testing.T) {
	cfg := testConfig(t, "/data/train")
	w := New(cfg)

	if w.Root != filepath.Join("/data/train", "result", "exp1") {
		t.Errorf("Unexpected workspace root: %s", w.Root)
	}
	if w.History != filepath.Join(w.Root, "history") {
		t.Errorf("Unexpected history directory: %s", w.History)
	}
	if w.ConfigPath() != filepath.Join(w.Root, "config.yml") {
		t.Errorf("Unexpected resolved config path: %s", w.ConfigPath())
	}
	if w.CheckpointPath(3) != filepath.Join(w.History, "epoch_3.pth") {
		t.Errorf("Unexpected checkpoint path: %s", w.CheckpointPath(3))
	}
}

func TestPrepareWritesRunDirectory(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	w := New(cfg)

	if err := w.Prepare(); err != nil {
		t.Fatalf("Failed to prepare workspace: %v", err)
	}
	if _, err := os.Stat(w.History); err != nil {
		t.Fatalf("Expected history directory to exist: %v", err)
	}
	// Preparing twice must not fail, resumed runs reuse the workspace
	if err := w.Prepare(); err != nil {
		t.Errorf("Expected second prepare to succeed: %v", err)
	}

	if err := w.WriteResolved(cfg); err != nil {
		t.Fatalf("Failed to write resolved config: %v", err)
	}
	reloaded, err := config.Load(w.ConfigPath())
	if err != nil {
		t.Fatalf("Expected resolved config to reload, got: %v", err)
	}
	if reloaded.Training.Expname != "exp1" {
		t.Errorf("Expected expname 'exp1' after reload, got '%s'", reloaded.Training.Expname)
	}
}

func TestWriteArgs(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	w := New(cfg)
	if err := w.Prepare(); err != nil {
		t.Fatalf("Failed to prepare workspace: %v", err)
	}

	args := map[string]any{"config": "configs/config.yml"}
	if err := w.WriteArgs(args); err != nil {
		t.Fatalf("Failed to write args: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(w.Root, "args.txt"))
	if err != nil {
		t.Fatalf("Failed to read args record: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected args record to be valid JSON: %v", err)
	}
	if decoded["config"] != "configs/config.yml" {
		t.Errorf("Unexpected args record content: %v", decoded)
	}
}

func TestLatestCheckpointAndPrune(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	w := New(cfg)

	// No history directory yet
	epoch, _, err := w.LatestCheckpoint()
	if err != nil {
		t.Fatalf("Expected no error for missing history, got: %v", err)
	}
	if epoch != -1 {
		t.Errorf("Expected epoch -1 for missing history, got %d", epoch)
	}

	if err := w.Prepare(); err != nil {
		t.Fatalf("Failed to prepare workspace: %v", err)
	}
	for _, name := range []string{"epoch_0.pth", "epoch_1.pth", "epoch_10.pth", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(w.History, name), nil, 0644); err != nil {
			t.Fatalf("Failed to create checkpoint file: %v", err)
		}
	}

	epoch, path, err := w.LatestCheckpoint()
	if err != nil {
		t.Fatalf("Failed to scan checkpoints: %v", err)
	}
	if epoch != 10 {
		t.Errorf("Expected latest epoch 10, got %d", epoch)
	}
	if path != w.CheckpointPath(10) {
		t.Errorf("Expected checkpoint path %s, got %s", w.CheckpointPath(10), path)
	}

	if err := w.Prune(10); err != nil {
		t.Fatalf("Failed to prune checkpoints: %v", err)
	}
	entries, err := os.ReadDir(w.History)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	names := map[string]bool{}
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	if !names["epoch_10.pth"] {
		t.Errorf("Expected latest checkpoint to survive pruning")
	}
	if names["epoch_0.pth"] || names["epoch_1.pth"] {
		t.Errorf("Expected older checkpoints to be pruned, got %v", names)
	}
	if !names["notes.txt"] {
		t.Errorf("Expected non-checkpoint files to survive pruning")
	}
}
