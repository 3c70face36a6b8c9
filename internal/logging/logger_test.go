package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestCategoriesAreNamed checks every category logs under its own name.
func TestCategoriesAreNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetForTest(zap.New(core))
	defer restore()

	categories := []Category{CategoryBoot, CategoryAnalyzer, CategoryAPI, CategoryUI, CategoryWatch}
	for _, cat := range categories {
		Get(cat).Info("hello")
	}

	entries := logs.All()
	if len(entries) != len(categories) {
		t.Fatalf("expected %d entries, got %d", len(categories), len(entries))
	}
	for i, cat := range categories {
		if entries[i].LoggerName != string(cat) {
			t.Errorf("entry %d: expected logger name %s, got %s", i, cat, entries[i].LoggerName)
		}
	}
}

func TestGet_CachesPerCategory(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	if Get(CategoryAPI) != Get(CategoryAPI) {
		t.Error("expected the same logger for repeated Get calls")
	}
}

func TestGet_Concurrent(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Get(CategoryAnalyzer).Debug("concurrent")
		}()
	}
	wg.Wait()
}

func TestInitialize_WritesToFile(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	path := filepath.Join(t.TempDir(), "logs", "guardian.log")
	if err := Initialize(Options{Level: "debug", Format: "json", File: path}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Get(CategoryAPI).Info("analyze response", zap.Int("status", 200))
	if err := Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"logger":"api"`) {
		t.Errorf("expected api category in log, got %s", content)
	}
	if !strings.Contains(content, `"status":200`) {
		t.Errorf("expected status field in log, got %s", content)
	}
}

func TestInitialize_QuietWithoutFileIsSilent(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	if err := Initialize(Options{Quiet: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if Get(CategoryUI).Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected quiet logger to discard everything")
	}
}

func TestInitialize_RejectsBadOptions(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	if err := Initialize(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Initialize(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInitialize_LevelFilters(t *testing.T) {
	restore := SetForTest(zap.NewNop())
	defer restore()

	path := filepath.Join(t.TempDir(), "guardian.log")
	if err := Initialize(Options{Level: "warn", Format: "json", File: path}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Get(CategoryWatch).Info("skipped")
	Get(CategoryWatch).Warn("kept")
	_ = Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "skipped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn entry should be written")
	}
}
