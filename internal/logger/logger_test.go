package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(content)
}

func TestBlackHoleLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "geobuild.log")

	// 1MB is the smallest size lumberjack rotates at.
	cfg := FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	if err := InitWithFileConfig("debug", cfg, nil); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	builder := Named("builder")
	region := strings.Repeat("25_22/", 30)
	for x := 0; x < 80; x++ {
		for y := 0; y < 80; y++ {
			builder.Debug("black hole", zap.String("map", region), zap.Int("x", x), zap.Int("y", y))
		}
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read log dir: %v", err)
	}

	var rotated []string
	for _, e := range entries {
		if e.Name() != "geobuild.log" && strings.HasPrefix(e.Name(), "geobuild-") {
			rotated = append(rotated, e.Name())
		}
	}
	if len(rotated) == 0 {
		t.Fatalf("expected rotated files, got %v", entries)
	}
	for _, name := range rotated {
		// geobuild-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") || !strings.HasSuffix(name, ".log") {
			t.Errorf("rotated file %s has unexpected name", name)
		}
	}
}

func TestComponentLevels(t *testing.T) {
	dir := t.TempDir()

	// One entry per level, from the component that emits it during a build.
	entries := []struct {
		level     string
		component string
		msg       string
	}{
		{"DEBUG", "builder", "black hole"},
		{"INFO", "exporter", "geodata exported"},
		{"WARN", "builder", "columns without walkable cells"},
		{"ERROR", "pipeline", "build failed"},
	}

	tests := []struct {
		level   string
		visible int // entries from this index on are written
	}{
		{"debug", 0},
		{"info", 1},
		{"warn", 2},
		{"error", 3},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
			if err := InitWithFileConfig(tt.level, cfg, nil); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			builder, exporter, pipeline := Named("builder"), Named("exporter"), Named("pipeline")
			builder.Debug("black hole", zap.Int("x", 3), zap.Int("y", 4))
			exporter.Info("geodata exported", zap.String("path", "25_22.l2j"))
			builder.Warn("columns without walkable cells", zap.Int("count", 64))
			pipeline.Error("build failed", zap.String("map", "25_22"))

			content := readLog(t, logFile)
			lines := strings.Split(strings.TrimSpace(content), "\n")
			if len(lines) != len(entries)-tt.visible {
				t.Fatalf("expected %d entries at %s, got %q", len(entries)-tt.visible, tt.level, content)
			}
			for i, line := range lines {
				want := entries[tt.visible+i]
				for _, part := range []string{want.level, want.component, want.msg} {
					if !strings.Contains(line, part) {
						t.Errorf("line %q: missing %q", line, part)
					}
				}
			}
		})
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("logs/geobuild.log")
	want := FileConfig{
		Path:       "logs/geobuild.log",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
}

func TestEmptyLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFileConfig("", FileConfig{}, &buf); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	Debug("mesh loaded")
	Info("map done")
	Sync()

	if out := buf.String(); strings.Contains(out, "mesh loaded") || !strings.Contains(out, "map done") {
		t.Errorf("expected only the info entry, got %q", out)
	}
}

func TestInvalidLevel(t *testing.T) {
	if err := InitWithFileConfig("loud", FileConfig{}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNamedConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFileConfig("info", FileConfig{}, &buf); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	Named("exporter").Info("geodata exported", zap.String("path", "out/25_22.l2j"))
	Named("builder").Debug("hidden")
	Sync()

	out := buf.String()
	if !strings.Contains(out, "exporter") || !strings.Contains(out, "geodata exported") {
		t.Errorf("expected named entry in output, got %q", out)
	}
	if !strings.Contains(out, "out/25_22.l2j") {
		t.Errorf("expected path field in output, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry leaked at info level: %q", out)
	}
}
