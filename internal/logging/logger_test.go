package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupWorkspace writes a config.yaml into a temp .onto dir and re-initializes
// the package state against it.
func setupWorkspace(t *testing.T, configContent string) string {
	t.Helper()
	tempDir := t.TempDir()

	configDir := filepath.Join(tempDir, ".onto")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	t.Cleanup(func() {
		CloseAll()
		CloseAudit()
		resetState()
	})
	return tempDir
}

func resetState() {
	CloseAll()
	CloseAudit()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	configLoaded = false
	config = loggingConfig{}
	auditLogger = nil
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	tempDir := setupWorkspace(t, `
logging:
  level: debug
  debug_mode: true
`)

	if !IsDebugMode() {
		t.Fatal("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryExtract,
		CategoryStore,
		CategoryCompiler,
		CategoryRender,
		CategoryValidate,
		CategoryKernel,
		CategoryModel,
		CategoryWatch,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	Extract("Convenience extract log")
	Store("Convenience store log")
	CompilerWarn("Convenience compiler log")
	Model("Convenience model log")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".onto", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if !strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				continue
			}
			found = true
			content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
			if err != nil {
				t.Errorf("Failed to read log file for %s: %v", cat, err)
				break
			}
			if !strings.Contains(string(content), "Test info message for "+string(cat)) {
				t.Errorf("Log file for %s is missing the info line", cat)
			}
			break
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	tempDir := setupWorkspace(t, `
logging:
  level: debug
  debug_mode: false
  categories:
    boot: true
    store: true
`)

	if IsDebugMode() {
		t.Error("Expected debug mode to be DISABLED")
	}
	for _, cat := range []Category{CategoryBoot, CategoryStore, CategoryCompiler} {
		if IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be DISABLED when debug_mode=false", cat)
		}
	}

	Boot("This should NOT be logged")
	Store("This should NOT be logged")
	Get(CategoryModel).Error("This should NOT be logged")
	Audit().DomainCreated("Geometry")

	CloseAll()

	if _, err := os.Stat(filepath.Join(tempDir, ".onto", "logs")); !os.IsNotExist(err) {
		t.Errorf("logs directory should not exist in production mode, stat err = %v", err)
	}
}

// TestCategoryToggle tests individual category enable/disable
func TestCategoryToggle(t *testing.T) {
	tempDir := setupWorkspace(t, `
logging:
  level: info
  debug_mode: true
  categories:
    boot: true
    store: true
    compiler: false
`)

	if !IsCategoryEnabled(CategoryStore) {
		t.Error("store should be enabled")
	}
	if IsCategoryEnabled(CategoryCompiler) {
		t.Error("compiler should be DISABLED")
	}
	if !IsCategoryEnabled(CategoryRender) {
		t.Error("render (not in config) should default to enabled")
	}

	Store("This SHOULD be logged")
	CompilerWarn("This should NOT be logged")
	CloseAll()

	entries, _ := os.ReadDir(filepath.Join(tempDir, ".onto", "logs"))
	var hasStore, hasCompiler bool
	for _, e := range entries {
		if strings.Contains(e.Name(), "store") {
			hasStore = true
		}
		if strings.Contains(e.Name(), "compiler") {
			hasCompiler = true
		}
	}
	if !hasStore {
		t.Error("Expected store log file")
	}
	if hasCompiler {
		t.Error("Should NOT have compiler log file (disabled)")
	}
}

func TestLevelFiltering(t *testing.T) {
	tempDir := setupWorkspace(t, `
logging:
  level: warn
  debug_mode: true
  json_format: true
`)

	l := Get(CategoryRender)
	l.Info("quiet line")
	l.Warn("loud line")
	CloseAll()

	matches, _ := filepath.Glob(filepath.Join(tempDir, ".onto", "logs", "*_render.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one render log, got %v", matches)
	}
	content, _ := os.ReadFile(matches[0])
	if strings.Contains(string(content), "quiet line") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(string(content), `"msg":"loud line"`) {
		t.Errorf("expected JSON warn line, got %s", content)
	}
}

func TestRequestLoggerAndAudit(t *testing.T) {
	tempDir := setupWorkspace(t, `
logging:
  level: debug
  debug_mode: true
  json_format: true
`)
	if err := InitAudit(); err != nil {
		t.Fatalf("InitAudit: %v", err)
	}

	WithRequestID(CategoryModel, "run-42").WithField("domain", "Geometry").Info("build started")
	a := AuditWithRequest("run-42", CategoryModel)
	a.TermChanged(AuditTermInsert, "Geometry", "scalar", `odd "name"`)
	a.ModelBuilt("Geometry", 3, 1, 0, 12, nil)
	a.Error(string(CategoryStore), errors.New("disk full"), true)
	CloseAll()
	CloseAudit()

	logs := filepath.Join(tempDir, ".onto", "logs")
	model, _ := filepath.Glob(filepath.Join(logs, "*_model.log"))
	if len(model) != 1 {
		t.Fatalf("expected model log, got %v", model)
	}
	content, _ := os.ReadFile(model[0])
	if !strings.Contains(string(content), `"req":"run-42"`) {
		t.Errorf("request id missing from %s", content)
	}

	audit, _ := filepath.Glob(filepath.Join(logs, "*_audit.log"))
	if len(audit) != 1 {
		t.Fatalf("expected audit log, got %v", audit)
	}
	content, _ = os.ReadFile(audit[0])
	for _, want := range []string{
		`term_op(`,
		`/term_insert`,
		`odd \\\"name\\\"`,
		`model_build(`,
		`/error_critical`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("audit log missing %q:\n%s", want, content)
		}
	}
}

func TestGenerateMangleFact(t *testing.T) {
	tests := []struct {
		event AuditEvent
		want  string
	}{
		{
			AuditEvent{Timestamp: 1, EventType: AuditDomainCreate, Domain: "Geometry"},
			`domain_event(1, /domain_create, "Geometry").`,
		},
		{
			AuditEvent{Timestamp: 2, EventType: AuditTermDelete, Domain: "G", Kind: "set", Target: "ids"},
			`term_op(2, /term_delete, "G", "set", "ids").`,
		},
		{
			AuditEvent{Timestamp: 3, EventType: AuditValidationFail, Domain: "G", Fields: map[string]interface{}{"issues": 2}},
			`validation_event(3, /validation_fail, "G", 2).`,
		},
		{
			AuditEvent{Timestamp: 4, EventType: AuditWatchReload, Target: "defs.yaml", Success: true},
			`watch_event(4, /watch_reload, "defs.yaml", true).`,
		},
		{
			AuditEvent{Timestamp: 5, EventType: AuditErrorGeneric, Category: "boot", Error: `no "domain"`},
			`error_event(5, /error_generic, "boot", "no \"domain\"").`,
		},
	}
	for _, tt := range tests {
		if got := generateMangleFact(tt.event); got != tt.want {
			t.Errorf("generateMangleFact(%s) = %s, want %s", tt.event.EventType, got, tt.want)
		}
	}
}

// TestTimerLogging tests the timing helper
func TestTimerLogging(t *testing.T) {
	setupWorkspace(t, "logging:\n  level: debug\n  debug_mode: true\n")

	timer := StartTimer(CategoryCompiler, "TestOperation")
	time.Sleep(time.Millisecond)
	if elapsed := timer.Stop(); elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}
}

func TestTimerWarnsAboveThreshold(t *testing.T) {
	tempDir := setupWorkspace(t, "logging:\n  level: debug\n  debug_mode: true\n")

	timer := StartTimer(CategoryModel, "Build geo")
	time.Sleep(2 * time.Millisecond)
	timer.StopWithThreshold(time.Millisecond)
	StartTimer(CategoryModel, "Build fast").StopWithThreshold(time.Hour)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".onto", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	var content string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_model.log") {
			data, _ := os.ReadFile(filepath.Join(tempDir, ".onto", "logs", e.Name()))
			content = string(data)
		}
	}
	if !strings.Contains(content, "Build geo took") {
		t.Errorf("expected slow-operation warning, got:\n%s", content)
	}
	if !strings.Contains(content, "Build fast completed in") {
		t.Errorf("expected debug completion line, got:\n%s", content)
	}
}
