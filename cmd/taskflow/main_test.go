package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"taskflow/internal/app"
	"taskflow/internal/config"
	"taskflow/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TASKFLOW_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, nil, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "taskflow") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--unknown-flag"}, nil, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, nil, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--app", "taskx", "--dev", "paths"}, nil, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "app: taskx") {
		t.Fatalf("expected app name in paths output, got %q", output)
	}
	if !strings.Contains(output, "dev_mode: true") {
		t.Fatalf("expected dev mode in paths output, got %q", output)
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	programFactory = func(_ tea.Model) program {
		return fakeProgram{}
	}

	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")
	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, nil, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRunExportCommandWritesSnapshot verifies behavior for the covered scenario.
func TestRunExportCommandWritesSnapshot(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")
	outPath := filepath.Join(tmp, "snapshot.json")
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", outPath}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var env app.Envelope
	if err := json.Unmarshal(content, &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Identity.ID != app.DefaultIdentityID {
		t.Fatalf("expected demo identity in fresh export, got %q", env.Identity.ID)
	}
	if len(env.Projects) == 0 || len(env.Tasks) == 0 {
		t.Fatalf("expected demo projects and tasks in fresh export, got %d/%d", len(env.Projects), len(env.Tasks))
	}
}

// TestRunImportFillsGapsInPartialSnapshot verifies partial snapshots migrate instead of failing.
func TestRunImportFillsGapsInPartialSnapshot(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	partial := `{
  "tasks": [
    {"id": "t-import", "title": "Imported Task", "projectId": "p1", "status": "todo", "priority": "medium"}
  ]
}`
	inPath := filepath.Join(tmp, "in.json")
	if err := os.WriteFile(inPath, []byte(partial), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", inPath}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-"}, nil, &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var env app.Envelope
	if err := json.Unmarshal([]byte(out.String()), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(env.Tasks) != 1 || env.Tasks[0].ID != "t-import" {
		t.Fatalf("expected single imported task, got %+v", env.Tasks)
	}
	if env.Identity.ID != app.DefaultIdentityID {
		t.Fatalf("expected migrator to fill missing identity, got %q", env.Identity.ID)
	}
	if len(env.Projects) == 0 {
		t.Fatal("expected migrator to fill missing projects")
	}
}

// TestRunImportRequiresInputFlag verifies behavior for the covered scenario.
func TestRunImportRequiresInputFlag(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")
	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import"}, nil, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--in is required") {
		t.Fatalf("expected missing --in error, got %v", err)
	}
}

// TestRunResetCommandRestoresDemoData verifies behavior for the covered scenario.
func TestRunResetCommandRestoresDemoData(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	emptyIn := filepath.Join(tmp, "empty.json")
	if err := os.WriteFile(emptyIn, []byte(`{"tasks": []}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", emptyIn}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "reset"}, nil, &out, io.Discard); err != nil {
		t.Fatalf("run(reset) error = %v", err)
	}
	if !strings.Contains(out.String(), "demo data restored") {
		t.Fatalf("expected reset confirmation, got %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-"}, nil, &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var env app.Envelope
	if err := json.Unmarshal([]byte(out.String()), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(env.Tasks) == 0 {
		t.Fatal("expected demo tasks after reset")
	}
}

// TestRunConfigAndDBEnvOverrides verifies behavior for the covered scenario.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "env.db")
	cfgPath := filepath.Join(tmp, "env.toml")
	cfgContent := "[database]\npath = \"/tmp/ignore-me.db\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("TASKFLOW_CONFIG", cfgPath)
	t.Setenv("TASKFLOW_DB_PATH", dbPath)

	err := run(context.Background(), []string{"export", "--out", filepath.Join(tmp, "out.json")}, nil, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(export with env paths) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db created at env path, stat error %v", err)
	}
}

// TestRunWhoamiWithoutCredential verifies behavior for the covered scenario.
func TestRunWhoamiWithoutCredential(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "whoami"}, nil, &out, io.Discard); err != nil {
		t.Fatalf("run(whoami) error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "user: John Doe (u1)") {
		t.Fatalf("expected demo identity in whoami output, got %q", output)
	}
	if !strings.Contains(output, "mode: local") {
		t.Fatalf("expected local mode in whoami output, got %q", output)
	}
}

// TestRunLoginWithoutRemoteFails verifies behavior for the covered scenario.
func TestRunLoginWithoutRemoteFails(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "login", "--email", "a@example.com", "--password", "pw"}, nil, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "login") {
		t.Fatalf("expected login error without configured remote, got %v", err)
	}
}

// TestRunLoginPromptsForMissingFields verifies behavior for the covered scenario.
func TestRunLoginPromptsForMissingFields(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	stdin := strings.NewReader("a@example.com\npw\n")
	var out strings.Builder
	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "login"}, stdin, &out, io.Discard)
	if err == nil {
		t.Fatal("expected login error without configured remote")
	}
	if !strings.Contains(out.String(), "Email:") || !strings.Contains(out.String(), "Password:") {
		t.Fatalf("expected login prompts, got %q", out.String())
	}
}

// TestRunDevModeCreatesWorkspaceLogFile verifies behavior for the covered scenario.
func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }

	workspace := t.TempDir()
	t.Chdir(workspace)

	dbPath := filepath.Join(workspace, "taskflow.db")
	cfgPath := filepath.Join(workspace, "missing.toml")
	if err := run(context.Background(), []string{"--dev", "--db", dbPath, "--config", cfgPath}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	logDir := filepath.Join(workspace, ".taskflow", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	foundLog := false
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			foundLog = true
			break
		}
	}
	if !foundLog {
		t.Fatalf("expected at least one .log file in %s, got %v", logDir, entries)
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies TUI runtime logs stay out of stderr and persist to the dev log file.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }

	workspace := t.TempDir()
	t.Chdir(workspace)

	dbPath := filepath.Join(workspace, "taskflow.db")
	cfgPath := filepath.Join(workspace, "missing.toml")
	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--dev", "--db", dbPath, "--config", cfgPath}, nil, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".taskflow", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	var logPath string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		logPath = filepath.Join(logDir, entry.Name())
		break
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "starting tui program loop") {
		t.Fatalf("expected runtime log file to include TUI lifecycle entries, got %q", string(content))
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "taskflow.toml")
	cfgContent := "[logging]\nlevel = \"verbose\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, nil, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected invalid logging level error")
	}
	if !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TASKFLOW_BOOL_TEST", "true")
	got, ok := parseBoolEnv("TASKFLOW_BOOL_TEST")
	if !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}

	t.Setenv("TASKFLOW_BOOL_TEST", "not-bool")
	_, ok = parseBoolEnv("TASKFLOW_BOOL_TEST")
	if ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

// TestDevLogFilePathResolvesRelativeDirs verifies relative log dirs anchor at the working directory.
func TestDevLogFilePathResolvesRelativeDirs(t *testing.T) {
	workspace := t.TempDir()
	t.Chdir(workspace)

	got, err := devLogFilePath("", "taskflow", time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	wantSuffix := filepath.Join(".taskflow", "log", "taskflow-20260222.log")
	if !strings.HasSuffix(got, wantSuffix) {
		t.Fatalf("expected log path ending in %q, got %q", wantSuffix, got)
	}
}

// TestSanitizeLogFileStem verifies behavior for the covered scenario.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"taskflow":     "taskflow",
		"  task flow ": "task-flow",
		"a/b\\c:d":     "a-b-c-d",
		"":             "taskflow",
		"///":          "taskflow",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies console output can be suppressed while other sinks remain active.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/taskflow.db").Logging

	logger, err := newRuntimeLogger(&console, "taskflow", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") {
		t.Fatalf("expected console log to include 'before', got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include 'after', got %q", out)
	}
}

// TestRunCreatesConfigDirWhenMissing verifies the config dir from `paths` is
// materialized so users can drop a config.toml into it.
func TestRunCreatesConfigDirWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "nested", "config.toml")
	dbPath := filepath.Join(tmp, "taskflow.db")

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-"}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	info, err := os.Stat(filepath.Dir(cfgPath))
	if err != nil {
		t.Fatalf("expected config dir to exist, stat error %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %q to be a directory", filepath.Dir(cfgPath))
	}
}

// TestRunForwardsBoardLanesToTUI verifies a custom [board] section launches
// the TUI instead of being rejected or silently dropped.
func TestRunForwardsBoardLanesToTUI(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var launched tea.Model
	programFactory = func(m tea.Model) program {
		launched = m
		return fakeProgram{}
	}

	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "taskflow.db")
	cfgPath := filepath.Join(tmp, "config.toml")
	cfgContent := `
[[board.lanes]]
id = "todo"
name = "Backlog"

[[board.lanes]]
id = "done"
name = "Shipped"
`
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if launched == nil {
		t.Fatal("expected the TUI model to be constructed")
	}
	if _, ok := launched.(tui.Model); !ok {
		t.Fatalf("launched model has unexpected type %T", launched)
	}
}
