package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modoterra/bugreport/pkg/report"
)

// execute runs the root command with args and a fresh flag state.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configPath, plainFlag, verbose = "", false, false
	attachLog, attachLines = "", 200
	templateFile, noTemplate = "", false
	crashKind, configInitForce = "panic", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bugreport.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const testConfig = `version: 1
app:
  name: OpenRocket
  issues_url: https://github.com/openrocket/openrocket/issues/new
  report_email: openrocket-bugs@lists.sourceforge.net
`

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "bugreport dev (none) built unknown") {
		t.Errorf("got %q", out)
	}
}

func TestSysinfoCommand(t *testing.T) {
	out, _, err := execute(t, "sysinfo", "--config", writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"OpenRocket version: ", "Go version: go", "System properties:\n", `  line.separator=\u000a`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportCommandPlain(t *testing.T) {
	out, _, err := execute(t, "report", "--plain", "--config", writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		report.ManualPrompt,
		"Report issues at: https://github.com/openrocket/openrocket/issues/new",
		report.HeaderBugReport,
		"Include detailed steps on how to trigger the bug",
		report.DoNotModifyLine,
		report.HeaderSystemInfo,
		report.HeaderErrorLog,
		"composing manual report",
		report.FooterEnd,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, report.HeaderStackTrace) {
		t.Error("manual report must not contain a stack trace section")
	}
}

func TestReportCommandTemplates(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	tmpl := filepath.Join(t.TempDir(), "tmpl.txt")
	if err := os.WriteFile(tmpl, []byte("Which motor were you using?\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "report", "--plain", "--config", cfg, "--template", tmpl)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Which motor were you using?") || strings.Contains(out, "Include detailed steps on how to trigger the bug") {
		t.Errorf("custom template not used:\n%s", out)
	}

	out, _, err = execute(t, "report", "--plain", "--config", cfg, "--no-template")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, report.HeaderBugReport+"\n\n"+report.DoNotModifyLine) {
		t.Errorf("expected empty questionnaire:\n%s", out)
	}
}

func TestCrashCommandError(t *testing.T) {
	out, _, err := execute(t, "crash", "--plain", "--kind", "error", "--config", writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		report.CrashPrompt,
		report.HeaderStackTrace,
		"errors.withMessage: run simulation: rocket has 0 stages",
		"\tat ",
		"Caused by: errors.fundamental: rocket has 0 stages",
		report.HeaderThread,
		"goroutine ",
		"motor database is stale",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCrashCommandPanic(t *testing.T) {
	out, _, err := execute(t, "crash", "--plain", "--config", writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "panic: run simulation: rocket has 0 stages") {
		t.Errorf("panic not reported:\n%s", out)
	}
	if !strings.Contains(out, "uncaught failure") {
		t.Errorf("error log should record the failure:\n%s", out)
	}
}

func TestCrashCommandUnknownKind(t *testing.T) {
	if _, _, err := execute(t, "crash", "--plain", "--kind", "segfault", "--config", writeConfig(t, testConfig)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, "version: 2\napp:\n  name: \"\"\n")
	_, _, err := execute(t, "sysinfo", "--config", path)
	if err == nil {
		t.Fatal("expected config error")
	}
	if !strings.Contains(err.Error(), "version must be 1") || !strings.Contains(err.Error(), "app.name is required") {
		t.Errorf("got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "bugreport.yaml")

	out, _, err := execute(t, "config", "init", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("got %q", out)
	}
	if _, _, err := execute(t, "config", "init", path); err == nil {
		t.Error("expected refusal to overwrite")
	}
	if _, _, err := execute(t, "config", "init", "--force", path); err != nil {
		t.Errorf("force overwrite: %v", err)
	}

	out, _, err = execute(t, "config", "validate", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, path+": valid") {
		t.Errorf("got %q", out)
	}
}

func TestConfigValidateInvalid(t *testing.T) {
	path := writeConfig(t, "version: 1\napp:\n  name: X\nbuffer:\n  min_level: loud\n")
	_, errOut, err := execute(t, "config", "validate", path)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(errOut, "buffer.min_level") {
		t.Errorf("stderr: %q", errOut)
	}
}

func TestAttachLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "openrocket.log")
	if err := os.WriteFile(logPath, []byte("INFO started\nERROR simulation diverged\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "report", "--plain", "--config", writeConfig(t, testConfig),
		"--attach-log", logPath, "--attach-lines", "1")
	if err != nil {
		t.Fatal(err)
	}
	section := out[strings.Index(out, report.HeaderErrorLog):]
	if !strings.Contains(section, "ERROR openrocket.log: ERROR simulation diverged") {
		t.Errorf("attached line missing:\n%s", section)
	}
	if strings.Contains(section, "INFO started") {
		t.Errorf("only the last line should be attached:\n%s", section)
	}
}

func TestAttachMissingLogIsNotFatal(t *testing.T) {
	_, _, err := execute(t, "report", "--plain", "--config", writeConfig(t, testConfig),
		"--attach-log", filepath.Join(t.TempDir(), "missing.log"))
	if err != nil {
		t.Fatalf("missing attach log should only warn: %v", err)
	}
}

func TestReportWithoutConfigDirectory(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	out, errOut, err := execute(t, "report", "--plain")
	if err != nil {
		t.Fatalf("report should fall back to defaults: %v", err)
	}
	if !strings.Contains(out, report.HeaderBugReport) || !strings.Contains(out, report.FooterEnd) {
		t.Errorf("report not produced:\n%s", out)
	}
	if !strings.Contains(errOut, "using default config") {
		t.Errorf("expected a warning on stderr, got %q", errOut)
	}
}
