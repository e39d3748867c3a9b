package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/YuminosukeSato/selgo/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation of the Logger interface
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", "operation", "test")
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")

	testErr := fmt.Errorf("test error")
	testLogger.Error("error message", "error", testErr, "error_code", "TEST_ERROR")

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}

	// JSON unmarshaling converts numbers to float64
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "SequentialBackwardSelector",
		ComponentKey, "selection",
	)

	contextLogger.Info("contextual message", OperationKey, OperationFit)

	if !testLogger.ContainsField(ModelNameKey, "SequentialBackwardSelector") {
		t.Error("Model name context not found")
	}

	if !testLogger.ContainsField(ComponentKey, "selection") {
		t.Error("Component context not found")
	}

	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("Operation field not found")
	}
}

// TestLoggerEnabled tests level-based filtering
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}

	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
	}

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}

	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

// TestSelectionAttributeKeys tests search-specific attribute keys
func TestSelectionAttributeKeys(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Info("Search round finished",
		OperationKey, OperationFit,
		RoundKey, 2,
		FeatureSizeKey, 3,
		CombinationsKey, 4,
		BestScoreKey, 0.92,
	)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	expectedFields := map[string]interface{}{
		OperationKey:    OperationFit,
		RoundKey:        2.0, // JSON numbers are float64
		FeatureSizeKey:  3.0,
		CombinationsKey: 4.0,
		BestScoreKey:    0.92,
	}

	for key, expectedValue := range expectedFields {
		if actualValue, exists := entry[key]; !exists {
			t.Errorf("Expected field %s not found", key)
		} else if actualValue != expectedValue {
			t.Errorf("Field %s: expected %v, got %v", key, expectedValue, actualValue)
		}
	}
}

// TestZerologProvider tests the zerolog-backed provider end to end
func TestZerologProvider(t *testing.T) {
	buffer := &bytes.Buffer{}
	provider := NewZerologProvider(buffer)
	provider.SetLevel(LevelDebug)

	logger := provider.GetLoggerWithName("selection.backward")
	logger.Info("Search round finished",
		RoundKey, 2,
		BestScoreKey, 0.9,
		"combination", []int{0, 2},
	)

	line := strings.TrimSpace(buffer.String())
	if line == "" {
		t.Fatal("Expected zerolog output, got empty buffer")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to parse zerolog output: %v", err)
	}

	if entry["component"] != "selection.backward" {
		t.Errorf("component = %v, want selection.backward", entry["component"])
	}
	if entry["message"] != "Search round finished" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[RoundKey] != 2.0 {
		t.Errorf("%s = %v, want 2", RoundKey, entry[RoundKey])
	}
}

// TestZerologProviderLevelFiltering tests SetLevel on the provider
func TestZerologProviderLevelFiltering(t *testing.T) {
	buffer := &bytes.Buffer{}
	provider := NewZerologProvider(buffer)
	provider.SetLevel(LevelWarn)

	logger := provider.GetLogger()
	logger.Info("suppressed")
	logger.Warn("emitted")

	output := buffer.String()
	if strings.Contains(output, "suppressed") {
		t.Error("Info record should be filtered at Warn level")
	}
	if !strings.Contains(output, "emitted") {
		t.Error("Warn record should pass at Warn level")
	}
}

// TestZerologErrorStacktrace tests stack trace extraction on Error
func TestZerologErrorStacktrace(t *testing.T) {
	buffer := &bytes.Buffer{}
	provider := NewZerologProvider(buffer)

	logger := provider.GetLogger()
	err := errors.NewNotFittedError("SequentialBackwardSelector", "Transform")
	logger.Error("operation failed", err, OperationKey, OperationTransform)

	var entry map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(buffer.String())), &entry); jsonErr != nil {
		t.Fatalf("Failed to parse zerolog output: %v", jsonErr)
	}

	errMsg, _ := entry["error"].(string)
	if !strings.Contains(errMsg, "not fitted") {
		t.Errorf("error attribute = %v, want not-fitted message", entry["error"])
	}

	st, _ := entry[StacktraceAttrKey].(string)
	if st == "" {
		t.Error("Expected stacktrace attribute on error record")
	}
}

// TestProviderRegistry tests package-level provider swapping
func TestProviderRegistry(t *testing.T) {
	testProvider, buffer := NewTestLoggerProvider(LevelDebug)
	SetProvider(testProvider)
	defer SetProvider(NewZerologProvider(os.Stderr))

	GetLoggerWithName("modelselection.kfold").Info("split created", CVFoldsKey, 5)

	output := buffer.String()
	if !strings.Contains(output, "split created") {
		t.Error("Named logger output not captured through registry")
	}
	if !strings.Contains(output, "modelselection.kfold") {
		t.Error("Component name not found in registry output")
	}
}

// TestErrFmtHandler tests stacktrace expansion in the slog handler
func TestErrFmtHandler(t *testing.T) {
	buffer := &bytes.Buffer{}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(buffer, nil))
	logger := slog.New(handler)

	err := errors.Wrap(errors.New("boom"), "scoring failed")
	logger.Error("search aborted", ErrAttr(err))

	var entry map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(buffer.String())), &entry); jsonErr != nil {
		t.Fatalf("Failed to parse slog output: %v", jsonErr)
	}

	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("Expected stacktrace attribute from ErrFmtHandler")
	}
}

// TestToLogLevel tests level name conversion including the panic path
func TestToLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		if got := ToLogLevel(name); got != want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", name, got, want)
		}
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("ToLogLevel with unknown level should panic")
		}
	}()
	ToLogLevel("verbose")
}

// TestLevelString tests the Level stringer
func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(42):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
