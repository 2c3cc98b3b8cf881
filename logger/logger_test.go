package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPackageLevelHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	Debug("hidden")
	Info("[Upload] stored", String("songId", "abc"), Int64("bytes", 42))
	Error("[Upload] failed", ErrorField(errors.New("boom")))

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	first := logs.All()[0]
	if first.Message != "[Upload] stored" {
		t.Errorf("unexpected message %q", first.Message)
	}
	if first.ContextMap()["songId"] != "abc" {
		t.Errorf("expected songId field, got %v", first.ContextMap())
	}
	if logs.All()[1].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %v", logs.All()[1].Level)
	}
}

func TestInitLoggerWithFile(t *testing.T) {
	defer SetLogger(zap.NewNop())

	path := filepath.Join(t.TempDir(), "logs", "moodtune.log")
	if err := InitLogger(Config{Level: WarnLevel, OutputPath: path, MaxSize: 1}); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	if L().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !L().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
}

func TestLevelParsing(t *testing.T) {
	tests := map[LogLevel]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := in.zapLevel(); got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
}
