// Package logger holds hexed's process-wide zap logger.
//
// tcell owns the terminal while the editor runs, so log lines go to a file
// that is truncated at every start. Until Init succeeds every helper is a
// no-op, which lets packages log from tests without any setup.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L       *zap.Logger
	S       *zap.SugaredLogger
	logFile *os.File
)

// Init opens the log file from Path and installs L and S. Debug lines are
// kept only when debug is set.
func Init(debug bool) error {
	logPath, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	minLevel := zapcore.InfoLevel
	if debug {
		minLevel = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(lineFormat()), zapcore.AddSync(logFile), minLevel)
	// Skip one frame so callers see their own file, not this package.
	L = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	S = L.Sugar()

	S.Infow("log opened", "path", logPath, "debug", debug)
	return nil
}

// lineFormat is one console line per entry: time, level, caller, message,
// then the key/value pairs.
func lineFormat() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Close syncs pending entries and releases the file. Safe without Init.
func Close() {
	if L != nil {
		_ = L.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}

// Path picks the log file: $HEXED_LOG_FILE as given, else hexed.log in
// $HEXED_CONFIG_HOME, $XDG_CONFIG_HOME/hexed or ~/.config/hexed.
func Path() (string, error) {
	if v := os.Getenv("HEXED_LOG_FILE"); v != "" {
		return v, nil
	}
	if v := os.Getenv("HEXED_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "hexed.log"), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "hexed", "hexed.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hexed", "hexed.log"), nil
}

// Debug, Info, Warn and Error take a message plus alternating keys and
// values, e.g. Info("saved", "path", p, "bytes", n).

func Debug(msg string, kv ...any) {
	if S != nil {
		S.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if S != nil {
		S.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if S != nil {
		S.Warnw(msg, kv...)
	}
}

func Error(msg string, kv ...any) {
	if S != nil {
		S.Errorw(msg, kv...)
	}
}

// Panic is for a broken address or cursor invariant. Going on would risk
// writing a corrupt file, so it panics with msg even before Init.
func Panic(msg string, kv ...any) {
	if S != nil {
		S.Panicw(msg, kv...)
	}
	panic(msg)
}
