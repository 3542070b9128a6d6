// pkg/logger/logger.go
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tamzrod/modbus-acquisitor/internal/config"
)

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

// ParseLevel maps a config level onto zap, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger: stdout in the configured format, plus
// daily-rotated JSON files under cfg.Path when set.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return build(cfg, zapcore.AddSync(os.Stdout))
}

func build(cfg config.LogConfig, stdout zapcore.WriteSyncer) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	var stdoutEncoder zapcore.Encoder
	if cfg.Format == "json" {
		stdoutEncoder = jsonEncoder()
	} else {
		stdoutEncoder = consoleEncoder()
	}
	cores := []zapcore.Core{zapcore.NewCore(stdoutEncoder, stdout, level)}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("logger: create %s: %w", cfg.Path, err)
		}

		maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		writer, err := rotatelogs.New(
			filepath.Join(cfg.Path, "acquisitor-%Y%m%d.log"),
			rotatelogs.WithMaxAge(maxAge),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithRotationSize(100*1024*1024),
		)
		if err != nil {
			return nil, fmt.Errorf("logger: rotate %s: %w", cfg.Path, err)
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.ConsoleSeparator = " "
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)

	// two-level caller path
	cfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Sync flushes l, ignoring the error stdout reports when it is a terminal.
func Sync(l *zap.Logger) error {
	if err := l.Sync(); err != nil && !strings.Contains(err.Error(), "/dev/stdout") {
		return err
	}
	return nil
}
