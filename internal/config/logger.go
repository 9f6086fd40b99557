package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Log levels accepted by LoggerConfig.Level.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// LoggerConfig configures one log sink.
type LoggerConfig struct {
	Level       string `yaml:"level"`
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty"` // "append" or "overwrite"
}

// LoggingConfig configures the console and file loggers.
type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Validate checks levels and modes.
func (conf *LoggingConfig) Validate() error {
	for name, l := range map[string]LoggerConfig{"console": conf.ConsoleLogger, "file": conf.FileLogger} {
		switch l.Level {
		case "", LevelNone, LevelNormal, LevelDebug:
		default:
			return fmt.Errorf("%w: logging.%s.level must be none, normal or debug, got %q", ErrInvalidConfig, name, l.Level)
		}
		switch l.Mode {
		case "", "append", "overwrite":
		default:
			return fmt.Errorf("%w: logging.%s.mode must be append or overwrite, got %q", ErrInvalidConfig, name, l.Mode)
		}
	}
	if conf.FileLogger.Level != "" && conf.FileLogger.Level != LevelNone && conf.FileLogger.Destination == "" {
		return fmt.Errorf("%w: logging.file.destination is required when file logging is on", ErrInvalidConfig)
	}
	return nil
}

// Prepare builds the program logger: info and debug to stdout, errors to
// stderr, and an optional file sink. The returned closer flushes and closes
// the file.
func (conf *LoggingConfig) Prepare(stdout, stderr *os.File) (*zap.Logger, io.Closer, error) {
	consoleLP := zapcore.NewConsoleEncoder(consoleEncoderConfig(stdout))
	consoleHP := newEncoder(consoleEncoderConfig(stderr))

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var consoleCoreLP, consoleCoreHP zapcore.Core
	switch conf.ConsoleLogger.Level {
	case LevelNormal, "":
		consoleCoreLP = zapcore.NewCore(consoleLP, zapcore.Lock(stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return zapcore.InfoLevel <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleCoreHP = zapcore.NewCore(consoleHP, zapcore.Lock(stderr), highPriority)
	case LevelDebug:
		consoleCoreLP = zapcore.NewCore(consoleLP, zapcore.Lock(stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return zapcore.DebugLevel <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleCoreHP = zapcore.NewCore(consoleHP, zapcore.Lock(stderr), highPriority)
	default:
		consoleCoreLP = zapcore.NewNopCore()
		consoleCoreHP = zapcore.NewNopCore()
	}

	var (
		fileCore           = zapcore.NewNopCore()
		closer   io.Closer = nopCloser{}
		level    zapcore.Level
		fileOn   = true
	)
	switch conf.FileLogger.Level {
	case LevelDebug:
		level = zapcore.DebugLevel
	case LevelNormal:
		level = zapcore.InfoLevel
	default:
		fileOn = false
	}
	if fileOn {
		flags := os.O_CREATE | os.O_WRONLY
		if conf.FileLogger.Mode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0o644) // #nosec G304 -- log path is user-provided
		if err != nil {
			return nil, nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level)
		closer = f
	}

	logger := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore))
	return logger.Named(AppName), closer, nil
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return stream != nil && term.IsTerminal(int(stream.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// consoleEnc prints errors on the console without their verbose form.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
