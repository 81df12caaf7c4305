package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kochabonline/liveserver/core/reflect"
)

// RotateMode selects how log files are rotated.
type RotateMode int

const (
	RotateModeTime RotateMode = iota
	RotateModeSize
)

var (
	DefaultLogger *Logger
)

type Config struct {
	Level            string `json:"level" default:"info"`
	RotateMode       RotateMode
	Filepath         string `default:"log"`
	Filename         string `default:"liveserver"`
	FileExt          string `default:"log"`
	RotatelogsConfig RotatelogsConfig
	LumberjackConfig LumberjackConfig
}

type RotatelogsConfig struct {
	MaxAge       int `default:"24"`
	RotationTime int `default:"1"`
}

type LumberjackConfig struct {
	MaxSize    int  `default:"100"`
	MaxBackups int  `default:"5"`
	MaxAge     int  `default:"30"`
	Compress   bool `default:"false"`
}

type Logger struct {
	zerolog.Logger
}

type Option func(*Logger)

// WithCaller adds the caller's file and line to every entry.
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithLevel sets the minimum level of the logger.
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithComponent tags every entry with a component name.
func WithComponent(name string) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Str("component", name).Logger()
	}
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	DefaultLogger = New()
	L = DefaultLogger
}

// ParseLevel maps a textual level to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

func newBaseLogger(writer io.Writer, opts ...Option) *Logger {
	logger := &Logger{
		Logger: zerolog.New(writer).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// New returns a Logger writing to the console.
func New(opts ...Option) *Logger {
	return newBaseLogger(consoleWriter(), opts...)
}

// NewWriter creates a Logger writing JSON lines to w.
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newBaseLogger(w, opts...)
}

// NewFile returns a Logger writing to rotated files.
func NewFile(c Config, opts ...Option) *Logger {
	opts = append([]Option{WithLevel(ParseLevel(c.Level))}, opts...)
	return newBaseLogger(newFallbackWriter(&c), opts...)
}

// NewMulti writes to rotated files and the console.
func NewMulti(c Config, opts ...Option) *Logger {
	opts = append([]Option{WithLevel(ParseLevel(c.Level))}, opts...)
	multi := zerolog.MultiLevelWriter(newFallbackWriter(&c), consoleWriter())
	return newBaseLogger(multi, opts...)
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// newFallbackWriter falls back to the console when files cannot be opened.
func newFallbackWriter(config *Config) io.Writer {
	if err := reflect.SetDefaultTag(config); err != nil {
		return consoleWriter()
	}

	writer, err := rotateWriter(config)
	if err != nil {
		return consoleWriter()
	}

	return writer
}

func (c *Config) fileFullPathWithFormat(format string) string {
	name := c.Filename
	if format != "" {
		name += "." + format
	}
	return filepath.Join(c.Filepath, name+"."+c.FileExt)
}

func consoleWriter() zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	output.FormatLevel = func(i any) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	return output
}

func rotateWriter(config *Config) (io.Writer, error) {
	switch config.RotateMode {
	case RotateModeTime:
		writer, err := rotatelogs.New(
			config.fileFullPathWithFormat("%Y%m%d%H%M"),
			rotatelogs.WithLinkName(config.fileFullPathWithFormat("")),
			rotatelogs.WithMaxAge(time.Duration(config.RotatelogsConfig.MaxAge)*time.Hour),
			rotatelogs.WithRotationTime(time.Duration(config.RotatelogsConfig.RotationTime)*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create time rotate writer: %w", err)
		}
		return writer, nil
	case RotateModeSize:
		return &lumberjack.Logger{
			Filename:   config.fileFullPathWithFormat(""),
			MaxSize:    config.LumberjackConfig.MaxSize,
			MaxBackups: config.LumberjackConfig.MaxBackups,
			MaxAge:     config.LumberjackConfig.MaxAge,
			Compress:   config.LumberjackConfig.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %d", config.RotateMode)
	}
}
