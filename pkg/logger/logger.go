package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"

	"vkcommands/pkg/config"
)

const (
	formatText = "text"
	formatJSON = "json"

	defaultFormat = formatText
	defaultLevel  = "info"

	envLogFormat    = "VKCOMMANDS_LOG_FORMAT"
	envLogLevel     = "VKCOMMANDS_LOG_LEVEL"
	envLogAddSource = "VKCOMMANDS_LOG_ADD_SOURCE"
)

// settings is LoggingConfig after environment overrides and defaults.
type settings struct {
	format    string
	level     slog.Level
	addSource bool
}

// New builds the process logger: charm-rendered text for terminals or one JSON LogEntry
// per line. VKCOMMANDS_LOG_* environment variables override cfg.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	s, err := resolveSettings(cfg)
	if err != nil {
		return nil, err
	}

	if s.format == formatJSON {
		return slog.New(newEntryHandler(writer, s)), nil
	}

	// charm levels share slog's numeric scale.
	pretty := charmLog.NewWithOptions(writer, charmLog.Options{
		Level:           charmLog.Level(s.level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		ReportCaller:    s.addSource,
	})
	return slog.New(pretty), nil
}

func resolveSettings(cfg config.LoggingConfig) (settings, error) {
	s := settings{addSource: cfg.AddSource}

	s.format = strings.ToLower(firstSet(os.Getenv(envLogFormat), cfg.Format, defaultFormat))
	if s.format != formatText && s.format != formatJSON {
		return settings{}, fmt.Errorf("unsupported log format %q", s.format)
	}

	level, err := parseLevel(firstSet(os.Getenv(envLogLevel), cfg.Level, defaultLevel))
	if err != nil {
		return settings{}, err
	}
	s.level = level

	if raw := strings.TrimSpace(os.Getenv(envLogAddSource)); raw != "" {
		addSource, err := strconv.ParseBool(raw)
		if err != nil {
			return settings{}, fmt.Errorf("parse %s: %w", envLogAddSource, err)
		}
		s.addSource = addSource
	}

	return s, nil
}

// parseLevel accepts slog level names in any case, offsets such as "debug+2", and "warning".
func parseLevel(text string) (slog.Level, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "warning") {
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return 0, fmt.Errorf("unsupported log level %q", text)
	}

	return level, nil
}

func firstSet(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}

	return ""
}
