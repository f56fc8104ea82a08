package logging

import (
	"io"
	log "log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var levelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps a flag value to a slog level. Unknown names fall back to info.
func Level(name string) log.Level {
	if lvl, ok := levelMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.LevelInfo
}

// Setup installs a tint handler writing to w as the default logger and
// tags every record with the tool name.
func Setup(w io.Writer, tool, level string) *log.Logger {
	logger := log.New(tint.NewHandler(w, &tint.Options{
		Level:      Level(level),
		TimeFormat: "15:04:05",
		NoColor:    !colorable(w),
	})).With("tool", tool)

	log.SetDefault(logger)
	return logger
}

func colorable(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
