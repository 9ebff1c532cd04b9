package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const otelLoggerName = "github.com/bridgelabs/lane-relayer"

type RelayLogger struct {
	*slog.Logger
}

var relayLogger *RelayLogger

// InitLogger initializes the global logger. When enableOtel is true, log
// records are also forwarded to the OpenTelemetry logs pipeline.
func InitLogger(logLevel, format, output string, enableOtel bool) error {
	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		return errors.Newf("invalid log output: %s", output)
	}
	return InitLoggerWithWriter(logLevel, format, writer, enableOtel)
}

func InitLoggerWithWriter(logLevel, format string, writer io.Writer, enableOtel bool) error {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return errors.Wrapf(err, "invalid log level: %s", logLevel)
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: true,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return errors.Newf("invalid log format: %s", format)
	}

	if enableOtel {
		handler = slogmulti.Fanout(handler, otelslog.NewHandler(otelLoggerName))
	}

	relayLogger = &RelayLogger{slog.New(handler)}
	return nil
}

func GetLogger() *RelayLogger {
	return relayLogger
}

// log emits a record whose source location points extraCallerSkip frames
// above the caller of log itself.
func (rl *RelayLogger) log(level slog.Level, extraCallerSkip int, msg string, args ...any) {
	ctx := context.Background()
	if !rl.Logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip runtime.Callers, this method and its caller
	runtime.Callers(3+extraCallerSkip, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = rl.Logger.Handler().Handle(ctx, r)
}

func (rl *RelayLogger) Error(msg string, err error, args ...any) {
	args = append(args, "error", err)
	rl.log(slog.LevelError, 1, msg, args...)
}

func (rl *RelayLogger) ErrorContext(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	rl.log(slog.LevelError, 1, msg, args...)
}

// ErrorWithStack logs the error together with a captured stack trace.
func (rl *RelayLogger) ErrorWithStack(msg string, err error, args ...any) {
	cError := errors.NewWithDepth(1, err.Error())
	args = append(args, "error", err, "stack", fmt.Sprintf("%+v", cError))
	rl.log(slog.LevelError, 1, msg, args...)
}

func (rl *RelayLogger) Fatal(msg string, err error, args ...any) {
	args = append(args, "error", err)
	rl.log(slog.LevelError, 1, msg, args...)
	panic(msg)
}

func (rl *RelayLogger) With(args ...any) *RelayLogger {
	return &RelayLogger{rl.Logger.With(args...)}
}

func (rl *RelayLogger) WithLane(
	laneID string,
	srcChainID, dstChainID string,
) *RelayLogger {
	return rl.With(
		"lane id", laneID,
		"source chain id", srcChainID,
		"destination chain id", dstChainID,
	)
}

func (rl *RelayLogger) WithRace(raceName string) *RelayLogger {
	return rl.With("race", raceName)
}

func (rl *RelayLogger) WithModule(moduleName string) *RelayLogger {
	return rl.With("module", moduleName)
}

// TimeTrack logs the elapsed time since start at debug level.
func (rl *RelayLogger) TimeTrack(start time.Time, name string, args ...any) {
	args = append(args, "name", name, "elapsed", time.Since(start).Nanoseconds())
	rl.log(slog.LevelDebug, 1, "time track", args...)
}
