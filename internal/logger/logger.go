// Package logger provides a context-scoped structured logger over logrus,
// matching the teacher's field-ordering and caller-tagging conventions.
package logger

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/sirupsen/logrus"
)

// Level names a logging verbosity, independent of logrus's own type so
// callers configuring from YAML don't need to import logrus directly.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
)

// CustomFormatter renders request_id first, then the remaining fields
// sorted, then the caller tag.
type CustomFormatter struct {
	ForceColor bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor, resetColor string
	if f.ForceColor {
		switch entry.Level {
		case logrus.DebugLevel:
			levelColor = colorCyan
		case logrus.InfoLevel:
			levelColor = colorGreen
		case logrus.WarnLevel:
			levelColor = colorYellow
		case logrus.ErrorLevel:
			levelColor = colorRed
		case logrus.FatalLevel:
			levelColor = colorPurple
		default:
			levelColor = colorReset
		}
		resetColor = colorReset
	}

	caller := ""
	if val, ok := entry.Data["caller"]; ok {
		caller = fmt.Sprintf("%v", val)
	}

	fields := ""
	if v, ok := entry.Data["request_id"]; ok {
		fields += fmt.Sprintf("request_id=%v ", v)
	}
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "caller" && k != "request_id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields += fmt.Sprintf("%s=%v ", k, entry.Data[k])
	}
	fields = strings.TrimSpace(fields)

	return []byte(fmt.Sprintf("%s%-5s%s[%s] [%s] %-20s | %s\n",
		levelColor, level, resetColor, timestamp, fields, caller, entry.Message)), nil
}

func init() {
	logrus.SetFormatter(&CustomFormatter{ForceColor: true})
	logrus.SetReportCaller(false)
}

// GetLogger returns the logger entry attached to ctx, or a fresh default
// entry if none was attached.
func GetLogger(ctx context.Context) *logrus.Entry {
	if l := ctx.Value(types.LoggerContextKey); l != nil {
		return l.(*logrus.Entry)
	}
	newLogger := logrus.New()
	newLogger.SetFormatter(&CustomFormatter{ForceColor: true})
	newLogger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(newLogger)
}

// SetLevel sets the global logrus level.
func SetLevel(level Level) {
	var logLevel logrus.Level
	switch level {
	case LevelDebug:
		logLevel = logrus.DebugLevel
	case LevelInfo:
		logLevel = logrus.InfoLevel
	case LevelWarn:
		logLevel = logrus.WarnLevel
	case LevelError:
		logLevel = logrus.ErrorLevel
	case LevelFatal:
		logLevel = logrus.FatalLevel
	default:
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

func addCaller(entry *logrus.Entry, skip int) *logrus.Entry {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return entry
	}
	shortFile := path.Base(file)
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		fullName := path.Base(fn.Name())
		parts := strings.Split(fullName, ".")
		funcName = parts[len(parts)-1]
	}
	return entry.WithField("caller", fmt.Sprintf("%s:%d[%s]", shortFile, line, funcName))
}

// WithRequestID attaches request_id to the logger carried by ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithField(ctx, "request_id", requestID)
}

// WithField attaches a single field to the logger carried by ctx.
func WithField(ctx context.Context, key string, value any) context.Context {
	l := GetLogger(ctx).WithField(key, value)
	return context.WithValue(ctx, types.LoggerContextKey, l)
}

// WithFields attaches multiple fields to the logger carried by ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	l := GetLogger(ctx).WithFields(fields)
	return context.WithValue(ctx, types.LoggerContextKey, l)
}

func Debug(ctx context.Context, args ...any) { addCaller(GetLogger(ctx), 2).Debug(args...) }

func Debugf(ctx context.Context, format string, args ...any) {
	addCaller(GetLogger(ctx), 2).Debugf(format, args...)
}

func Info(ctx context.Context, args ...any) { addCaller(GetLogger(ctx), 2).Info(args...) }

func Infof(ctx context.Context, format string, args ...any) {
	addCaller(GetLogger(ctx), 2).Infof(format, args...)
}

func Warn(ctx context.Context, args ...any) { addCaller(GetLogger(ctx), 2).Warn(args...) }

func Warnf(ctx context.Context, format string, args ...any) {
	addCaller(GetLogger(ctx), 2).Warnf(format, args...)
}

func Error(ctx context.Context, args ...any) { addCaller(GetLogger(ctx), 2).Error(args...) }

func Errorf(ctx context.Context, format string, args ...any) {
	addCaller(GetLogger(ctx), 2).Errorf(format, args...)
}

// ErrorWithFields logs err at error level with additional structured fields.
func ErrorWithFields(ctx context.Context, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	addCaller(GetLogger(ctx), 2).WithFields(fields).Error("request failed")
}

func Fatal(ctx context.Context, args ...any) { addCaller(GetLogger(ctx), 2).Fatal(args...) }

func Fatalf(ctx context.Context, format string, args ...any) {
	addCaller(GetLogger(ctx), 2).Fatalf(format, args...)
}

// CloneContext copies just the logging/request-identity values into a
// fresh background context, for use by goroutines that must outlive the
// request but still log with its fields.
func CloneContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	for _, k := range []types.ContextKey{
		types.LoggerContextKey,
		types.TenantIDContextKey,
		types.RequestIDContextKey,
		types.RequestContextKey,
	} {
		if v := ctx.Value(k); v != nil {
			newCtx = context.WithValue(newCtx, k, v)
		}
	}
	return newCtx
}
