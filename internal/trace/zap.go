package trace

import (
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds a JSON zap logger writing to w.
func NewZapLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

// ZapTracer forwards events to a zap logger. Step-scope events are logged
// at debug level, everything else at info.
type ZapTracer struct {
	mu    sync.Mutex
	log   *zap.Logger
	level Level
	seq   uint64
}

// NewZapTracer wraps log.
func NewZapTracer(log *zap.Logger, level Level) *ZapTracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapTracer{log: log, level: level}
}

// Emit logs the event with its fields flattened.
func (t *ZapTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	fields := make([]zap.Field, 0, 6+len(ev.Extra))
	fields = append(fields,
		zap.Uint64("seq", seq),
		zap.String("kind", ev.Kind.String()),
		zap.String("scope", ev.Scope.String()),
	)
	if ev.SpanID != 0 {
		fields = append(fields, zap.Uint64("span_id", ev.SpanID))
	}
	if ev.ParentID != 0 {
		fields = append(fields, zap.Uint64("parent_id", ev.ParentID))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String(k, ev.Extra[k]))
	}

	if ev.Scope == ScopeStep {
		t.log.Debug(ev.Name, fields...)
		return
	}
	t.log.Info(ev.Name, fields...)
}

// Flush syncs the logger.
func (t *ZapTracer) Flush() error {
	// Sync on a terminal stderr reports EINVAL/ENOTTY on several platforms.
	_ = t.log.Sync() //nolint:errcheck
	return nil
}

// Close flushes the logger.
func (t *ZapTracer) Close() error {
	return t.Flush()
}

// Level returns the current tracing level.
func (t *ZapTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *ZapTracer) Enabled() bool {
	return t.level > LevelOff
}
