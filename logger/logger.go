package logger

import (
	"go.uber.org/zap"
)

// ZapAdapter exposes a zap logger through Temporal's log.Logger interface so
// workflow and worker logs share the service's log pipeline.
type ZapAdapter struct {
	zapLogger *zap.Logger
}

func NewZapAdapter(zapLogger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{zapLogger: zapLogger}
}

func (z *ZapAdapter) Debug(msg string, keyvals ...any) {
	z.zapLogger.Debug(msg, zapFields(keyvals)...)
}

func (z *ZapAdapter) Info(msg string, keyvals ...any) {
	z.zapLogger.Info(msg, zapFields(keyvals)...)
}

func (z *ZapAdapter) Warn(msg string, keyvals ...any) {
	z.zapLogger.Warn(msg, zapFields(keyvals)...)
}

func (z *ZapAdapter) Error(msg string, keyvals ...any) {
	z.zapLogger.Error(msg, zapFields(keyvals)...)
}

func zapFields(keyvals []any) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "unknown_key"
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}
