// Package zap adapts a *zap.Logger to the cborgen.Logger interface.
package zap

import (
	"github.com/unkn0wn-root/cborgen"
	"go.uber.org/zap"
)

type Logger struct{ L *zap.Logger }

var _ cborgen.Logger = Logger{}

func (z Logger) Debug(msg string, f cborgen.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f cborgen.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f cborgen.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f cborgen.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f cborgen.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
