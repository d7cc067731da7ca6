package bakery

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger is the minimal logging surface the package depends on. Arguments
// are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }

func (d defLogger) print(level, msg string, args ...any) {
	if len(args) == 0 {
		fmt.Printf("[%s] BAKERY %s\n", level, msg)
		return
	}
	fmt.Printf("[%s] BAKERY %s %v\n", level, msg, args)
}

// ZerologAdapter exposes a zerolog.Logger through the Logger interface.
type ZerologAdapter struct {
	log zerolog.Logger
}

// NewZerologAdapter wraps the given zerolog logger.
func NewZerologAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

func (z *ZerologAdapter) Debug(msg string, args ...any) { z.emit(z.log.Debug(), msg, args...) }
func (z *ZerologAdapter) Info(msg string, args ...any)  { z.emit(z.log.Info(), msg, args...) }
func (z *ZerologAdapter) Warn(msg string, args ...any)  { z.emit(z.log.Warn(), msg, args...) }
func (z *ZerologAdapter) Error(msg string, args ...any) { z.emit(z.log.Error(), msg, args...) }

func (z *ZerologAdapter) emit(evt *zerolog.Event, msg string, args ...any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		evt = evt.Interface(key, args[i+1])
	}
	evt.Msg(msg)
}
