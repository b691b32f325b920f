package web

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophblog/internal/logging"
)

type logEntry struct {
	level string
	msg   string
	kv    map[string]any
}

// captureLogger keeps every entry in memory.
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) add(level, msg string, args []any) {
	kv := map[string]any{}
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			kv[k] = args[i+1]
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg, kv: kv})
}

func (c *captureLogger) Debug(_ context.Context, msg string, args ...any) { c.add("debug", msg, args) }
func (c *captureLogger) Info(_ context.Context, msg string, args ...any)  { c.add("info", msg, args) }
func (c *captureLogger) Warn(_ context.Context, msg string, args ...any)  { c.add("warn", msg, args) }
func (c *captureLogger) Error(_ context.Context, msg string, args ...any) { c.add("error", msg, args) }
func (c *captureLogger) With(...any) logging.Logger                       { return c }
