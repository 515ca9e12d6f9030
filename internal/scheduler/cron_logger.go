package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/samvad-hq/news-ingestor/internal/logger"
)

// cronLogger routes cron's own messages (recovered panics, skipped runs)
// through the structured logger.
type cronLogger struct {
	log logger.Logger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.DebugObj(msg, "cron", kv(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kv(keysAndValues)
	fields["error"] = err.Error()
	c.log.ErrorObj(msg, "cron", fields)
}

func kv(pairs []interface{}) map[string]any {
	out := make(map[string]any, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			out[k] = pairs[i+1]
		}
	}
	return out
}
