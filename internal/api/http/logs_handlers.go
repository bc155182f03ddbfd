package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxLogBatch = 200

// HostLogEntry is a diagnostic line from the host UI, not from preview code.
// Preview console output goes through the relay instead.
type HostLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context"`
	Timestamp string                 `json:"timestamp"`
}

// HostLogBatch is what the host UI flushes periodically
type HostLogBatch struct {
	Entries []HostLogEntry `json:"entries"`
}

// StreamLogs writes host UI diagnostics into the server log under "host"
func (h *Handlers) StreamLogs(c *gin.Context) {
	var batch HostLogBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log batch"})
		return
	}
	switch n := len(batch.Entries); {
	case n == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty log batch"})
		return
	case n > maxLogBatch:
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "log batch too large", "max": maxLogBatch})
		return
	}

	host := h.logger.Named("host")
	written := 0
	for _, entry := range batch.Entries {
		if ce := host.Check(hostLevel(entry.Level), entry.Message); ce != nil {
			ce.Write(hostFields(entry)...)
			written++
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": len(batch.Entries), "written": written})
}

// hostLevel never yields panic or fatal: a browser must not stop the server
func hostLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

func hostFields(entry HostLogEntry) []zap.Field {
	keys := make([]string, 0, len(entry.Context))
	for k := range entry.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+1)
	if ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err == nil {
		fields = append(fields, zap.Time("host_time", ts))
	} else if entry.Timestamp != "" {
		fields = append(fields, zap.String("host_time", entry.Timestamp))
	}
	for _, k := range keys {
		fields = append(fields, zap.Any(k, entry.Context[k]))
	}
	return fields
}
