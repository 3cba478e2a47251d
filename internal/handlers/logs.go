package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// RecentLogsHandler returns the most recent in-memory log entries as JSON.
// Degrades to an empty list when no memory writer is registered.
func (h *APIHandler) RecentLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := QueryInt(r, "limit", 100)
	var logs []LogEntry

	memWriter := arbor.GetRegisteredMemoryWriter(arbor.WRITER_MEMORY)
	if memWriter != nil {
		entries, err := memWriter.GetEntriesWithLimit(limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to get log entries")
			WriteError(w, http.StatusInternalServerError, "Failed to retrieve logs")
			return
		}

		// Map keys are timestamps; sorting gives chronological order
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			entry, ok := parseLogLine(entries[key])
			if !ok {
				continue
			}
			logs = append(logs, entry)
		}
	}

	if logs == nil {
		logs = []LogEntry{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// parseLogLine splits an arbor memory-writer line ("LEVEL | time | message")
// into a LogEntry. Internal handler chatter is dropped.
func parseLogLine(line string) (LogEntry, bool) {
	for _, pattern := range []string{
		"WebSocket client connected",
		"WebSocket client disconnected",
		"HTTP request",
		"HTTP response",
	} {
		if strings.Contains(line, pattern) {
			return LogEntry{}, false
		}
	}

	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return LogEntry{}, false
	}

	levelStr := strings.TrimSpace(parts[0])
	dateTime := strings.TrimSpace(parts[1])
	message := strings.TrimSpace(parts[2])

	timeParts := strings.Fields(dateTime)
	timestamp := time.Now().Format("15:04:05")
	if len(timeParts) >= 1 {
		timestamp = timeParts[len(timeParts)-1]
	}

	level := "info"
	switch levelStr {
	case "ERR", "ERROR", "FATAL", "PANIC":
		level = "error"
	case "WRN", "WARN":
		level = "warn"
	case "DBG", "DEBUG":
		level = "debug"
	}

	return LogEntry{
		Timestamp: timestamp,
		Level:     level,
		Message:   message,
	}, true
}
