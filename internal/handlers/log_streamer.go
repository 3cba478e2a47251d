package handlers

import (
	"strings"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor/levels"
	"github.com/ternarybob/arbor/models"

	"github.com/ternarybob/quaestor/internal/common"
)

const (
	// Buffer size for the log batch channel feeding the streamer
	defaultLogChannelSize = 256
)

// LogStreamer forwards arbor log batches to WebSocket clients. Attach it to
// the root logger with logger.SetChannel("context", streamer.Channel()); a
// full channel drops batches rather than blocking the logger.
type LogStreamer struct {
	handler         *WebSocketHandler
	ch              chan []models.LogEvent
	minLevel        levels.LogLevel
	excludePatterns []string
	done            chan struct{}
}

// NewLogStreamer creates a streamer over the given broadcaster. A nil
// wsConfig falls back to info level and the default exclusion patterns.
func NewLogStreamer(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *LogStreamer {
	minLevel := levels.InfoLevel
	var excludePatterns []string

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		excludePatterns = wsConfig.ExcludePatterns
	}
	if len(excludePatterns) == 0 {
		excludePatterns = []string{
			"WebSocket client connected",
			"WebSocket client disconnected",
			"HTTP request",
			"HTTP response",
		}
	}

	return &LogStreamer{
		handler:         handler,
		ch:              make(chan []models.LogEvent, defaultLogChannelSize),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
		done:            make(chan struct{}),
	}
}

// Channel returns the batch channel to register with the arbor logger.
func (s *LogStreamer) Channel() chan []models.LogEvent {
	return s.ch
}

// Start launches the consumer goroutine.
func (s *LogStreamer) Start() {
	go s.consume()
}

// Stop halts the consumer; pending batches are discarded.
func (s *LogStreamer) Stop() {
	close(s.done)
}

func (s *LogStreamer) consume() {
	for {
		select {
		case <-s.done:
			return
		case batch := <-s.ch:
			for _, entry := range batch {
				s.forward(entry)
			}
		}
	}
}

func (s *LogStreamer) forward(entry models.LogEvent) {
	arborLevel := plogToArborLevel(entry.Level)
	if arborLevel < s.minLevel {
		return
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(entry.Message, pattern) {
			return
		}
	}

	s.handler.BroadcastLog(LogEntry{
		Timestamp: entry.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   entry.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
