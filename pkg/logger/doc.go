// Package logger provides a structured logging interface for rdscraper.
//
// It wraps zerolog with a small Logger interface so that every component
// takes a logger in its constructor and tests can swap in NewTestLogger or
// NewNopLogger.
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("account", "alice")
//	log.InfoWithFields("item saved", map[string]interface{}{
//	    "index": 3,
//	    "file":  "image_3.jpg",
//	})
//
// Console output is colored and written to stderr. Setting logging.file
// additionally appends JSON lines to that file.
package logger
