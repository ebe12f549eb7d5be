package programmer

import "time"

// Progress contains information about a running session.
// Passed to ProgressCallback at every phase change and after each flash page.
type Progress struct {
	// Phase is the session phase the report belongs to
	Phase Phase

	// Page is the number of flash pages written so far
	Page int

	// TotalPages is the number of pages in the selected image (0 before ImageSelected)
	TotalPages int

	// BytesWritten is the number of flash bytes written so far, padding included
	BytesWritten int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the session began
	ElapsedTime time.Duration
}

// ProgressCallback is called synchronously by the controller.
// Implementations should return quickly; they delay the target while it is powered.
//
// Example:
//
//	ctrl := programmer.New(device, catalog.Builtin(),
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Page %d/%d\n",
//	            p.Phase, p.Percentage, p.Page, p.TotalPages)
//	    }),
//	)
type ProgressCallback func(Progress)

// ResultCallback is called once per session when it reaches a terminal phase.
type ResultCallback func(*Result)

// Logger is an optional logging interface that can be provided to the controller.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	ctrl := programmer.New(device, catalog.Builtin(), programmer.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// nopLogger is used by components created without a logger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
