package programmer

import (
	"context"
	"time"
)

// Config holds the controller configuration.
type Config struct {
	// ProgressCallback is called during a session to report progress (optional)
	ProgressCallback ProgressCallback

	// ResultCallback is called when a session ends (optional)
	ResultCallback ResultCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// PowerTimeout bounds each supply switch
	PowerTimeout time.Duration

	// CommandTimeout bounds the signature read and each fuse byte write
	CommandTimeout time.Duration

	// PageTimeout bounds each flash page write
	PageTimeout time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		PowerTimeout:   2 * time.Second,
		CommandTimeout: time.Second,
		PageTimeout:    2 * time.Second,
	}
}

// Option is a functional option for configuring the Controller.
type Option func(*Config)

// WithProgressCallback sets a callback function to track session progress.
//
// Example:
//
//	ctrl := programmer.New(device, cat,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithResultCallback sets a callback invoked once per finished session,
// successful or not.
func WithResultCallback(callback ResultCallback) Option {
	return func(c *Config) {
		c.ResultCallback = callback
	}
}

// WithLogger sets a logger for the controller and its components.
//
// Example:
//
//	ctrl := programmer.New(device, cat, programmer.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets the power, command and page timeouts at once.
//
// Example:
//
//	ctrl := programmer.New(device, cat, programmer.WithTimeout(500*time.Millisecond))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PowerTimeout = timeout
		c.CommandTimeout = timeout
		c.PageTimeout = timeout
	}
}

// WithPowerTimeout sets the timeout for switching the target supply.
func WithPowerTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PowerTimeout = timeout
	}
}

// WithCommandTimeout sets the timeout for the signature read and each fuse write.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.CommandTimeout = timeout
	}
}

// WithFlashTimeout sets the timeout for each flash page write.
//
// Example:
//
//	ctrl := programmer.New(device, cat, programmer.WithFlashTimeout(5*time.Second))
func WithFlashTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PageTimeout = timeout
	}
}

// withTimeout bounds one hardware call. A zero timeout leaves the call unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
