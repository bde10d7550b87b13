// internal/logger/config.go
package logger

type Config struct {
	LogFile     string
	MaxSize     int  // megabytes
	MaxAge      int  // days
	MaxBackups  int  // number of rotated files kept
	Compress    bool // compress rotated files
	Development bool
}

// DefaultConfig returns the rotation settings used when the config file does
// not override them.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "sniper.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
