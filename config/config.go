// Package config loads settings for the command line tools.
package config

// Config holds all tool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds serialization settings.
type ExportConfig struct {
	// Binary selects the compressed binary encoding over text.
	Binary bool `yaml:"binary"`
	// Siege enables the streamed-skeleton model layout.
	Siege bool `yaml:"siege"`
	// FixNormals rewrites zero normals before writing.
	FixNormals bool `yaml:"fix_normals"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Binary:     false,
			Siege:      false,
			FixNormals: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
