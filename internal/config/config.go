package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Extraction ExtractionConfig `mapstructure:"extraction" validate:"required"`
	Summarizer SummarizerConfig `mapstructure:"summarizer" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory task store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,uri"`
}

// StorageConfig controls where uploaded documents are persisted and how
// large a single upload may be.
type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir"       validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
}

// ExtractionConfig tunes the text extraction engine.
type ExtractionConfig struct {
	// MinTextLength is the threshold below which native extraction is
	// considered to have found no machine-readable text layer, triggering
	// the OCR fallback.
	MinTextLength int `mapstructure:"min_text_length" validate:"required,gt=0"`

	// OCRLanguage is the language passed to the OCR engine.
	OCRLanguage string `mapstructure:"ocr_language" validate:"required"`
}

// SummarizerConfig contains the remote summarization capability settings.
type SummarizerConfig struct {
	URL   string `mapstructure:"url"   validate:"required,url"`
	Model string `mapstructure:"model" validate:"required"`

	// MaxChunkSize bounds the number of characters sent per inference
	// call. Extracted text longer than this is split into ordered chunks.
	MaxChunkSize int `mapstructure:"max_chunk_size" validate:"required,gt=0"`

	// RequestTimeoutSeconds bounds each remote call; a timed-out chunk
	// fails the whole task.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}
