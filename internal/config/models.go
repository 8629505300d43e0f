package config

import "time"

type TopLevel struct {
	Notesync struct {
		Server App `json:"server" mapstructure:"server"`
	} `json:"notesync" mapstructure:"notesync"`
}

type App struct {
	BindAddress     string              `json:"bind_address" mapstructure:"bind_address"`
	ShutdownTimeout time.Duration       `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Storage         Storage             `json:"storage" mapstructure:"storage"`
	Elasticsearch   ElasticsearchClient `json:"elasticsearch" mapstructure:"elasticsearch"`
	Sqlite          Sqlite              `json:"sqlite" mapstructure:"sqlite"`
	ApmClient       *ApmClient          `json:"apm,omitempty" mapstructure:"apm"`
	Logging         *Logging            `json:"logging,omitempty" mapstructure:"logging"`
	Sync            Sync                `json:"sync" mapstructure:"sync"`
	Accounts        Accounts            `json:"accounts" mapstructure:"accounts"`
}

// Which Note and Owner store implementation to use
type StorageBackend string

const (
	ElasticsearchBackend StorageBackend = "elasticsearch"
	SqliteBackend        StorageBackend = "sqlite"
)

type Storage struct {
	Backend StorageBackend `json:"backend" mapstructure:"backend"`
}

type Logging struct {
	Json  *bool        `json:"json,omitempty" mapstructure:"json"`
	File  *LoggingFile `json:"file,omitempty" mapstructure:"file"`
	Level *string      `json:"level,omitempty" mapstructure:"level"`
}

// LoggingFile configures a rotated log file
type LoggingFile struct {
	Path       string `json:"path" mapstructure:"path"`
	MaxSizeMb  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

type ElasticsearchClient struct {
	Addresses []string       `json:"addresses" mapstructure:"addresses"`
	User      *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
}

type Sqlite struct {
	Path string `json:"path" mapstructure:"path"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"password" mapstructure:"password"`
}

type Sync struct {
	// Max number of notes per store write when persisting a merge or transfer
	WriteChunkSize uint `json:"write_chunk_size" mapstructure:"write_chunk_size"`
	// Max number of store writes in flight for a single merge or transfer
	WriteConcurrency uint          `json:"write_concurrency" mapstructure:"write_concurrency"`
	ScrollSize       uint          `json:"scroll_size" mapstructure:"scroll_size"`
	ScrollTtl        time.Duration `json:"scroll_ttl" mapstructure:"scroll_ttl"`
}

type Accounts struct {
	// Cron expression for retrying deletion of owners that were merged into another
	ReaperSchedule string `json:"reaper_schedule" mapstructure:"reaper_schedule"`
	// How long a server keeps the right to run the reaper without running it again.
	// Should be longer than the schedule's interval.
	ReaperLease time.Duration `json:"reaper_lease" mapstructure:"reaper_lease"`
}
