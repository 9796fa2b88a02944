package model

import "time"

// Config 对应于 config.yaml 的顶级结构
type Config struct {
	Token    string         `mapstructure:"token"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Health   HealthConfig   `mapstructure:"health"`
	Commands Commands       `mapstructure:"commands"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Anon     AnonConfig     `mapstructure:"anon"`
	System   SystemConfig   `mapstructure:"system"`
}

// LogConfig 对应 "log" 部分
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// DatabaseConfig 对应 "database" 部分
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// HealthConfig 对应 "health" 部分
type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

// Commands 对应 "commands" 部分
type Commands struct {
	Guilds []string `mapstructure:"guilds"`
	Auth   Auth     `mapstructure:"auth"`
}

// Auth 对应 "auth" 部分
type Auth struct {
	Developers []string `mapstructure:"developers"`
	AdminRoles []string `mapstructure:"admin_roles"`
}

// LedgerConfig 对应 "ledger" 部分，作品收藏容器的参数
type LedgerConfig struct {
	MaxEntries          int           `mapstructure:"max_entries"`
	MaxBodyLength       int           `mapstructure:"max_body_length"`
	AddScanLimit        int           `mapstructure:"add_scan_limit"`
	DeleteScanLimit     int           `mapstructure:"delete_scan_limit"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
	SubmitBurst         int           `mapstructure:"submit_burst"`
	SubmitWindow        time.Duration `mapstructure:"submit_window"`
	MaxConcurrentWrites int           `mapstructure:"max_concurrent_writes"`
	AuditTimeout        time.Duration `mapstructure:"audit_timeout"`
	MarkerKey           uint64        `mapstructure:"marker_key"`
}

// AnonConfig 对应 "anon" 部分
type AnonConfig struct {
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MaxLength     int           `mapstructure:"max_length"`
	DefaultAvatar string        `mapstructure:"default_avatar"`
}

// SystemConfig 对应 "system" 部分，启动与欢迎通知
type SystemConfig struct {
	StartupChannelID string   `mapstructure:"startup_channel_id"`
	WelcomeChannelID string   `mapstructure:"welcome_channel_id"`
	Version          string   `mapstructure:"version"`
	UpdateNote       string   `mapstructure:"update_note"`
	StartupMessages  []string `mapstructure:"startup_messages"`
}
