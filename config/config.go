package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/miyasty1919/discordmaidbot/model"
)

// EnvPrefix prefixes environment overrides, e.g. MAIDBOT_TOKEN or
// MAIDBOT_LEDGER_MAX_ENTRIES.
const EnvPrefix = "MAIDBOT"

var (
	mu  sync.RWMutex
	cfg model.Config
	v   *viper.Viper
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.path", "data/maidbot.db")
	v.SetDefault("health.addr", ":8000")

	v.SetDefault("ledger.max_entries", 10)
	v.SetDefault("ledger.max_body_length", 3800)
	v.SetDefault("ledger.add_scan_limit", 50)
	v.SetDefault("ledger.delete_scan_limit", 100)
	v.SetDefault("ledger.retry_backoff", 500*time.Millisecond)
	v.SetDefault("ledger.submit_burst", 3)
	v.SetDefault("ledger.submit_window", 60*time.Second)
	v.SetDefault("ledger.max_concurrent_writes", 2)
	v.SetDefault("ledger.audit_timeout", 5*time.Second)
	v.SetDefault("ledger.marker_key", 0)

	v.SetDefault("anon.cooldown", 90*time.Second)
	v.SetDefault("anon.max_length", 400)
	v.SetDefault("anon.default_avatar", "https://cdn.discordapp.com/embed/avatars/0.png")

	v.SetDefault("system.version", "dev")
	v.SetDefault("system.update_note", "🔔 **システム更新のお知らせ**\n・Botの中身を整理整頓しました！")
	v.SetDefault("system.startup_messages", []string{
		"ご主人様！準備万端ですっ！🎀 (System Online)",
		"お掃除完了！いつでも命令してくださいねっ！✨ (System Online)",
		"本日の業務を開始します！張り切っていきましょー！💪 (System Online)",
	})
}

// LoadConfig reads the yaml file at path (config.yaml in the working
// directory when empty), applies defaults and MAIDBOT_* environment
// overrides, and makes the result available through Get.
func LoadConfig(path string) (*model.Config, error) {
	nv := viper.New()
	setDefaults(nv)
	if path != "" {
		nv.SetConfigFile(path)
	} else {
		nv.AddConfigPath(".")
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
	}
	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	_ = nv.BindEnv("token")

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	loaded, err := decode(nv)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	cfg = *loaded
	v = nv
	mu.Unlock()
	return loaded, nil
}

func decode(nv *viper.Viper) (*model.Config, error) {
	var c model.Config
	if err := nv.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.Token == "" {
		return nil, errors.New("config: token is required")
	}
	if c.Ledger.SubmitBurst <= 0 || c.Ledger.SubmitWindow <= 0 {
		return nil, errors.New("config: ledger.submit_burst and ledger.submit_window must be positive")
	}
	return &c, nil
}

// Get returns the current configuration.
func Get() model.Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch reloads the file on change. Only values read through Get at use
// time (auth lists, anon limits) pick up the new settings; ledger tuning is
// fixed at startup. Invalid edits are reported through onError and ignored.
func Watch(onChange func(model.Config), onError func(error)) {
	mu.RLock()
	nv := v
	mu.RUnlock()
	if nv == nil || nv.ConfigFileUsed() == "" {
		return
	}
	nv.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		loaded, err := decode(nv)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		mu.Lock()
		cfg = *loaded
		mu.Unlock()
		if onChange != nil {
			onChange(*loaded)
		}
	})
	nv.WatchConfig()
}
