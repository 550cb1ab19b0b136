package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type StoreConfig struct {
	DatabaseURL     string
	CredentialsFile string
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

type PaymentConfig struct {
	BaseURL string
}

type ExternalServicesConfig struct {
	DetectorURL       string
	DetectorToken     string
	CameraSnapshotURL string
}

type MonitorConfig struct {
	FrameInterval  time.Duration
	CooldownFrames int
	LinkDelay      time.Duration
}

type SchedulerConfig struct {
	ReminderInterval time.Duration
	ReminderBackoff  time.Duration
	WatcherInterval  time.Duration
	WatcherBackoff   time.Duration
}

type Config struct {
	Environment      string
	HTTP             HTTPConfig
	DB               DBConfig
	Auth             AuthConfig
	Store            StoreConfig
	SMTP             SMTPConfig
	Payment          PaymentConfig
	ExternalServices ExternalServicesConfig
	Monitor          MonitorConfig
	Scheduler        SchedulerConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Store: StoreConfig{
			DatabaseURL:     v.GetString("FIREBASE_DATABASE_URL"),
			CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			From:     v.GetString("SMTP_FROM"),
			Password: v.GetString("SMTP_PASSWORD"),
		},
		Payment: PaymentConfig{
			BaseURL: v.GetString("PAYMENT_BASE_URL"),
		},
		ExternalServices: ExternalServicesConfig{
			DetectorURL:       v.GetString("DETECTOR_SERVICE_URL"),
			DetectorToken:     v.GetString("DETECTOR_INTERNAL_TOKEN"),
			CameraSnapshotURL: v.GetString("CAMERA_SNAPSHOT_URL"),
		},
		Monitor: MonitorConfig{
			FrameInterval:  v.GetDuration("MONITOR_FRAME_INTERVAL"),
			CooldownFrames: v.GetInt("MONITOR_COOLDOWN_FRAMES"),
			LinkDelay:      v.GetDuration("MONITOR_LINK_DELAY"),
		},
		Scheduler: SchedulerConfig{
			ReminderInterval: v.GetDuration("REMINDER_INTERVAL"),
			ReminderBackoff:  v.GetDuration("REMINDER_ERROR_BACKOFF"),
			WatcherInterval:  v.GetDuration("WATCHER_INTERVAL"),
			WatcherBackoff:   v.GetDuration("WATCHER_ERROR_BACKOFF"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Monitor.FrameInterval == 0 {
		cfg.Monitor.FrameInterval = 100 * time.Millisecond
	}
	if cfg.Monitor.CooldownFrames == 0 {
		cfg.Monitor.CooldownFrames = 30
	}
	if cfg.Monitor.LinkDelay == 0 {
		cfg.Monitor.LinkDelay = 2 * time.Second
	}
	if cfg.Scheduler.ReminderInterval == 0 {
		cfg.Scheduler.ReminderInterval = 5 * time.Minute
	}
	if cfg.Scheduler.ReminderBackoff == 0 {
		cfg.Scheduler.ReminderBackoff = time.Minute
	}
	if cfg.Scheduler.WatcherInterval == 0 {
		cfg.Scheduler.WatcherInterval = 10 * time.Second
	}
	if cfg.Scheduler.WatcherBackoff == 0 {
		cfg.Scheduler.WatcherBackoff = 30 * time.Second
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Store.DatabaseURL == "" {
		return fmt.Errorf("FIREBASE_DATABASE_URL is required")
	}
	return nil
}
