package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sugils/Email-tracker-BE/pkg/mq"
)

type Config struct {
	TrackingDB   Postgres          `json:"tracking_db"`
	SMTP         SMTP              `json:"smtp"`
	IMAP         IMAP              `json:"imap"`
	Tracking     Tracking          `json:"tracking"`
	ReplyCheck   ReplyCheck        `json:"reply_check"`
	Dispatcher   Dispatcher        `json:"dispatcher"`
	EngagementMQ mq.ProducerConfig `json:"engagement_mq"`
}

type Postgres struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

func (pg *Postgres) ToDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		pg.Host, pg.Username, pg.Password, pg.Database, pg.Port, pg.SSLMode)
}

type SMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type IMAP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Mailbox  string `json:"mailbox"`
}

type Tracking struct {
	// BaseURL is the public prefix embedded into outbound content,
	// e.g. https://track.example.com/api/v1/
	BaseURL string `json:"base_url"`

	// FallbackRedirectURL receives clicks whose mapping cannot be resolved.
	FallbackRedirectURL string `json:"fallback_redirect_url"`

	// AcceptEngagementAfterFailure lets open/click signals move a failed
	// record forward, e.g. when a retried send succeeded out of band.
	// Counters are recorded either way.
	AcceptEngagementAfterFailure bool `json:"accept_engagement_after_failure"`
}

type ReplyCheck struct {
	IntervalSeconds     int `json:"interval_seconds"`
	LookbackHours       int `json:"lookback_hours"`
	SubjectCacheSeconds int `json:"subject_cache_seconds"`
}

type Dispatcher struct {
	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`
}

func NewConfig() *Config {
	return &Config{
		TrackingDB: Postgres{
			Username: "postgres",
			Password: "",
			Host:     "127.0.0.1",
			Port:     5432,
			Database: "email_tracker_db",
			SSLMode:  "disable",
		},
		SMTP: SMTP{
			Host:     "127.0.0.1",
			Port:     587,
			Username: "",
			Password: "",
		},
		IMAP: IMAP{
			Host:     "127.0.0.1",
			Port:     993,
			Username: "",
			Password: "",
			Mailbox:  "INBOX",
		},
		Tracking: Tracking{
			BaseURL:                      "http://localhost:9090/api/v1/",
			FallbackRedirectURL:          "https://www.google.com",
			AcceptEngagementAfterFailure: true,
		},
		ReplyCheck: ReplyCheck{
			IntervalSeconds:     300,
			LookbackHours:       24,
			SubjectCacheSeconds: 120,
		},
		Dispatcher: Dispatcher{
			Workers:   10,
			QueueSize: 100,
		},
	}
}

func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	p := json.NewDecoder(f)
	if err := p.Decode(&c); err != nil {
		return err
	}

	return nil
}
