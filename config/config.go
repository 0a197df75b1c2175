package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port           string
	Timezone       string
	DBPath         string
	BotToken       string
	TelegramAPIURL string
	WebAppURL      string
	AdminURL       string
	EnableCron     bool
	NotifyFrom     int // first hour (inclusive) reminders may be sent
	NotifyTo       int // sends stop after NotifyTo:00
}

func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] No .env file found or error loading: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		v, err := strconv.Atoi(get(k, ""))
		if err != nil {
			return def
		}
		return v
	}
	cfg := AppConfig{
		Port:           get("PORT", "8080"),
		Timezone:       get("TZ", "Europe/Kiev"),
		DBPath:         get("DB_PATH", "pvc.db"),
		BotToken:       get("BOT_TOKEN", ""),
		TelegramAPIURL: strings.TrimRight(get("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		WebAppURL:      get("WEBAPP_URL", "http://localhost:5173"),
		AdminURL:       get("ADMIN_URL", "http://localhost:5174"),
		EnableCron:     get("ENABLE_CRON", "true") == "true",
		NotifyFrom:     getInt("NOTIFY_WINDOW_START", 8),
		NotifyTo:       getInt("NOTIFY_WINDOW_END", 20),
	}
	log.Printf("[cfg] %s", cfg)
	return cfg
}

// String masks the bot token so the config can be logged.
func (c AppConfig) String() string {
	masked := c
	if masked.BotToken != "" {
		masked.BotToken = "***"
	}
	type plain AppConfig
	return fmt.Sprintf("%+v", plain(masked))
}

// Location is the shop's reference calendar. Unknown zones fall back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[cfg] unknown TZ %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// InNotifyWindow reports whether t, in loc, lies between NotifyFrom:00 and
// NotifyTo:00, both ends included.
func (c AppConfig) InNotifyWindow(t time.Time, loc *time.Location) bool {
	t = t.In(loc)
	h := t.Hour()
	if h == c.NotifyTo {
		return t.Minute() == 0 && t.Second() == 0
	}
	return h >= c.NotifyFrom && h < c.NotifyTo
}
