package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	TelegramToken   string
	OwnerTelegramID int64
	DatabasePath    string
	Timezone        *time.Location

	// Canvas LMS credentials; empty means offline sample data
	CanvasDomain string
	CanvasToken  string

	// Gemini API key; empty disables the generative planner
	GeminiAPIKey string

	// CalDAV credentials for personal calendar sync; empty disables sync.
	// CalendarPath selects the collection to pull from, discoverable via
	// the calendar list API.
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	// Hour (0-23) for the daily plan briefing
	BriefingHour string

	WebhookURL string
	ServerPort string

	// Basic Auth credentials for the JSON API; empty disables the API
	APIUsername string
	APIPassword string
}

func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_TELEGRAM_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is required and must be a number")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/studybot.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "America/Chicago"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	briefingHour := os.Getenv("BRIEFING_HOUR")
	if briefingHour == "" {
		briefingHour = "8"
	}

	webhookURL := os.Getenv("WEBHOOK_URL")
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		TelegramToken:   token,
		OwnerTelegramID: ownerID,
		DatabasePath:    dbPath,
		Timezone:        tz,
		CanvasDomain:    os.Getenv("CANVAS_DOMAIN"),
		CanvasToken:     os.Getenv("CANVAS_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		CalDAVURL:          os.Getenv("CALDAV_URL"),
		CalDAVUsername:     os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:     os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendarPath: os.Getenv("CALDAV_CALENDAR_PATH"),
		BriefingHour:    briefingHour,
		WebhookURL:      webhookURL,
		ServerPort:      serverPort,
		APIUsername:     os.Getenv("API_USERNAME"),
		APIPassword:     os.Getenv("API_PASSWORD"),
	}, nil
}

func (c *Config) IsAllowedUser(telegramID int64) bool {
	return telegramID == c.OwnerTelegramID
}
