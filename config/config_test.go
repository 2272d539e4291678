package config

import "testing"

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("OWNER_TELEGRAM_ID", "42")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TIMEZONE", "UTC")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.TelegramToken != "tok" {
			t.Errorf("TelegramToken = %q, want tok", cfg.TelegramToken)
		}
		if cfg.OwnerTelegramID != 42 {
			t.Errorf("OwnerTelegramID = %d, want 42", cfg.OwnerTelegramID)
		}
		if cfg.DatabasePath != "./data/studybot.db" {
			t.Errorf("DatabasePath = %q", cfg.DatabasePath)
		}
		if cfg.ServerPort != "8080" {
			t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
		}
		if cfg.CanvasDomain != "" || cfg.GeminiAPIKey != "" {
			t.Error("optional integrations should default to empty")
		}
	})

	t.Run("missing bot token", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		t.Setenv("OWNER_TELEGRAM_ID", "42")
		if _, err := Load(); err == nil {
			t.Error("Load() expected error without TELEGRAM_BOT_TOKEN")
		}
	})

	t.Run("non-numeric owner id", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
		t.Setenv("OWNER_TELEGRAM_ID", "somebody")
		if _, err := Load(); err == nil {
			t.Error("Load() expected error for bad OWNER_TELEGRAM_ID")
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TIMEZONE", "Mars/Olympus")
		if _, err := Load(); err == nil {
			t.Error("Load() expected error for bad TIMEZONE")
		}
	})

	t.Run("caldav settings", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TIMEZONE", "UTC")
		t.Setenv("CALDAV_URL", "https://caldav.example.com")
		t.Setenv("CALDAV_USERNAME", "student")
		t.Setenv("CALDAV_PASSWORD", "pw")
		t.Setenv("CALDAV_CALENDAR_PATH", "/calendars/student/home/")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.CalDAVURL != "https://caldav.example.com" || cfg.CalDAVUsername != "student" {
			t.Error("caldav credentials not loaded")
		}
		if cfg.CalDAVCalendarPath != "/calendars/student/home/" {
			t.Errorf("CalDAVCalendarPath = %q", cfg.CalDAVCalendarPath)
		}
	})

	t.Run("integration credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TIMEZONE", "UTC")
		t.Setenv("CANVAS_DOMAIN", "school.instructure.com")
		t.Setenv("CANVAS_TOKEN", "canvas-tok")
		t.Setenv("GEMINI_API_KEY", "gem")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.CanvasDomain != "school.instructure.com" || cfg.CanvasToken != "canvas-tok" {
			t.Error("canvas credentials not loaded")
		}
		if cfg.GeminiAPIKey != "gem" {
			t.Error("gemini key not loaded")
		}
		if !cfg.IsAllowedUser(42) || cfg.IsAllowedUser(7) {
			t.Error("IsAllowedUser mismatch")
		}
	})
}
