package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"studybot/config"
	"studybot/internal/bot"
	"studybot/internal/clients/caldav"
	"studybot/internal/clients/canvas"
	"studybot/internal/clients/gemini"
	"studybot/internal/planner"
	"studybot/internal/sample"
	"studybot/internal/scheduler"
	"studybot/internal/service"
	"studybot/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	// External clients; each degrades to sample data when unconfigured
	canvasClient := canvas.NewClient(cfg.CanvasDomain, cfg.CanvasToken)
	var caldavClient *caldav.Client
	if cfg.CalDAVUsername != "" {
		caldavClient = caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
	}

	courseSvc := service.NewCourseService(store, canvasClient)
	calSvc := service.NewCalendarService(store, caldavClient, cfg.Timezone)
	if cfg.CalDAVCalendarPath != "" {
		calSvc.SetCalendarPath(cfg.CalDAVCalendarPath)
	}

	var generative planner.Producer
	if cfg.GeminiAPIKey != "" {
		generative = gemini.NewClient(cfg.GeminiAPIKey)
	}
	planSvc := service.NewPlanService(store, courseSvc, calSvc, planner.New(nil), generative)

	// A fresh session gets the onboarding block until the first real plan.
	if plan, err := store.LoadPlan(); err == nil && len(plan) == 0 {
		if err := store.SavePlan(sample.StarterSchedule(time.Now())); err != nil {
			log.Printf("Failed to seed starter schedule: %v", err)
		}
	}

	tgBot, err := bot.New(cfg, store, courseSvc, calSvc, planSvc)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	if cfg.WebhookURL != "" {
		if err := tgBot.SetupWebhook(); err != nil {
			log.Fatalf("Failed to setup webhook: %v", err)
		}
	}

	sched := scheduler.New(cfg, store, planSvc, courseSvc)
	sched.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("StudyBot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("StudyBot stopped")
}
