package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"studybot/config"
	"studybot/internal/domain"
	"studybot/internal/planner"
	"studybot/internal/service"
	"studybot/internal/storage"
)

type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler drives the time-based behavior: a daily plan briefing and a
// per-minute sweep that reminds the student shortly before a study block
// starts. Reminders honor the notification toggle and reminder mode.
type Scheduler struct {
	cron          *cron.Cron
	cfg           *config.Config
	storage       *storage.Storage
	planService   *service.PlanService
	courseService *service.CourseService
	sender        MessageSender
}

func New(cfg *config.Config, storage *storage.Storage, planSvc *service.PlanService, courseSvc *service.CourseService) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:          c,
		cfg:           cfg,
		storage:       storage,
		planService:   planSvc,
		courseService: courseSvc,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	briefingSpec := fmt.Sprintf("0 %s * * *", s.cfg.BriefingHour)
	if _, err := s.cron.AddFunc(briefingSpec, s.dailyBriefing); err != nil {
		return fmt.Errorf("add daily briefing: %w", err)
	}

	if _, err := s.cron.AddFunc("* * * * *", s.checkBlockReminders); err != nil {
		return fmt.Errorf("add block reminder check: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s, briefing hour: %s)",
		s.cfg.Timezone, s.cfg.BriefingHour)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) dailyBriefing() {
	if s.sender == nil {
		return
	}

	blocks, err := s.planService.VisiblePlan()
	if err != nil {
		log.Printf("Error loading plan for briefing: %v", err)
		return
	}

	now := time.Now().In(s.cfg.Timezone)
	var today []*domain.ScheduleBlock
	for _, b := range blocks {
		start := b.Start.In(s.cfg.Timezone)
		if start.Year() == now.Year() && start.YearDay() == now.YearDay() {
			today = append(today, b)
		}
	}

	text := "☀️ <b>Good morning!</b>\n\n"
	if len(today) == 0 {
		text += "No study blocks scheduled today. Run /plan to build one."
	} else {
		text += fmt.Sprintf("<b>%d study blocks today:</b>\n\n", len(today))
		for _, b := range today {
			text += fmt.Sprintf("%s <b>%s</b>\n⏰ %s\n\n", b.SourceEmoji(), b.Label, formatRange(b, s.cfg.Timezone))
		}
	}

	if err := s.sender.SendMessage(s.cfg.OwnerTelegramID, text); err != nil {
		log.Printf("Error sending daily briefing: %v", err)
	}
}

func (s *Scheduler) checkBlockReminders() {
	if s.sender == nil {
		return
	}

	prefs, err := s.planService.Preferences()
	if err != nil {
		log.Printf("Error getting preferences: %v", err)
		return
	}
	if !prefs.NotificationsEnabled {
		return
	}

	courses, err := s.courseService.Courses()
	if err != nil {
		log.Printf("Error listing courses: %v", err)
		return
	}

	now := time.Now()
	due, err := s.storage.ListUpcomingUnreminded(now, now.Add(reminderLead(prefs.ReminderMode)))
	if err != nil {
		log.Printf("Error getting due blocks: %v", err)
		return
	}

	for _, b := range due {
		if !planner.Visible(b, courses, prefs) {
			continue
		}

		text := reminderText(prefs.ReminderMode, b, s.cfg.Timezone)
		if err := s.sender.SendMessage(s.cfg.OwnerTelegramID, text); err != nil {
			log.Printf("Error sending reminder for block %s: %v", b.ID, err)
			continue
		}

		if err := s.storage.MarkBlockReminded(b.ID, now); err != nil {
			log.Printf("Error marking block %s as reminded: %v", b.ID, err)
		}
	}
}

// reminderLead is how far before a block's start its reminder fires.
// Gentle mode waits until the block begins; the other modes give a
// head start so the student can wrap up what they're doing.
func reminderLead(mode domain.ReminderMode) time.Duration {
	if mode == domain.ReminderGentle {
		return time.Minute
	}
	return 10 * time.Minute
}

func formatRange(b *domain.ScheduleBlock, tz *time.Location) string {
	return b.Start.In(tz).Format("15:04") + "-" + b.End.In(tz).Format("15:04")
}

func reminderText(mode domain.ReminderMode, b *domain.ScheduleBlock, tz *time.Location) string {
	header := "🔔 <b>Study block starting</b>"
	switch mode {
	case domain.ReminderGentle:
		header = "🔔 <b>Time to start</b>"
	case domain.ReminderProactive:
		header = "🔔 <b>Heads up, block ahead</b>"
	case domain.ReminderSmart:
		header = "🔔 <b>Coming up next</b>"
	}

	text := fmt.Sprintf("%s\n\n%s <b>%s</b>\n⏰ %s", header, b.SourceEmoji(), b.Label, formatRange(b, tz))
	if note := b.NoteText(); note != "" {
		text += "\n💡 " + note
	}
	if mode == domain.ReminderProactive {
		text += "\n\nI'll check in on your progress mid-block."
	}
	return text
}
