package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"studybot/internal/domain"
	"studybot/internal/service"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start":
		b.cmdStart(chatID, msg.From.FirstName)
	case "help":
		b.cmdHelp(chatID)
	case "menu":
		b.SendMessageWithKeyboard(chatID, "📱 <b>Main menu</b>", mainMenuKeyboard())
	case "plan":
		b.cmdPlan(chatID, service.StrategyDeterministic)
	case "ai":
		b.cmdPlan(chatID, service.StrategyGenerative)
	case "shift":
		b.cmdShift(chatID, args)
	case "courses":
		b.cmdCourses(chatID)
	case "events":
		b.cmdEvents(chatID)
	case "addevent":
		b.cmdAddEvent(chatID, args)
	case "prefs":
		b.cmdPrefs(chatID)
	case "habits":
		b.cmdHabits(chatID, args)
	case "focus":
		b.cmdFocus(chatID, args)
	case "sync":
		b.cmdSync(chatID)
	default:
		b.SendMessage(chatID, "Unknown command. /help for the command list")
	}
}

func (b *Bot) cmdStart(chatID int64, firstName string) {
	name := firstName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n\nI build a daily study plan from your Canvas assignments and personal calendar, and can ask Gemini for a personalized one.\n\n/plan — build today's plan\n/help — all commands", name)
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Commands:</b>

<b>Planning</b>
/plan — build the study plan from assignments and events
/ai — ask Gemini for a personalized plan
/shift ID ±minutes — move a block

<b>Sources</b>
/courses — toggle per-course planner access
/events — personal events
/addevent Title | 2024-03-12T15:00 | 2024-03-12T17:00 — add an event
/sync — pull Canvas and CalDAV data

<b>Settings</b>
/prefs — toggles and reminder mode
/habits text — describe your study habits for the AI planner
/focus 08:00 18:00 — set the focus window

/help — this reference`

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdPlan(chatID int64, strategy service.Strategy) {
	if _, err := b.planService.BuildPlan(context.Background(), strategy); err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	b.sendPlan(chatID)
}

func (b *Bot) sendPlan(chatID int64) {
	visible, err := b.planService.VisiblePlan()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	text := "<b>🗓 Study plan:</b>\n\n" + b.formatPlan(visible)
	if kb := planKeyboard(visible); kb != nil {
		b.SendMessageWithKeyboard(chatID, text, *kb)
	} else {
		b.SendMessage(chatID, text)
	}
}

func (b *Bot) formatPlan(blocks []*domain.ScheduleBlock) string {
	if len(blocks) == 0 {
		return "Nothing scheduled. Try /sync, then /plan."
	}

	var sb strings.Builder
	for _, blk := range blocks {
		start := blk.Start.In(b.cfg.Timezone)
		end := blk.End.In(b.cfg.Timezone)
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n⏰ %s-%s\n",
			blk.SourceEmoji(), blk.Label, start.Format("15:04"), end.Format("15:04")))
		if note := blk.NoteText(); note != "" {
			sb.WriteString("💡 " + note + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) cmdShift(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.SendMessage(chatID, "Usage: /shift block-id ±minutes")
		return
	}

	minutes, err := strconv.Atoi(fields[1])
	if err != nil {
		b.SendMessage(chatID, "Minutes must be a number, e.g. /shift hw-1 -30")
		return
	}

	blk, err := b.planService.ShiftBlock(fields[0], minutes)
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	start := blk.Start.In(b.cfg.Timezone)
	end := blk.End.In(b.cfg.Timezone)
	b.SendMessage(chatID, fmt.Sprintf("✅ <b>%s</b> moved to %s-%s",
		blk.Label, start.Format("15:04"), end.Format("15:04")))
}

func (b *Bot) cmdCourses(chatID int64) {
	courses, err := b.courseService.Courses()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	if len(courses) == 0 {
		b.SendMessage(chatID, "No courses yet. Run /sync first.")
		return
	}

	text := "<b>📚 Courses</b>\n\nTap a course to toggle planner access. Revoked courses disappear from the plan immediately."
	if kb := coursesKeyboard(courses); kb != nil {
		b.SendMessageWithKeyboard(chatID, text, *kb)
	} else {
		b.SendMessage(chatID, text)
	}
}

func (b *Bot) cmdEvents(chatID int64) {
	events, err := b.calendarService.Events()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	if len(events) == 0 {
		b.SendMessage(chatID, "No personal events. Add one with /addevent or run /sync.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>📅 Personal events:</b>\n\n")
	for _, e := range events {
		origin := "manual"
		if e.SyncedAt != nil {
			origin = "synced"
		}
		sb.WriteString(fmt.Sprintf("• <b>%s</b>\n⏰ %s (%s)\n\n", e.Title, e.FormatRange(), origin))
	}

	if kb := eventsKeyboard(events); kb != nil {
		b.SendMessageWithKeyboard(chatID, sb.String(), *kb)
	} else {
		b.SendMessage(chatID, sb.String())
	}
}

func (b *Bot) cmdAddEvent(chatID int64, args string) {
	parts := strings.Split(args, "|")
	if len(parts) != 3 {
		b.SendMessage(chatID, "Usage: /addevent Title | 2024-03-12T15:00 | 2024-03-12T17:00")
		return
	}

	title := strings.TrimSpace(parts[0])
	start, err := time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(parts[1]), b.cfg.Timezone)
	if err != nil {
		b.SendMessage(chatID, "Bad start time, expected 2024-03-12T15:00")
		return
	}
	end, err := time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(parts[2]), b.cfg.Timezone)
	if err != nil {
		b.SendMessage(chatID, "Bad end time, expected 2024-03-12T17:00")
		return
	}

	evt, err := b.calendarService.AddEvent(context.Background(), title, start, end)
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("✅ Event added\n\n📅 <b>%s</b>\n⏰ %s", evt.Title, evt.FormatRange()))
}

func (b *Bot) cmdPrefs(chatID int64) {
	prefs, err := b.planService.Preferences()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	text := b.formatPrefs(prefs)
	b.SendMessageWithKeyboard(chatID, text, prefsKeyboard(prefs))
}

func (b *Bot) formatPrefs(p *domain.Preferences) string {
	start, end := p.FocusWindow()
	text := fmt.Sprintf(`<b>⚙️ Preferences</b>

Focus window: %s-%s
Breaks: %d min
Habits: %s

%s`,
		start, end, p.BreakMinutes, p.ConsiderHabits, p.ReminderMode.Description())
	return text
}

func (b *Bot) cmdHabits(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Describe your habits: /habits I focus best in the morning")
		return
	}

	prefs, err := b.planService.Preferences()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}
	prefs.ConsiderHabits = args
	if err := b.planService.SavePreferences(prefs); err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	b.SendMessage(chatID, "✅ Habits saved. They feed into the next /ai plan.")
}

func (b *Bot) cmdFocus(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.SendMessage(chatID, "Usage: /focus 08:00 18:00")
		return
	}
	if _, err := domain.ParseClockTime(fields[0]); err != nil {
		b.SendMessage(chatID, "Bad start time: "+err.Error())
		return
	}
	if _, err := domain.ParseClockTime(fields[1]); err != nil {
		b.SendMessage(chatID, "Bad end time: "+err.Error())
		return
	}

	prefs, err := b.planService.Preferences()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}
	prefs.FocusStart = fields[0]
	prefs.FocusEnd = fields[1]
	if err := b.planService.SavePreferences(prefs); err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("✅ Focus window set to %s-%s. Rebuild with /plan to apply.", fields[0], fields[1]))
}

func (b *Bot) cmdSync(chatID int64) {
	ctx := context.Background()
	var lines []string

	// Any Canvas or CalDAV failure degrades to sample data so the planner
	// always has something to work with.
	if b.courseService.IsConfigured() {
		result, err := b.courseService.Sync(ctx)
		if err != nil {
			if sampleErr := b.courseService.LoadSample(time.Now()); sampleErr != nil {
				lines = append(lines, "📚 Canvas: ❌ "+sampleErr.Error())
			} else {
				lines = append(lines, "📚 Canvas sync failed ("+err.Error()+"), loaded sample data")
			}
		} else {
			lines = append(lines, fmt.Sprintf("📚 Canvas: %d courses, %d assignments", result.Courses, result.Assignments))
		}
	} else {
		if err := b.courseService.LoadSample(time.Now()); err != nil {
			lines = append(lines, "📚 Canvas: ❌ "+err.Error())
		} else {
			lines = append(lines, "📚 Canvas not configured, loaded sample data")
		}
	}

	if b.calendarService.IsConfigured() {
		synced, err := b.calendarService.SyncFromCalDAV(ctx)
		if err != nil {
			if sampleErr := b.calendarService.SeedSample(time.Now()); sampleErr != nil {
				lines = append(lines, "📅 Calendar: ❌ "+sampleErr.Error())
			} else {
				lines = append(lines, "📅 Calendar sync failed ("+err.Error()+"), loaded sample events")
			}
		} else {
			lines = append(lines, fmt.Sprintf("📅 Calendar: %d events", synced))
		}
	} else {
		if err := b.calendarService.SeedSample(time.Now()); err != nil {
			lines = append(lines, "📅 Calendar: ❌ "+err.Error())
		} else {
			lines = append(lines, "📅 CalDAV not configured, loaded sample events")
		}
	}

	b.SendMessage(chatID, "<b>🔄 Sync</b>\n\n"+strings.Join(lines, "\n"))
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
