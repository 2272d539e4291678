package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"studybot/internal/domain"
	"studybot/internal/service"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if !b.cfg.IsAllowedUser(userID) {
		b.SendMessage(chatID, "⛔ Access denied")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	// Free text is treated as habit notes for the AI planner.
	b.cmdHabits(chatID, text)
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	msgID := callback.Message.MessageID

	if !b.cfg.IsAllowedUser(userID) {
		b.api.Request(tgbotapi.NewCallback(callback.ID, "⛔ Access denied"))
		return
	}

	data := callback.Data
	parts := strings.Split(data, ":")

	switch parts[0] {
	case "course":
		if len(parts) < 2 {
			return
		}
		allowed, err := b.courseService.ToggleAccess(parts[1])
		if err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		state := "🔓 Access granted"
		if !allowed {
			state = "🔒 Access revoked"
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, state))
		b.refreshCourses(chatID, msgID)

	case "pref":
		if len(parts) < 2 {
			return
		}
		prefs, err := b.planService.Preferences()
		if err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		switch parts[1] {
		case "canvas":
			prefs.IncludeCanvas = !prefs.IncludeCanvas
		case "personal":
			prefs.IncludePersonal = !prefs.IncludePersonal
		case "notify":
			prefs.NotificationsEnabled = !prefs.NotificationsEnabled
		default:
			return
		}
		if err := b.planService.SavePreferences(prefs); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "✅ Saved"))
		b.refreshPrefs(chatID, msgID)

	case "mode":
		if len(parts) < 2 {
			return
		}
		prefs, err := b.planService.Preferences()
		if err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		prefs.ReminderMode = domain.ParseReminderMode(parts[1])
		if err := b.planService.SavePreferences(prefs); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "✅ "+prefs.ReminderMode.Description()))
		b.refreshPrefs(chatID, msgID)

	case "plan":
		if len(parts) < 2 {
			return
		}
		strategy := service.StrategyDeterministic
		if parts[1] == "ai" {
			strategy = service.StrategyGenerative
		}
		if _, err := b.planService.BuildPlan(context.Background(), strategy); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "✅ Plan rebuilt"))
		b.refreshPlan(chatID, msgID)

	case "shift":
		if len(parts) < 3 {
			return
		}
		minutes, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		if _, err := b.planService.ShiftBlock(parts[1], minutes); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "✅ Block moved"))
		b.refreshPlan(chatID, msgID)

	case "delevent":
		if len(parts) < 2 {
			return
		}
		if err := b.calendarService.DeleteEvent(parts[1]); err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ "+err.Error()))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Deleted"))
		b.cmdEvents(chatID)

	case "menu":
		if len(parts) < 2 {
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		switch parts[1] {
		case "plan":
			b.sendPlan(chatID)
		case "courses":
			b.cmdCourses(chatID)
		case "events":
			b.cmdEvents(chatID)
		case "prefs":
			b.cmdPrefs(chatID)
		}
	}
}

func (b *Bot) refreshPlan(chatID int64, msgID int) {
	visible, err := b.planService.VisiblePlan()
	if err != nil {
		return
	}
	text := "<b>🗓 Study plan:</b>\n\n" + b.formatPlan(visible)
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = "HTML"
	if kb := planKeyboard(visible); kb != nil {
		edit.ReplyMarkup = kb
	}
	b.api.Send(edit)
}

func (b *Bot) refreshCourses(chatID int64, msgID int) {
	courses, err := b.courseService.Courses()
	if err != nil {
		return
	}
	text := "<b>📚 Courses</b>\n\nTap a course to toggle planner access. Revoked courses disappear from the plan immediately."
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = "HTML"
	if kb := coursesKeyboard(courses); kb != nil {
		edit.ReplyMarkup = kb
	}
	b.api.Send(edit)
}

func (b *Bot) refreshPrefs(chatID int64, msgID int) {
	prefs, err := b.planService.Preferences()
	if err != nil {
		return
	}
	kb := prefsKeyboard(prefs)
	edit := tgbotapi.NewEditMessageText(chatID, msgID, b.formatPrefs(prefs))
	edit.ParseMode = "HTML"
	edit.ReplyMarkup = &kb
	b.api.Send(edit)
}
