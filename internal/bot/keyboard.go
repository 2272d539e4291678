package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"studybot/internal/domain"
)

// Plan keyboard: shift buttons for each block plus rebuild actions
func planKeyboard(blocks []*domain.ScheduleBlock) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for i, blk := range blocks {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("⏪ -30m %s", truncate(blk.Label, 15)),
				fmt.Sprintf("shift:%s:-30", blk.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				"+30m ⏩",
				fmt.Sprintf("shift:%s:30", blk.ID),
			),
		)
		rows = append(rows, row)
		if i >= 7 {
			break
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Rebuild", "plan:rebuild"),
		tgbotapi.NewInlineKeyboardButtonData("✨ Ask Gemini", "plan:ai"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Course access keyboard: one toggle button per course
func coursesKeyboard(courses []*domain.Course) *tgbotapi.InlineKeyboardMarkup {
	if len(courses) == 0 {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range courses {
		state := "🔓"
		if !c.AllowAccess {
			state = "🔒"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", state, truncate(c.Name, 30)),
				"course:"+c.ID,
			),
		))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Preferences keyboard: source toggles, notification toggle, reminder modes
func prefsKeyboard(p *domain.Preferences) tgbotapi.InlineKeyboardMarkup {
	onOff := func(v bool) string {
		if v {
			return "✅"
		}
		return "⬜"
	}
	modeMark := func(m domain.ReminderMode) string {
		if p.ReminderMode == m {
			return "🔘"
		}
		return "⚪"
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(onOff(p.IncludeCanvas)+" Canvas", "pref:canvas"),
			tgbotapi.NewInlineKeyboardButtonData(onOff(p.IncludePersonal)+" Personal", "pref:personal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(onOff(p.NotificationsEnabled)+" Notifications", "pref:notify"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(modeMark(domain.ReminderGentle)+" Gentle", "mode:gentle"),
			tgbotapi.NewInlineKeyboardButtonData(modeMark(domain.ReminderSmart)+" Smart", "mode:smart"),
			tgbotapi.NewInlineKeyboardButtonData(modeMark(domain.ReminderProactive)+" Proactive", "mode:proactive"),
		),
	)
}

// Events keyboard: delete button per manually managed event
func eventsKeyboard(events []*domain.PersonalEvent) *tgbotapi.InlineKeyboardMarkup {
	if len(events) == 0 {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", truncate(e.Title, 30)),
				"delevent:"+e.ID,
			),
		))
		if len(rows) >= 10 {
			break
		}
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Main menu keyboard
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Plan", "menu:plan"),
			tgbotapi.NewInlineKeyboardButtonData("📚 Courses", "menu:courses"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Events", "menu:events"),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Preferences", "menu:prefs"),
		),
	)
}
