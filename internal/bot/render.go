package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wellness-planner/internal/calendar"
	"wellness-planner/internal/config"
	"wellness-planner/internal/model"
	"wellness-planner/internal/service"
	"wellness-planner/internal/wellness"
)

const (
	btnPriorityHigh   = "🔴 Высокий"
	btnPriorityMedium = "🟡 Средний"
	btnPriorityLow    = "🟢 Низкий"
	btnRepeatNone     = "Нет"
	btnRepeatDaily    = "Каждый день"
	btnRepeatWeekly   = "Каждую неделю"
	btnRepeatMonthly  = "Каждый месяц"
)

var monthNames = [...]string{"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

var weekdayNames = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

// renderMonth draws the grid as monospace text followed by the busy days.
func renderMonth(m calendar.Month) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 <b>%s %d</b>\n<pre>", monthNames[m.Month], m.Year))
	sb.WriteString(strings.Join(weekdayShort[:], " "))
	sb.WriteByte('\n')
	for row := 0; row < calendar.GridCells/7; row++ {
		cells := m.Cells[row*7 : row*7+7]
		if !anyInMonth(cells) {
			continue
		}
		var line strings.Builder
		for _, c := range cells {
			line.WriteString(cellText(c))
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	sb.WriteString("</pre>")
	sb.WriteString("* сегодня · ! важное · + есть дела\n")

	for _, c := range m.InMonthCells() {
		if len(c.Tasks) == 0 && len(c.Events) == 0 && !c.HasMood {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n<b>%d</b>", c.DayNumber))
		if c.HasMood {
			sb.WriteString(" " + service.MoodEmoji(c.Mood))
		}
		if len(c.Events) > 0 {
			titles := make([]string, 0, calendar.MaxVisibleEvents)
			for _, e := range c.VisibleEvents() {
				titles = append(titles, html.EscapeString(shortTitle(e.Event.Title, 18)))
			}
			sb.WriteString(" 📅 " + strings.Join(titles, ", "))
			if hidden := c.HiddenEvents(); hidden > 0 {
				sb.WriteString(fmt.Sprintf(" и ещё %d", hidden))
			}
		}
		if len(c.Tasks) > 0 {
			done := 0
			for _, t := range c.Tasks {
				if t.IsDone() {
					done++
				}
			}
			sb.WriteString(fmt.Sprintf(" 📋 %d/%d", done, len(c.Tasks)))
		}
	}
	return strings.TrimSpace(sb.String())
}

func anyInMonth(cells []calendar.Cell) bool {
	for _, c := range cells {
		if c.InMonth {
			return true
		}
	}
	return false
}

// cellText is three characters wide: the day number and a marker.
func cellText(c calendar.Cell) string {
	if !c.InMonth {
		return "   "
	}
	marker := " "
	switch {
	case c.IsToday:
		marker = "*"
	case c.HasHighPriority():
		marker = "!"
	case len(c.Tasks) > 0 || len(c.Events) > 0:
		marker = "+"
	}
	return fmt.Sprintf("%2d%s", c.DayNumber, marker)
}

func renderDay(view service.DayView, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 <b>%s</b>, %s\n", view.Date.Format("02.01.2006"), weekdayNames[view.Date.Weekday()]))
	if view.HasMood {
		sb.WriteString(fmt.Sprintf("Настроение: %s %s\n", service.MoodEmoji(view.Mood), service.MoodLabel(view.Mood)))
	}

	sb.WriteString("\n<b>События</b>\n")
	if len(view.Events) == 0 {
		sb.WriteString("— событий нет\n")
	}
	for _, e := range view.Events {
		sb.WriteString(fmt.Sprintf("#%d ", e.Event.ID))
		sb.WriteString(service.FormatEvent(e))
	}

	sb.WriteString("\n<b>Задачи</b>\n")
	if len(view.Tasks) == 0 {
		sb.WriteString("— задач нет\n")
	}
	for _, t := range view.Tasks {
		sb.WriteString(service.FormatTask(t, now))
	}
	return strings.TrimSpace(sb.String())
}

func renderTrend(days []wellness.TrendDay, dir wellness.TrendDirection) string {
	var sb strings.Builder
	sb.WriteString("💜 <b>Настроение за неделю</b>\n")
	for _, d := range days {
		bar := "·"
		if d.HasMood {
			bar = strings.Repeat("▇", d.Height/10) + " " + service.MoodEmoji(d.Mood)
		}
		sb.WriteString(fmt.Sprintf("%s %s %s\n", weekdayShort[d.Date.Weekday()], d.Date.Format("02.01"), bar))
	}
	switch dir {
	case wellness.Improving:
		sb.WriteString("\n📈 Неделя лучше месяца")
	case wellness.Declining:
		sb.WriteString("\n📉 Неделя хуже месяца")
	default:
		sb.WriteString("\n➖ Без заметных изменений")
	}
	return sb.String()
}

func renderSleepStats(stats wellness.SleepStats, days int) string {
	if stats.Records == 0 {
		return fmt.Sprintf("😴 Нет записей сна за последние %d дн. Добавь: /sleep 23:30 07:15 4", days)
	}
	return fmt.Sprintf("😴 <b>Сон за %d дн.</b>\nЗаписей: %d\nВ среднем: %s\nКачество: %.1f/5\nВсего: %s",
		days, stats.Records, service.FormatHours(stats.AverageDuration), stats.AverageQuality, service.FormatHours(stats.TotalSleep))
}

func parseMonthArg(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	return time.ParseInLocation("2006-01", raw, now.Location())
}

func parseDayArg(raw string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "сегодня":
		return now, nil
	case "завтра":
		return now.AddDate(0, 0, 1), nil
	case "вчера":
		return now.AddDate(0, 0, -1), nil
	}
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), now.Location())
}

// atClock sets the HH:MM wall-clock time on day.
func atClock(day time.Time, raw string) (time.Time, error) {
	hour, minute, err := config.ParseClock(raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

func parsePriority(text string) (model.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnPriorityHigh), "высокий", "high":
		return model.PriorityHigh, true
	case strings.ToLower(btnPriorityMedium), "средний", "medium":
		return model.PriorityMedium, true
	case strings.ToLower(btnPriorityLow), "низкий", "low":
		return model.PriorityLow, true
	}
	return "", false
}

// parseRepeat maps a repeat answer onto a frequency. repeat is false for "no".
func parseRepeat(text string) (freq model.Frequency, repeat bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnRepeatNone), "no", "-", strings.ToLower(btnSkip), "пропустить":
		return "", false, true
	case strings.ToLower(btnRepeatDaily), "daily":
		return model.FrequencyDaily, true, true
	case strings.ToLower(btnRepeatWeekly), "weekly":
		return model.FrequencyWeekly, true, true
	case strings.ToLower(btnRepeatMonthly), "monthly":
		return model.FrequencyMonthly, true, true
	}
	return "", false, false
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}

func replyKeyboard(rows ...[]tgbotapi.KeyboardButton) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := replyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelMonth),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelMood),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnConfirm),
		tgbotapi.NewKeyboardButton(btnCancel),
	))
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPriorityHigh),
			tgbotapi.NewKeyboardButton(btnPriorityMedium),
			tgbotapi.NewKeyboardButton(btnPriorityLow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Учеба"),
			tgbotapi.NewKeyboardButton("Работа"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Семья"),
			tgbotapi.NewKeyboardButton("Здоровье"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatNone),
			tgbotapi.NewKeyboardButton(btnRepeatDaily),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatWeekly),
			tgbotapi.NewKeyboardButton(btnRepeatMonthly),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
}

func moodKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range model.Moods() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(service.MoodEmoji(m), cbMoodPrefix+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
