package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"wellness-planner/internal/calendar"
	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks    *TaskService
	calendar *CalendarService
	wellness *WellnessService
}

func NewReminderService(tasks *TaskService, cal *CalendarService, well *WellnessService) *ReminderService {
	return &ReminderService{tasks: tasks, calendar: cal, wellness: well}
}

// DailySummary lists overdue and today's tasks, today's events, the latest mood
// and the last sleep record for user as a Telegram HTML message.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	now = now.In(s.calendar.Location())
	day, err := s.calendar.DayView(ctx, &user, now)
	if err != nil {
		return "", err
	}
	tasks, err := s.tasks.ListTasks(ctx, &user)
	if err != nil {
		return "", err
	}
	mood, hasMood, err := s.wellness.LatestMood(ctx, &user)
	if err != nil {
		return "", err
	}
	sleep, hasSleep, err := s.wellness.LastSleep(ctx, &user)
	if err != nil {
		return "", err
	}

	var overdue []model.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	sortByDue(overdue)

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>Задачи на сегодня</b>\n")
	if len(day.Tasks) == 0 {
		builder.WriteString("— на сегодня задач нет\n")
	} else {
		for _, task := range day.Tasks {
			builder.WriteString(FormatTask(task, now))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Просроченные</b>\n")
		for _, task := range overdue {
			builder.WriteString(FormatTask(task, now))
		}
	}

	builder.WriteString("\n📅 <b>События</b>\n")
	if len(day.Events) == 0 {
		builder.WriteString("— событий нет\n")
	} else {
		for _, e := range day.Events {
			builder.WriteString(FormatEvent(e))
		}
	}

	builder.WriteString("\n💜 <b>Самочувствие</b>\n")
	if hasMood {
		builder.WriteString(fmt.Sprintf("Настроение: %s %s\n", MoodEmoji(mood), MoodLabel(mood)))
	} else {
		builder.WriteString("Настроение: пока не отмечено\n")
	}
	if hasSleep {
		builder.WriteString(fmt.Sprintf("Сон: %s, качество %d/5\n", FormatHours(sleep.Duration().Hours()), sleep.Quality))
	}

	return strings.TrimSpace(builder.String()), nil
}

func sortByDue(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueDate == nil && tasks[j].DueDate == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].DueDate == nil:
			return false
		case tasks[j].DueDate == nil:
			return true
		default:
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		}
	})
}

// FormatTask renders one task line for HTML messages.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.IsDone():
		icon = "✅"
	case task.IsOverdue(now):
		icon = "⚠️"
	case task.Priority == model.PriorityHigh:
		icon = "🔴"
	case task.Status == model.StatusInProgress:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.Title))))

	var labels []string
	for _, c := range task.Categories {
		if name := strings.TrimSpace(c.Name); name != "" {
			labels = append(labels, html.EscapeString(name))
		}
	}
	if len(labels) > 0 {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", strings.Join(labels, ", ")))
	}

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if task.IsOverdue(now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s · <b>просрочено</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := timeutil.DaysBetween(timeutil.DateOf(now), timeutil.DateOf(d))
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s · осталось %d дн.", d.Format("2006-01-02"), daysLeft))
		}
	}
	if task.Recurrence != nil {
		sb.WriteString("\n   ♻️ " + FormatRecurrence(*task.Recurrence))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Description)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// FormatEvent renders one laid-out event line. Overlapping events show their column.
func FormatEvent(e calendar.PlacedEvent) string {
	var sb strings.Builder
	if e.Event.AllDay {
		sb.WriteString("🕘 весь день")
	} else {
		sb.WriteString(fmt.Sprintf("🕘 %s–%s", e.Event.StartTime.Format("15:04"), e.Event.EndTime.Format("15:04")))
	}
	sb.WriteString(" " + html.EscapeString(strings.TrimSpace(e.Event.Title)))
	if e.TotalColumns > 1 {
		sb.WriteString(fmt.Sprintf(" <i>[пересечение %d/%d]</i>", e.Column+1, e.TotalColumns))
	}
	if loc := strings.TrimSpace(e.Event.Location); loc != "" {
		sb.WriteString(fmt.Sprintf("\n   📍 %s", html.EscapeString(loc)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

var weekdayShort = [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

// FormatRecurrence describes a rule in Russian.
func FormatRecurrence(rule model.Recurrence) string {
	var sb strings.Builder
	switch rule.Frequency {
	case model.FrequencyDaily:
		sb.WriteString("каждый день")
	case model.FrequencyWeekly:
		sb.WriteString("каждую неделю")
	case model.FrequencyMonthly:
		sb.WriteString("каждый месяц")
	default:
		sb.WriteString(string(rule.Frequency))
	}
	if rule.Interval > 1 {
		sb.WriteString(fmt.Sprintf(" (раз в %d)", rule.Interval))
	}
	if rule.Frequency == model.FrequencyWeekly && len(rule.DaysOfWeek) > 0 {
		names := make([]string, 0, len(rule.DaysOfWeek))
		for _, d := range rule.DaysOfWeek {
			if d >= 0 && d < len(weekdayShort) {
				names = append(names, weekdayShort[d])
			}
		}
		sb.WriteString(": " + strings.Join(names, ", "))
	}
	if rule.EndDate != nil {
		sb.WriteString(" до " + rule.EndDate.Format("2006-01-02"))
	}
	return sb.String()
}

// FormatHours prints fractional hours as "7ч 30м".
func FormatHours(hours float64) string {
	h := int(hours)
	m := int((hours-float64(h))*60 + 0.5)
	if m == 60 {
		h, m = h+1, 0
	}
	return fmt.Sprintf("%dч %dм", h, m)
}

func MoodEmoji(m model.Mood) string {
	switch m {
	case model.MoodGreat:
		return "😄"
	case model.MoodGood:
		return "🙂"
	case model.MoodOkay:
		return "😐"
	case model.MoodLow:
		return "😕"
	case model.MoodBad:
		return "😣"
	default:
		return "▫️"
	}
}

func MoodLabel(m model.Mood) string {
	switch m {
	case model.MoodGreat:
		return "отлично"
	case model.MoodGood:
		return "хорошо"
	case model.MoodOkay:
		return "нормально"
	case model.MoodLow:
		return "так себе"
	case model.MoodBad:
		return "плохо"
	default:
		return string(m)
	}
}
