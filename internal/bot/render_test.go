package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-planner/internal/calendar"
	"wellness-planner/internal/clock"
	"wellness-planner/internal/model"
	"wellness-planner/internal/service"
	"wellness-planner/internal/wellness"
)

func march(d, h, m int) time.Time {
	return time.Date(2024, time.March, d, h, m, 0, 0, time.UTC)
}

func TestRenderMonth(t *testing.T) {
	due12 := march(12, 0, 0)
	tasks := []model.Task{{ID: 1, Title: "tax", Priority: model.PriorityHigh, Status: model.StatusTodo, DueDate: &due12}}
	var events []model.CalendarEvent
	for i := 1; i <= 4; i++ {
		events = append(events, model.CalendarEvent{
			ID:        uint(i),
			Title:     "meet" + string(rune('A'+i-1)),
			StartTime: march(20, 8+i, 0),
			EndTime:   march(20, 9+i, 0),
		})
	}
	moods := []model.MoodEntry{{ID: 1, Mood: model.MoodGreat, Timestamp: march(5, 8, 0)}}

	month, err := calendar.BuildMonth(march(1, 0, 0), tasks, events, moods, calendar.WithClock(clock.Fixed(march(5, 12, 0))))
	require.NoError(t, err)

	text := renderMonth(month)
	assert.Contains(t, text, "🗓 <b>Март 2024</b>")
	assert.Contains(t, text, "Вс Пн Вт Ср Чт Пт Сб\n")
	assert.Contains(t, text, "\n"+strings.Repeat(" ", 16)+"1  2\n")
	assert.Contains(t, text, " 5*")
	assert.Contains(t, text, "12!")
	assert.Contains(t, text, "20+")
	assert.Contains(t, text, "<b>5</b> 😄")
	assert.Contains(t, text, "<b>20</b> 📅 meetA, meetB, meetC и ещё 1")
	assert.Contains(t, text, "<b>12</b> 📋 0/1")

	pre := text[strings.Index(text, "<pre>"):strings.Index(text, "</pre>")]
	// header plus the six weeks March 2024 spans
	assert.Equal(t, 7, strings.Count(pre, "\n"))
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "   ", cellText(calendar.Cell{}))
	assert.Equal(t, " 7 ", cellText(calendar.Cell{InMonth: true, DayNumber: 7}))
	assert.Equal(t, "17*", cellText(calendar.Cell{InMonth: true, DayNumber: 17, IsToday: true,
		Tasks: []model.Task{{Priority: model.PriorityHigh}}}))
	assert.Equal(t, "17!", cellText(calendar.Cell{InMonth: true, DayNumber: 17,
		Tasks: []model.Task{{Priority: model.PriorityHigh}}}))
	assert.Equal(t, "17+", cellText(calendar.Cell{InMonth: true, DayNumber: 17,
		Tasks: []model.Task{{Priority: model.PriorityHigh, Status: model.StatusDone}}}))
}

func TestRenderDay(t *testing.T) {
	view := service.DayView{
		Date:    march(5, 0, 0),
		Mood:    model.MoodOkay,
		HasMood: true,
		Events: []calendar.PlacedEvent{{
			Event:     model.CalendarEvent{ID: 3, Title: "yoga", StartTime: march(5, 7, 0), EndTime: march(5, 8, 0)},
			Placement: calendar.Placement{Column: 0, TotalColumns: 1},
		}},
	}
	text := renderDay(view, march(5, 12, 0))
	assert.Contains(t, text, "05.03.2024</b>, вторник")
	assert.Contains(t, text, "нормально")
	assert.Contains(t, text, "#3 🕘 07:00–08:00 yoga")
	assert.Contains(t, text, "— задач нет")
}

func TestRenderTrend(t *testing.T) {
	days := []wellness.TrendDay{
		{Date: march(4, 0, 0)},
		{Date: march(5, 0, 0), Mood: model.MoodGood, HasMood: true, Height: 75},
	}
	text := renderTrend(days, wellness.Improving)
	assert.Contains(t, text, "Пн 04.03 ·\n")
	assert.Contains(t, text, "Вт 05.03 "+strings.Repeat("▇", 7)+" 🙂\n")
	assert.Contains(t, text, "📈")
	assert.Contains(t, renderTrend(nil, wellness.Stable), "Без заметных изменений")
}

func TestRenderSleepStats(t *testing.T) {
	assert.Contains(t, renderSleepStats(wellness.SleepStats{}, 7), "Нет записей")
	text := renderSleepStats(wellness.SleepStats{Records: 2, AverageDuration: 7.5, AverageQuality: 3.5, TotalSleep: 15}, 7)
	assert.Contains(t, text, "Записей: 2")
	assert.Contains(t, text, "В среднем: 7ч 30м")
	assert.Contains(t, text, "Качество: 3.5/5")
	assert.Contains(t, text, "Всего: 15ч 0м")
}

func TestParseSleepArgs(t *testing.T) {
	now := march(5, 9, 0)

	in, err := parseSleepArgs("23:30 07:15 4", now)
	require.NoError(t, err)
	assert.Equal(t, march(4, 23, 30), in.Start)
	assert.Equal(t, march(5, 7, 15), in.End)
	assert.Equal(t, 4, in.Quality)
	assert.Nil(t, in.MoodOnWakeup)

	in, err = parseSleepArgs("01:00 08:00 5 great", now)
	require.NoError(t, err)
	assert.Equal(t, march(5, 1, 0), in.Start)
	require.NotNil(t, in.MoodOnWakeup)
	assert.Equal(t, model.MoodGreat, *in.MoodOnWakeup)

	for _, raw := range []string{"", "23:00 07:00", "25:00 07:00 3", "23:00 07:00 x", "23:00 07:00 3 sleepy"} {
		_, err := parseSleepArgs(raw, now)
		assert.Error(t, err, raw)
	}
}

func TestParseEventArgs(t *testing.T) {
	in, err := parseEventArgs("2024-03-05 10:00 11:30 Team sync", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Team sync", in.Title)
	assert.Equal(t, march(5, 10, 0), in.Start)
	assert.Equal(t, march(5, 11, 30), in.End)
	assert.False(t, in.AllDay)

	in, err = parseEventArgs("2024-03-05 весь-день Отпуск", time.UTC)
	require.NoError(t, err)
	assert.True(t, in.AllDay)
	assert.Equal(t, "Отпуск", in.Title)
	assert.Equal(t, march(5, 0, 0), in.Start)

	for _, raw := range []string{"", "2024-03-05 10:00", "2024-13-05 10:00 11:00 x", "2024-03-05 10:00 11:00", "2024-03-05 aa:00 11:00 x"} {
		_, err := parseEventArgs(raw, time.UTC)
		assert.Error(t, err, raw)
	}
}

func TestParseEventEditArgs(t *testing.T) {
	id, upd, err := parseEventEditArgs("7 2024-03-05 12:00 13:00 Lunch", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	require.NotNil(t, upd.Title)
	assert.Equal(t, "Lunch", *upd.Title)
	assert.Equal(t, march(5, 12, 0), *upd.Start)
	assert.Equal(t, march(5, 13, 0), *upd.End)
	assert.False(t, *upd.AllDay)

	for _, raw := range []string{"", "x 2024-03-05 12:00 13:00 Lunch", "7", "7 2024-03-05 12:00"} {
		_, _, err := parseEventEditArgs(raw, time.UTC)
		assert.Error(t, err, raw)
	}
}

func TestParseDueDate(t *testing.T) {
	now := march(5, 9, 0)

	due, err := parseDueDate(" 2024-03-05 ", now)
	require.NoError(t, err)
	assert.Equal(t, march(5, 0, 0), due)
	due, err = parseDueDate("2024-04-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.April, due.Month())

	_, err = parseDueDate("2024-03-04", now)
	assert.ErrorIs(t, err, errPastDate)
	_, err = parseDueDate("04.03.2024", now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errPastDate)
}

func TestParseMonthAndDayArgs(t *testing.T) {
	now := march(5, 9, 0)

	m, err := parseMonthArg("", now)
	require.NoError(t, err)
	assert.Equal(t, now, m)
	m, err = parseMonthArg("2025-11", now)
	require.NoError(t, err)
	assert.Equal(t, time.November, m.Month())
	_, err = parseMonthArg("11-2025", now)
	assert.Error(t, err)

	d, err := parseDayArg("завтра", now)
	require.NoError(t, err)
	assert.Equal(t, 6, d.Day())
	d, err = parseDayArg("вчера", now)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Day())
	d, err = parseDayArg("2024-02-29", now)
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())
	_, err = parseDayArg("someday", now)
	assert.Error(t, err)
}

func TestDialogParsers(t *testing.T) {
	p, ok := parsePriority(btnPriorityHigh)
	assert.True(t, ok)
	assert.Equal(t, model.PriorityHigh, p)
	p, ok = parsePriority("низкий")
	assert.True(t, ok)
	assert.Equal(t, model.PriorityLow, p)
	_, ok = parsePriority("urgent")
	assert.False(t, ok)

	freq, repeat, ok := parseRepeat(btnRepeatWeekly)
	assert.True(t, ok)
	assert.True(t, repeat)
	assert.Equal(t, model.FrequencyWeekly, freq)
	_, repeat, ok = parseRepeat("нет")
	assert.True(t, ok)
	assert.False(t, repeat)
	_, _, ok = parseRepeat("иногда")
	assert.False(t, ok)

	assert.True(t, isSkipInput(" Пропустить "))
	assert.True(t, isConfirmInput(btnConfirm))
	assert.True(t, isCancelDialogInput("отмена"))
	assert.Equal(t, []string{"Работа", "Дом"}, splitList(" Работа, ,Дом "))
}

func TestGroupByCategory(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b", Categories: []model.Category{{Name: "Работа"}}},
		{ID: 3, Title: "c", Categories: []model.Category{{Name: "Здоровье"}}},
		{ID: 4, Title: "d", Categories: []model.Category{{Name: "работа"}}},
	}
	groups := groupByCategory(tasks)
	require.Len(t, groups, 3)
	assert.Equal(t, "Здоровье", groups[0].name)
	assert.Equal(t, "Работа", groups[1].name)
	assert.Len(t, groups[1].tasks, 2)
	assert.Equal(t, noCategory, groups[2].name)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle(" short ", 10))
	assert.Equal(t, "Привет, ми…", shortTitle("Привет, мир!", 11))
	assert.Equal(t, "a b", shortTitle("a\nb", 5))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "задача не найдена", userMessage(model.ErrTaskNotFound))
	assert.Equal(t, "событие не найдено", userMessage(model.ErrEventNotFound))
	assert.Equal(t, "недостаточно прав", userMessage(model.Forbidden("delete task")))
	assert.Equal(t, "invalid title: is required", userMessage(model.Invalid("title", "is required")))
	assert.Equal(t, "внутренняя ошибка, попробуй позже", userMessage(errors.New("disk full")))
}
