package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wellness-planner/internal/model"
	"wellness-planner/internal/service"
	"wellness-planner/internal/wellness"
)

func (b *Bot) handleMood(ctx context.Context, msg *tgbotapi.Message) error {
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		return b.logMood(ctx, msg.Chat.ID, msg.From, arg)
	}
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, "💜 Как ты себя чувствуешь?", moodKeyboard())
}

func (b *Bot) logMood(ctx context.Context, chatID int64, from *tgbotapi.User, raw string) error {
	mood, err := model.ParseMood(raw)
	if err != nil {
		return b.sendError(chatID, "Не удалось записать настроение", err)
	}
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if _, err := b.deps.Wellness.LogMood(ctx, user, mood); err != nil {
		return b.sendError(chatID, "Не удалось записать настроение", err)
	}
	return b.sendText(chatID, fmt.Sprintf("Записал: %s %s", service.MoodEmoji(mood), service.MoodLabel(mood)))
}

func (b *Bot) handleTrend(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	days, dir, err := b.deps.Wellness.MoodTrend(ctx, user, wellness.DefaultTrendDays)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось построить график", err)
	}
	return b.sendText(msg.Chat.ID, renderTrend(days, dir))
}

func (b *Bot) handleSleep(ctx context.Context, msg *tgbotapi.Message) error {
	input, err := parseSleepArgs(msg.CommandArguments(), b.clock.Now().In(b.location()))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /sleep 23:30 07:15 4 (отбой, подъём, качество 1–5)")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	record, err := b.deps.Wellness.LogSleep(ctx, user, input)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось записать сон", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("😴 Сон записан: %s, качество %d/5.",
		service.FormatHours(record.Duration().Hours()), record.Quality))
}

func (b *Bot) handleSleepStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	stats, err := b.deps.Wellness.SleepStats(ctx, user, wellness.DefaultSleepWindow)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось посчитать статистику", err)
	}
	return b.sendText(msg.Chat.ID, renderSleepStats(stats, wellness.DefaultSleepWindow))
}

// parseSleepArgs reads "HH:MM HH:MM quality [mood]". The wake-up time is on
// now's day; bedtime is the latest such clock time before it.
func parseSleepArgs(raw string, now time.Time) (service.SleepInput, error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return service.SleepInput{}, fmt.Errorf("sleep: not enough arguments")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end, err := atClock(today, fields[1])
	if err != nil {
		return service.SleepInput{}, err
	}
	start, err := atClock(today, fields[0])
	if err != nil {
		return service.SleepInput{}, err
	}
	if !start.Before(end) {
		start = start.AddDate(0, 0, -1)
	}
	quality, err := strconv.Atoi(fields[2])
	if err != nil {
		return service.SleepInput{}, fmt.Errorf("sleep quality: %w", err)
	}
	input := service.SleepInput{Start: start, End: end, Quality: quality}
	if len(fields) > 3 {
		mood, err := model.ParseMood(fields[3])
		if err != nil {
			return service.SleepInput{}, err
		}
		input.MoodOnWakeup = &mood
	}
	return input, nil
}
