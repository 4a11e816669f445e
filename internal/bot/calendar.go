package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"wellness-planner/internal/model"
	"wellness-planner/internal/service"
)

func (b *Bot) location() *time.Location {
	if b.deps.Calendar != nil {
		return b.deps.Calendar.Location()
	}
	return time.Local
}

func (b *Bot) handleMonth(ctx context.Context, msg *tgbotapi.Message) error {
	anchor, err := parseMonthArg(msg.CommandArguments(), b.clock.Now().In(b.location()))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат месяца: /month 2025-11")
	}
	return b.sendMonth(ctx, msg.Chat.ID, msg.From, anchor)
}

func (b *Bot) sendMonth(ctx context.Context, chatID int64, from *tgbotapi.User, anchor time.Time) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	month, err := b.deps.Calendar.MonthView(ctx, user, anchor)
	if err != nil {
		return b.sendError(chatID, "Не удалось построить календарь", err)
	}
	return b.sendText(chatID, renderMonth(month))
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message) error {
	day, err := parseDayArg(msg.CommandArguments(), b.clock.Now().In(b.location()))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат дня: /day 2025-11-30")
	}
	return b.sendDay(ctx, msg.Chat.ID, msg.From, day)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, from *tgbotapi.User, day time.Time) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	view, err := b.deps.Calendar.DayView(ctx, user, day)
	if err != nil {
		return b.sendError(chatID, "Не удалось показать день", err)
	}
	return b.sendText(chatID, renderDay(view, b.clock.Now()))
}

func (b *Bot) handleEvent(ctx context.Context, msg *tgbotapi.Message) error {
	input, err := parseEventArgs(msg.CommandArguments(), b.location())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /event 2025-11-30 10:00 11:30 Название\nили /event 2025-11-30 весь-день Название")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	event, err := b.deps.Calendar.CreateEvent(ctx, user, input)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось сохранить событие", err)
	}
	b.logger.Info("event created", zap.Uint("event_id", event.ID), zap.Uint("user_id", user.ID))
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📅 Событие #%d «%s» сохранено на %s.",
		event.ID, escape(event.Title), event.StartTime.In(b.location()).Format("2006-01-02")))
}

func (b *Bot) handleEditEvent(ctx context.Context, msg *tgbotapi.Message) error {
	eventID, upd, err := parseEventEditArgs(msg.CommandArguments(), b.location())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /editevent 7 2025-11-30 12:00 13:00 Название")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	event, err := b.deps.Calendar.UpdateEvent(ctx, user, eventID, upd)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось изменить событие", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✏️ Событие #%d «%s» обновлено.", event.ID, escape(event.Title)))
}

func (b *Bot) handleShareEvent(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) < 2 {
		return b.sendText(msg.Chat.ID, "Формат: /shareevent 7 friend@example.com viewer")
	}
	eventID, ok := parseID(fields[0])
	if !ok {
		return b.sendText(msg.Chat.ID, "ID события должен быть числом.")
	}
	role := model.CollaboratorViewer
	if len(fields) > 2 {
		role = model.CollaboratorRole(strings.ToLower(fields[2]))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.deps.Calendar.ShareEvent(ctx, user, eventID, fields[1], role); err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось пригласить на событие", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🤝 Событие #%d доступно для %s (%s).", eventID, escape(fields[1]), role))
}

func (b *Bot) handleDeleteEvent(ctx context.Context, msg *tgbotapi.Message) error {
	eventID, ok := parseID(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Укажи ID события: /delevent 7")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.deps.Calendar.DeleteEvent(ctx, user, eventID); err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось удалить событие", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Событие #%d удалено.", eventID))
}

// parseEventArgs reads "DATE HH:MM HH:MM title" or "DATE весь-день title".
func parseEventArgs(raw string, loc *time.Location) (service.EventInput, error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return service.EventInput{}, fmt.Errorf("event: not enough arguments")
	}
	day, err := time.ParseInLocation("2006-01-02", fields[0], loc)
	if err != nil {
		return service.EventInput{}, fmt.Errorf("event date: %w", err)
	}
	if isAllDayInput(fields[1]) {
		return service.EventInput{
			Title:  strings.Join(fields[2:], " "),
			Start:  day,
			End:    day,
			AllDay: true,
		}, nil
	}
	if len(fields) < 4 {
		return service.EventInput{}, fmt.Errorf("event: title is missing")
	}
	start, err := atClock(day, fields[1])
	if err != nil {
		return service.EventInput{}, err
	}
	end, err := atClock(day, fields[2])
	if err != nil {
		return service.EventInput{}, err
	}
	return service.EventInput{
		Title: strings.Join(fields[3:], " "),
		Start: start,
		End:   end,
	}, nil
}

// parseEventEditArgs reads "ID" followed by the /event format. Every field of
// the event is replaced.
func parseEventEditArgs(raw string, loc *time.Location) (uint, service.EventUpdate, error) {
	head, rest, _ := strings.Cut(strings.TrimSpace(raw), " ")
	eventID, ok := parseID(head)
	if !ok {
		return 0, service.EventUpdate{}, fmt.Errorf("event id: %q is not an id", head)
	}
	in, err := parseEventArgs(rest, loc)
	if err != nil {
		return 0, service.EventUpdate{}, err
	}
	return eventID, service.EventUpdate{
		Title:  &in.Title,
		Start:  &in.Start,
		End:    &in.End,
		AllDay: &in.AllDay,
	}, nil
}

func isAllDayInput(s string) bool {
	switch strings.ToLower(s) {
	case "весь-день", "весь_день", "allday", "all-day":
		return true
	}
	return false
}
