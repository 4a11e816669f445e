package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"wellness-planner/internal/clock"
	"wellness-planner/internal/config"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/repository"
	"wellness-planner/internal/service"
)

const (
	btnSkip         = "⏭️ Пропустить"
	btnConfirm      = "✅ Подтвердить"
	btnCancel       = "↩️ Отмена"
	btnCancelDialog = "⏪ Отменить ввод"

	menuLabelNewTask = "➕ Новая задача"
	menuLabelTasks   = "📋 Задачи"
	menuLabelMonth   = "🗓 Месяц"
	menuLabelToday   = "📅 Сегодня"
	menuLabelMood    = "💜 Настроение"
	menuLabelHelp    = "ℹ️ Помощь"
)

// Deps are the services the chat surface talks to.
type Deps struct {
	Users      *repository.UserRepository
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Calendar   *service.CalendarService
	Wellness   *service.WellnessService
	Reminders  *service.ReminderService
	Rollover   *service.RolloverService
	Clock      clock.Clock
	Logger     *zap.Logger
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api    *tgbotapi.BotAPI
	deps   Deps
	config *config.Config
	clock  clock.Clock
	logger *zap.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
}

func New(token string, deps Deps, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, deps, cfg)
	b.logger.Info("bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, deps Deps, cfg *config.Config) *Bot {
	c := deps.Clock
	if c == nil {
		c = clock.System{}
	}
	return &Bot{
		api:           api,
		deps:          deps,
		config:        cfg,
		clock:         c,
		logger:        logger.OrNop(deps.Logger).Named("bot"),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", zap.Int64("chat_id", update.Message.Chat.ID), zap.Error(err))
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново.")
	}

	if msg.IsCommand() {
		b.logger.Info("command",
			zap.Int64("from", msg.From.ID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.logger.Debug("conversation step", zap.Int64("from", msg.From.ID), zap.Int("stage", int(state.stage)))
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "share":
		return b.handleShare(ctx, msg)
	case "email":
		return b.handleEmail(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "month":
		return b.handleMonth(ctx, msg)
	case "day":
		return b.handleDay(ctx, msg)
	case "event":
		return b.handleEvent(ctx, msg)
	case "editevent":
		return b.handleEditEvent(ctx, msg)
	case "shareevent":
		return b.handleShareEvent(ctx, msg)
	case "delevent":
		return b.handleDeleteEvent(ctx, msg)
	case "mood":
		return b.handleMood(ctx, msg)
	case "trend":
		return b.handleTrend(ctx, msg)
	case "sleep":
		return b.handleSleep(ctx, msg)
	case "sleepstats":
		return b.handleSleepStats(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я планировщик задач и самочувствия.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Команды:\n" +
	"• /newtask — добавить задачу пошагово\n" +
	"• /tasks — активные задачи, завершить по кнопке\n" +
	"• /complete &lt;id&gt; — отметить задачу выполненной\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /share &lt;id&gt; &lt;email&gt; [viewer|editor] — поделиться задачей\n" +
	"• /email &lt;адрес&gt; — привязать почту для совместных задач\n" +
	"• /categories — список категорий\n" +
	"• /month [2025-11] — календарь месяца\n" +
	"• /day [2025-11-30] — задачи и события дня\n" +
	"• /event 2025-11-30 10:00 11:30 Название — добавить событие (или «весь-день» вместо времени)\n" +
	"• /editevent &lt;id&gt; 2025-11-30 12:00 13:00 Название — изменить событие\n" +
	"• /shareevent &lt;id&gt; &lt;email&gt; [viewer|editor] — пригласить на событие\n" +
	"• /delevent &lt;id&gt; — удалить событие\n" +
	"• /mood — отметить настроение\n" +
	"• /trend — настроение за неделю\n" +
	"• /sleep 23:30 07:15 4 — записать сон (качество 1–5)\n" +
	"• /sleepstats — статистика сна за 7 дней\n" +
	"• /report — ежедневный отчёт прямо сейчас\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" + helpText
	if b.config != nil && b.config.ReportInterval > 0 {
		text += fmt.Sprintf("\n\nОтчёт приходит каждые %d ч.", int(b.config.ReportInterval.Hours()))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.deps.Reminders.DailySummary(ctx, *user, b.clock.Now())
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось сформировать отчёт", err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startNewTaskConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelMonth:
		return true, b.sendMonth(ctx, msg.Chat.ID, msg.From, b.clock.Now())
	case menuLabelToday:
		return true, b.sendDay(ctx, msg.Chat.ID, msg.From, b.clock.Now())
	case menuLabelMood:
		return true, b.handleMood(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.deps.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.clock.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.deps.Reminders.DailySummary(ctx, user, now)
		if err != nil {
			b.logger.Error("build summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.logger.Warn("send summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		}
	}
	return nil
}

// ensureUser registers the sender and rolls their stale tasks over. A failed
// rollover is logged and does not block the request.
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	user, err := b.deps.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
	if err != nil {
		return nil, err
	}
	if b.deps.Rollover != nil {
		if _, err := b.deps.Rollover.RunUser(ctx, user); err != nil {
			b.logger.Error("rollover on request", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

// userMessage turns a domain error into something a person can read.
func userMessage(err error) string {
	var v *model.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Error()
	case errors.Is(err, model.ErrTaskNotFound):
		return "задача не найдена"
	case errors.Is(err, model.ErrEventNotFound):
		return "событие не найдено"
	case model.IsCode(err, model.ErrCodeForbidden):
		return "недостаточно прав"
	default:
		return "внутренняя ошибка, попробуй позже"
	}
}

func (b *Bot) sendError(chatID int64, prefix string, err error) error {
	if !model.IsCode(err, model.ErrCodeInvalid) && !model.IsCode(err, model.ErrCodeNotFound) && !model.IsCode(err, model.ErrCodeForbidden) {
		b.logger.Error(prefix, zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return b.sendText(chatID, fmt.Sprintf("%s: %s", prefix, escape(userMessage(err))))
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	if err := b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}
	return b.sendWithReplyMarkup(chatID, "🔹 Главное меню", mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
