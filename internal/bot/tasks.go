package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"wellness-planner/internal/model"
	"wellness-planner/internal/service"
	"wellness-planner/internal/timeutil"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stagePriority
	stageCategory
	stageDueDate
	stageRepeat
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbMoodPrefix     = "mood:"
)

const noCategory = "Без категории"

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ Какой приоритет?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери приоритет кнопкой.", priorityKeyboard())
			}
			state.input.Priority = priority
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Categories = splitList(text)
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Укажи срок в формате <code>2025-11-30</code> (или «Пропустить»).", skipKeyboard())
	case stageDueDate:
		if isSkipInput(text) {
			return b.finishTaskCreation(ctx, msg, state.input)
		}
		due, err := parseDueDate(text, b.clock.Now().In(b.location()))
		if errors.Is(err, errPastDate) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Эта дата уже прошла. Укажи сегодняшнюю или будущую дату (или «Пропустить»).", skipKeyboard())
		}
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
		}
		state.input.DueDate = &due
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Повторять задачу?", repeatKeyboard())
	case stageRepeat:
		freq, repeat, ok := parseRepeat(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант кнопкой.", repeatKeyboard())
		}
		if repeat {
			state.input.Recurrence = &model.Recurrence{Frequency: freq, Interval: 1}
		}
		return b.finishTaskCreation(ctx, msg, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, msg *tgbotapi.Message, input service.TaskInput) error {
	b.clearConversation(msg.From.ID)
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.deps.Tasks.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось сохранить задачу", err)
	}
	b.logger.Info("task created", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID), zap.Bool("recurring", task.Recurrence != nil))

	summary := "✅ <b>Задача сохранена</b>\n" + service.FormatTask(*task, b.clock.Now())
	if err := b.sendTextWithRemove(msg.Chat.ID, strings.TrimSpace(summary)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.deps.Tasks.ListOpen(ctx, user)
	if err != nil {
		return b.sendError(chatID, "Не удалось получить задачи", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет активных задач. Добавь новую через /newtask.")
	}

	groups := groupByCategory(tasks)
	now := b.clock.Now()

	var builder strings.Builder
	builder.WriteString("📋 <b>Текущие задачи</b>\n")
	builder.WriteString("Нажми на кнопку, чтобы отметить задачу выполненной или удалить.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groups {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(group.name)))
		for _, task := range group.tasks {
			builder.WriteString(service.FormatTask(task, now))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

type taskGroup struct {
	name  string
	tasks []model.Task
}

// groupByCategory buckets tasks by their first category, named groups in
// alphabetical order and uncategorised tasks last. Task order is kept.
func groupByCategory(tasks []model.Task) []taskGroup {
	index := make(map[string]int)
	var groups []taskGroup
	for _, task := range tasks {
		name := noCategory
		if len(task.Categories) > 0 && strings.TrimSpace(task.Categories[0].Name) != "" {
			name = strings.TrimSpace(task.Categories[0].Name)
		}
		key := strings.ToLower(name)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, taskGroup{name: name})
		}
		groups[i].tasks = append(groups[i].tasks, task)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].name == noCategory {
			return false
		}
		if groups[j].name == noCategory {
			return true
		}
		return strings.ToLower(groups[i].name) < strings.ToLower(groups[j].name)
	})
	return groups
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := parseID(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /complete 12")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.deps.Tasks.SetStatus(ctx, user, taskID, model.StatusDone)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось обновить задачу", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(task.Title)))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := parseID(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.deps.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось удалить задачу", err)
	}
	if err := b.deps.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось удалить задачу", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(task.Title)))
}

func (b *Bot) handleShare(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) < 2 {
		return b.sendText(msg.Chat.ID, "Формат: /share 12 friend@example.com editor")
	}
	taskID, ok := parseID(fields[0])
	if !ok {
		return b.sendText(msg.Chat.ID, "ID задачи должен быть числом.")
	}
	role := model.CollaboratorViewer
	if len(fields) > 2 {
		role = model.CollaboratorRole(strings.ToLower(fields[2]))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.deps.Tasks.ShareTask(ctx, user, taskID, fields[1], role); err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось поделиться задачей", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🤝 Задача #%d доступна для %s (%s).", taskID, escape(fields[1]), role))
}

func (b *Bot) handleEmail(ctx context.Context, msg *tgbotapi.Message) error {
	email := strings.TrimSpace(msg.CommandArguments())
	if !strings.Contains(email, "@") {
		return b.sendText(msg.Chat.ID, "Укажи адрес: /email me@example.com")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.deps.Users.SetEmail(ctx, user, email); err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось сохранить почту", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📧 Почта %s привязана. Задачи, которыми с тобой поделились, появятся в /tasks.", escape(email)))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.deps.Categories.List(ctx, user)
	if err != nil {
		return b.sendError(msg.Chat.ID, "Не удалось получить категории", err)
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(strings.TrimSpace(cat.Name))))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.ack(cb)

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, ok := parseID(strings.TrimPrefix(data, cbCompletePrefix))
		if !ok {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, ok := parseID(strings.TrimPrefix(data, cbDeletePrefix))
		if !ok {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID, actionDelete)
	case strings.HasPrefix(data, cbMoodPrefix):
		return b.logMood(ctx, cb.Message.Chat.ID, cb.From, strings.TrimPrefix(data, cbMoodPrefix))
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, action confirmationAction) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.deps.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendError(chatID, "Ошибка", err)
	}

	var text string
	switch action {
	case actionDelete:
		text = fmt.Sprintf("Удалить задачу «%s» (#%d)?", escape(task.Title), task.ID)
	default:
		if task.IsDone() {
			return b.sendText(chatID, "Задача уже выполнена.")
		}
		text = fmt.Sprintf("Отметить задачу «%s» (#%d) как выполненную?", escape(task.Title), task.ID)
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.applyConfirmation(ctx, msg.Chat.ID, msg.From, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Главное меню")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени действие.", confirmKeyboard())
	}
}

func (b *Bot) applyConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, req confirmationRequest) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	var info string
	switch req.action {
	case actionDelete:
		task, err := b.deps.Tasks.GetTask(ctx, user, req.taskID)
		if err == nil {
			err = b.deps.Tasks.DeleteTask(ctx, user, req.taskID)
		}
		if err != nil {
			return b.sendError(chatID, "Не удалось удалить задачу", err)
		}
		info = fmt.Sprintf("🗑 Задача «%s» удалена.", escape(task.Title))
		b.logger.Info("task deleted", zap.Uint("task_id", req.taskID), zap.Uint("user_id", user.ID))
	default:
		task, err := b.deps.Tasks.SetStatus(ctx, user, req.taskID, model.StatusDone)
		if err != nil {
			return b.sendError(chatID, "Не удалось обновить задачу", err)
		}
		info = fmt.Sprintf("✅ Задача «%s» выполнена.", escape(task.Title))
		b.logger.Info("task completed", zap.Uint("task_id", req.taskID), zap.Uint("user_id", user.ID))
	}

	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

var errPastDate = errors.New("date is in the past")

// parseDueDate reads a YYYY-MM-DD due date as midnight in now's location. Dates
// before now's day are rejected, since the day's rollover has already run.
func parseDueDate(raw string, now time.Time) (time.Time, error) {
	d, err := timeutil.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	if d.Before(timeutil.DateOf(now)) {
		return time.Time{}, errPastDate
	}
	return d.Time(now.Location()), nil
}

func parseID(raw string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
