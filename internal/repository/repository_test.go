package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wellness-planner/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func day(d, h int) time.Time {
	return time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC)
}

func TestUserUpsertAndEmailLink(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)

	owner, err := users.UpsertFromTelegram(ctx, 100, "Ann", "", "ann")
	require.NoError(t, err)
	again, err := users.UpsertFromTelegram(ctx, 100, "Anna", "K", "ann")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)

	found, err := users.FindByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Anna", found.FirstName)

	_, err = users.FindByTelegramID(ctx, 999)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	task := &model.Task{UserID: owner.ID, Title: "shared"}
	require.NoError(t, tasks.Create(ctx, task))
	require.NoError(t, tasks.AddCollaborator(ctx, &model.TaskCollaborator{TaskID: task.ID, Email: "Bob@Example.com", Role: model.CollaboratorEditor}))

	bob, err := users.UpsertFromTelegram(ctx, 200, "Bob", "", "bob")
	require.NoError(t, err)
	require.NoError(t, users.SetEmail(ctx, bob, "bob@example.com"))

	reloaded, err := tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Collaborators, 1)
	require.NotNil(t, reloaded.Collaborators[0].UserID)
	assert.Equal(t, bob.ID, *reloaded.Collaborators[0].UserID)

	all, err := users.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTaskDefaultsAndRecurrenceColumn(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	due := day(4, 9)
	end := day(30, 0)
	task := &model.Task{
		UserID:     1,
		Title:      "yoga",
		DueDate:    &due,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 2, DaysOfWeek: []int{1, 3}, EndDate: &end},
	}
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, got.Priority)
	assert.Equal(t, model.StatusTodo, got.Status)
	assert.Equal(t, model.RolePersonal, got.Role)
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, model.FrequencyWeekly, got.Recurrence.Frequency)
	assert.Equal(t, []int{1, 3}, got.Recurrence.DaysOfWeek)
	require.NotNil(t, got.Recurrence.EndDate)
	assert.True(t, end.Equal(*got.Recurrence.EndDate))
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))

	plain := &model.Task{UserID: 1, Title: "plain"}
	require.NoError(t, repo.Create(ctx, plain))
	got, err = repo.FindByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Recurrence)
	assert.Nil(t, got.DueDate)

	_, err = repo.FindByID(ctx, 12345)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestTaskListingAndSharing(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	d1, d2 := day(5, 0), day(1, 0)
	owned1 := &model.Task{UserID: 1, Title: "later", DueDate: &d1}
	owned2 := &model.Task{UserID: 1, Title: "sooner", DueDate: &d2}
	owned3 := &model.Task{UserID: 1, Title: "someday"}
	other := &model.Task{UserID: 2, Title: "theirs"}
	byEmail := &model.Task{UserID: 2, Title: "invited"}
	for _, task := range []*model.Task{owned1, owned2, owned3, other, byEmail} {
		require.NoError(t, repo.Create(ctx, task))
	}
	uid := uint(1)
	require.NoError(t, repo.AddCollaborator(ctx, &model.TaskCollaborator{TaskID: other.ID, UserID: &uid, Role: model.CollaboratorViewer, Email: "me@example.com"}))
	require.NoError(t, repo.AddCollaborator(ctx, &model.TaskCollaborator{TaskID: byEmail.ID, Role: model.CollaboratorEditor, Email: "ME@example.com"}))

	owned, err := repo.ListOwned(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owned, 3)
	assert.Equal(t, []string{"sooner", "later", "someday"}, []string{owned[0].Title, owned[1].Title, owned[2].Title})

	visible, err := repo.ListForUser(ctx, model.User{ID: 1, Email: "me@example.com"})
	require.NoError(t, err)
	assert.Len(t, visible, 5)

	noEmail, err := repo.ListForUser(ctx, model.User{ID: 1})
	require.NoError(t, err)
	assert.Len(t, noEmail, 4)

	// Re-inviting the same address changes the role instead of duplicating.
	require.NoError(t, repo.AddCollaborator(ctx, &model.TaskCollaborator{TaskID: byEmail.ID, Role: model.CollaboratorViewer, Email: "me@example.com"}))
	reloaded, err := repo.FindByID(ctx, byEmail.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Collaborators, 1)
	assert.Equal(t, model.CollaboratorViewer, reloaded.Collaborators[0].Role)

	require.NoError(t, repo.RemoveCollaborator(ctx, byEmail.ID, "me@example.com"))
	reloaded, err = repo.FindByID(ctx, byEmail.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Collaborators)
}

func TestTaskUpdateDueDatesAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	categories := NewCategoryRepository(db)

	past := day(1, 0)
	a := &model.Task{UserID: 1, Title: "a", DueDate: &past}
	b := &model.Task{UserID: 1, Title: "b", DueDate: &past}
	foreign := &model.Task{UserID: 2, Title: "c", DueDate: &past}
	for _, task := range []*model.Task{a, b, foreign} {
		require.NoError(t, repo.Create(ctx, task))
	}

	today := day(10, 0)
	require.NoError(t, repo.UpdateDueDates(ctx, 1, map[uint]time.Time{a.ID: today, b.ID: today, foreign.ID: today}))

	for id, want := range map[uint]time.Time{a.ID: today, b.ID: today, foreign.ID: past} {
		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, want.Equal(*got.DueDate), "task %d", id)
	}

	cat, err := categories.GetOrCreate(ctx, 1, "health", "#22c55e")
	require.NoError(t, err)
	require.NoError(t, repo.SetCategories(ctx, a, []model.Category{*cat}))
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "health", got.Categories[0].Name)

	got.Status = model.StatusDone
	got.Title = "a, renamed"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "a, renamed", got.Title)

	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), model.ErrTaskNotFound)

	var links int64
	require.NoError(t, db.Table("task_categories").Where("task_id = ?", a.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestCategoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))

	none, err := repo.GetOrCreate(ctx, 1, "  ", "")
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := repo.GetOrCreate(ctx, 1, "work", "#111111")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, 1, "work", "#222222")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "#111111", second.Color)

	_, err = repo.GetOrCreate(ctx, 1, "family", "")
	require.NoError(t, err)
	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "family", list[0].Name)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, model.IsCode(err, model.ErrCodeNotFound))
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	bad := &model.CalendarEvent{UserID: 1, Title: "bad", StartTime: day(5, 10), EndTime: day(5, 9)}
	assert.ErrorIs(t, repo.Create(ctx, bad), model.ErrInvalid)

	standup := &model.CalendarEvent{
		UserID: 1, Title: "standup", StartTime: day(5, 9), EndTime: day(5, 10),
		Reminders: []model.EventReminder{{OffsetMinutes: 10, Channel: model.ChannelPush}},
	}
	weekly := &model.CalendarEvent{
		UserID: 1, Title: "yoga", StartTime: day(1, 7), EndTime: day(1, 8),
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 1},
	}
	later := &model.CalendarEvent{UserID: 1, Title: "april", StartTime: time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)}
	shared := &model.CalendarEvent{UserID: 2, Title: "party", StartTime: day(8, 19), EndTime: day(8, 23)}
	for _, e := range []*model.CalendarEvent{standup, weekly, later, shared} {
		require.NoError(t, repo.Create(ctx, e))
	}
	uid := uint(1)
	require.NoError(t, repo.AddAttendee(ctx, &model.EventAttendee{EventID: shared.ID, UserID: &uid, Email: "me@example.com", Role: model.CollaboratorViewer}))

	all, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "yoga", all[0].Title)

	march, err := repo.ListBetween(ctx, 1, day(3, 0), time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	titles := make([]string, 0, len(march))
	for _, e := range march {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"yoga", "standup", "party"}, titles)

	got, err := repo.FindByID(ctx, standup.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	got.Title = "daily standup"
	got.Reminders = []model.EventReminder{{OffsetMinutes: 5, Channel: model.ChannelEmail}, {OffsetMinutes: 60, Channel: model.ChannelBoth}}
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.FindByID(ctx, standup.ID)
	require.NoError(t, err)
	assert.Equal(t, "daily standup", got.Title)
	assert.Len(t, got.Reminders, 2)

	require.NoError(t, repo.Delete(ctx, standup.ID))
	_, err = repo.FindByID(ctx, standup.ID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestMoodAndSleepRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	moods := NewMoodRepository(db)
	sleep := NewSleepRepository(db)

	_, ok, err := moods.Latest(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, moods.Append(ctx, &model.MoodEntry{UserID: 1, Mood: "meh", Timestamp: day(5, 8)}), model.ErrInvalid)
	require.NoError(t, moods.Append(ctx, &model.MoodEntry{UserID: 1, Mood: model.MoodGreat, Timestamp: day(5, 20)}))
	require.NoError(t, moods.Append(ctx, &model.MoodEntry{UserID: 1, Mood: model.MoodOkay, Timestamp: day(5, 8)}))
	require.NoError(t, moods.Append(ctx, &model.MoodEntry{UserID: 1, Mood: model.MoodLow, Timestamp: day(1, 8)}))

	log, err := moods.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, model.MoodLow, log[0].Mood)
	assert.Equal(t, model.MoodGreat, log[2].Mood)

	since, err := moods.ListSince(ctx, 1, day(5, 0))
	require.NoError(t, err)
	assert.Len(t, since, 2)

	latest, ok, err := moods.Latest(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MoodGreat, latest.Mood)

	assert.ErrorIs(t, sleep.Insert(ctx, &model.SleepRecord{UserID: 1, StartTime: day(5, 7), EndTime: day(5, 6), Quality: 3}), model.ErrInvalid)
	wake := model.MoodGood
	require.NoError(t, sleep.Insert(ctx, &model.SleepRecord{UserID: 1, StartTime: day(3, 23), EndTime: day(4, 7), Quality: 4, MoodOnWakeup: &wake}))
	require.NoError(t, sleep.Insert(ctx, &model.SleepRecord{UserID: 1, StartTime: day(4, 23), EndTime: day(5, 6), Quality: 2}))

	records, err := sleep.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, day(4, 23).Equal(records[0].StartTime))
	require.NotNil(t, records[1].MoodOnWakeup)
	assert.Equal(t, model.MoodGood, *records[1].MoodOnWakeup)
}
