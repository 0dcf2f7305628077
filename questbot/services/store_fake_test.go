package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
)

// memStore is an in-memory Store with the same cascade and uniqueness rules as the schema.
type memStore struct {
	db    *memDB
	repos *repositories.Repositories
}

type memDB struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*models.User
	quests      map[int64]*models.Quest
	tasks       map[int64]*models.Task
	submissions map[int64]*models.Submission
	completions []*models.QuestCompletion
}

func newMemStore() *memStore {
	db := &memDB{
		users:       map[int64]*models.User{},
		quests:      map[int64]*models.Quest{},
		tasks:       map[int64]*models.Task{},
		submissions: map[int64]*models.Submission{},
	}
	return &memStore{
		db: db,
		repos: &repositories.Repositories{
			Users:       memUsers{db},
			Quests:      memQuests{db},
			Tasks:       memTasks{db},
			Submissions: memSubmissions{db},
			Completions: memCompletions{db},
		},
	}
}

func (s *memStore) Repos() *repositories.Repositories { return s.repos }

func (s *memStore) Transaction(ctx context.Context, fn func(ctx context.Context, r *repositories.Repositories) error) error {
	return fn(ctx, s.repos)
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) countSubmissions(match func(*models.Submission) bool) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, s := range db.submissions {
		if match(s) {
			n++
		}
	}
	return n
}

type memUsers struct{ db *memDB }

func (r memUsers) GetByDiscordID(_ context.Context, discordID string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.DiscordID == discordID {
			c := *u
			return &c, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "user", ID: discordID}
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user", ID: id}
	}
	c := *u
	return &c, nil
}

func (r memUsers) Upsert(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.DiscordID == user.DiscordID {
			u.Username, u.IsAdmin = user.Username, user.IsAdmin
			user.ID, user.CreatedAt = u.ID, u.CreatedAt
			return nil
		}
	}
	user.ID = r.db.id()
	user.CreatedAt = time.Now()
	c := *user
	r.db.users[user.ID] = &c
	return nil
}

type memQuests struct{ db *memDB }

func (r memQuests) Create(_ context.Context, quest *models.Quest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	quest.ID = r.db.id()
	quest.CreatedAt = time.Now()
	c := *quest
	r.db.quests[quest.ID] = &c
	return nil
}

func (r memQuests) GetByID(_ context.Context, id int64) (*models.Quest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q, ok := r.db.quests[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "quest", ID: id}
	}
	c := *q
	return &c, nil
}

func (r memQuests) ListActive(_ context.Context) ([]*models.Quest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Quest
	for _, q := range r.db.quests {
		if q.IsActive {
			c := *q
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memQuests) ListActiveWithTaskCounts(ctx context.Context) ([]models.QuestSummary, error) {
	quests, _ := r.ListActive(ctx)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.QuestSummary, 0, len(quests))
	for _, q := range quests {
		n := 0
		for _, t := range r.db.tasks {
			if t.QuestID == q.ID {
				n++
			}
		}
		out = append(out, models.QuestSummary{Quest: q, TaskCount: n})
	}
	return out, nil
}

func (r memQuests) FirstActiveExcluding(ctx context.Context, excluded []int64) (*models.Quest, error) {
	quests, _ := r.ListActive(ctx)
	skip := map[int64]bool{}
	for _, id := range excluded {
		skip[id] = true
	}
	for _, q := range quests {
		if !skip[q.ID] {
			return q, nil
		}
	}
	return nil, nil
}

func (r memQuests) Delete(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.quests[id]; !ok {
		return false, nil
	}
	delete(r.db.quests, id)
	for tid, t := range r.db.tasks {
		if t.QuestID == id {
			r.db.deleteTaskLocked(tid)
		}
	}
	kept := r.db.completions[:0]
	for _, c := range r.db.completions {
		if c.QuestID != id {
			kept = append(kept, c)
		}
	}
	r.db.completions = kept
	return true, nil
}

func (db *memDB) deleteTaskLocked(id int64) {
	delete(db.tasks, id)
	for sid, s := range db.submissions {
		if s.TaskID == id {
			delete(db.submissions, sid)
		}
	}
}

type memTasks struct{ db *memDB }

func (r memTasks) Create(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.quests[task.QuestID]; !ok {
		return &repositories.ConflictError{Entity: "task", Field: "quest_id", Value: task.QuestID}
	}
	task.ID = r.db.id()
	c := *task
	c.Quest = nil
	r.db.tasks[task.ID] = &c
	return nil
}

func (r memTasks) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.taskLocked(id)
}

func (db *memDB) taskLocked(id int64) (*models.Task, error) {
	t, ok := db.tasks[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "task", ID: id}
	}
	c := *t
	if q, ok := db.quests[t.QuestID]; ok {
		qc := *q
		c.Quest = &qc
	}
	return &c, nil
}

func (r memTasks) ListByQuest(_ context.Context, questID int64) ([]*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Task
	for _, t := range r.db.tasks {
		if t.QuestID == questID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memTasks) CountByQuest(ctx context.Context, questID int64) (int, error) {
	tasks, _ := r.ListByQuest(ctx, questID)
	return len(tasks), nil
}

func (r memTasks) Update(_ context.Context, task *models.Task, _ ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[task.ID]; !ok {
		return &repositories.NotFoundError{Entity: "task", ID: task.ID}
	}
	c := *task
	c.Quest = nil
	r.db.tasks[task.ID] = &c
	return nil
}

func (r memTasks) Delete(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[id]; !ok {
		return false, nil
	}
	r.db.deleteTaskLocked(id)
	return true, nil
}

type memSubmissions struct{ db *memDB }

func (r memSubmissions) Create(_ context.Context, sub *models.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[sub.TaskID]; !ok {
		return &repositories.ConflictError{Entity: "submission", Field: "task_id", Value: sub.TaskID}
	}
	for _, s := range r.db.submissions {
		if s.TaskID == sub.TaskID && s.UserID == sub.UserID && !s.IsApproved && !sub.IsApproved {
			return &repositories.ConflictError{Entity: "submission", Field: "uq_submissions_pending", Value: sub.TaskID}
		}
	}
	sub.ID = r.db.id()
	c := *sub
	c.Task = nil
	r.db.submissions[sub.ID] = &c
	return nil
}

func (r memSubmissions) GetByID(_ context.Context, id int64) (*models.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "submission", ID: id}
	}
	c := *s
	c.Task, _ = r.db.taskLocked(s.TaskID)
	return &c, nil
}

func (r memSubmissions) list(match func(*models.Submission) bool) []*models.Submission {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Submission
	for _, s := range r.db.submissions {
		if match(s) {
			c := *s
			c.Task, _ = r.db.taskLocked(s.TaskID)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memSubmissions) questOf(s *models.Submission) int64 {
	if t, ok := r.db.tasks[s.TaskID]; ok {
		return t.QuestID
	}
	return 0
}

func (r memSubmissions) ListPending(_ context.Context, taskID, userID int64) ([]*models.Submission, error) {
	return r.list(func(s *models.Submission) bool {
		return s.TaskID == taskID && s.UserID == userID && !s.IsApproved
	}), nil
}

func (r memSubmissions) ListByTask(_ context.Context, taskID int64) ([]*models.Submission, error) {
	return r.list(func(s *models.Submission) bool { return s.TaskID == taskID }), nil
}

func (r memSubmissions) ListByQuest(_ context.Context, questID int64) ([]*models.Submission, error) {
	return r.list(func(s *models.Submission) bool { return r.questOf(s) == questID }), nil
}

func (r memSubmissions) ListApproved(_ context.Context, userID int64, offset, limit int) ([]*models.Submission, int, error) {
	all := r.list(func(s *models.Submission) bool { return s.UserID == userID && s.IsApproved })
	sort.Slice(all, func(i, j int) bool { return all[i].ApprovedAt.After(*all[j].ApprovedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r memSubmissions) MarkApproved(_ context.Context, id int64, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok || s.IsApproved {
		return false, nil
	}
	s.IsApproved = true
	s.ApprovedAt = &at
	return true, nil
}

func (r memSubmissions) Delete(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.submissions[id]; !ok {
		return false, nil
	}
	delete(r.db.submissions, id)
	return true, nil
}

func (r memSubmissions) CountApprovedForQuest(_ context.Context, questID, userID int64) (int, error) {
	return r.db.countSubmissions(func(s *models.Submission) bool {
		return s.UserID == userID && s.IsApproved && r.questOf(s) == questID
	}), nil
}

func (r memSubmissions) CountApproved(_ context.Context, userID int64) (int, error) {
	return r.db.countSubmissions(func(s *models.Submission) bool { return s.UserID == userID && s.IsApproved }), nil
}

func (r memSubmissions) CountPending(_ context.Context, userID int64) (int, error) {
	return r.db.countSubmissions(func(s *models.Submission) bool { return s.UserID == userID && !s.IsApproved }), nil
}

func (r memSubmissions) SumApprovedPoints(_ context.Context, userID int64) (int, error) {
	sum := 0
	for _, s := range r.list(func(s *models.Submission) bool { return s.UserID == userID && s.IsApproved }) {
		if s.Task != nil {
			sum += s.Task.Points
		}
	}
	return sum, nil
}

func (r memSubmissions) TaskIDs(_ context.Context, questID, userID int64, approved bool) ([]int64, error) {
	return taskIDs(r.list(func(s *models.Submission) bool {
		return s.UserID == userID && s.IsApproved == approved && r.questOf(s) == questID
	})), nil
}

func (r memSubmissions) ApprovedTaskIDs(_ context.Context, questID int64) ([]int64, error) {
	return taskIDs(r.list(func(s *models.Submission) bool {
		return s.IsApproved && r.questOf(s) == questID
	})), nil
}

func (r memSubmissions) ApprovedTimesSince(_ context.Context, userID int64, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, s := range r.list(func(s *models.Submission) bool { return s.UserID == userID && s.IsApproved }) {
		if !s.ApprovedAt.Before(since) {
			out = append(out, *s.ApprovedAt)
		}
	}
	return out, nil
}

func taskIDs(subs []*models.Submission) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, s := range subs {
		if !seen[s.TaskID] {
			seen[s.TaskID] = true
			ids = append(ids, s.TaskID)
		}
	}
	return ids
}

type memCompletions struct{ db *memDB }

func (r memCompletions) CreateIfAbsent(_ context.Context, c *models.QuestCompletion) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.completions {
		if existing.QuestID == c.QuestID && existing.UserID == c.UserID {
			return false, nil
		}
	}
	c.ID = r.db.id()
	cc := *c
	r.db.completions = append(r.db.completions, &cc)
	return true, nil
}

func (r memCompletions) Exists(_ context.Context, questID, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.completions {
		if c.QuestID == questID && c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memCompletions) QuestIDs(_ context.Context, userID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []int64
	for _, c := range r.db.completions {
		if c.UserID == userID {
			ids = append(ids, c.QuestID)
		}
	}
	return ids, nil
}

func (r memCompletions) Count(ctx context.Context, userID int64) (int, error) {
	ids, _ := r.QuestIDs(ctx, userID)
	return len(ids), nil
}
