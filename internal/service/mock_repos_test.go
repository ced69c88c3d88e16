package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/internal/model"
	"github.com/nayochev/schedule-arranger/internal/repository"
	pkgerrors "github.com/nayochev/schedule-arranger/pkg/errors"
)

// loadGrid 会并发调用三个仓储，mock 需要自带锁

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == 0 {
		m.nextID++
		user.UserID = m.nextID
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ScheduleRepository / CandidateRepository ──

type mockScheduleRepo struct {
	mu         sync.Mutex
	users      *mockUserRepo
	schedules  map[string]*model.Schedule
	candidates []model.Candidate
	nextCandID int64
	deletedIDs []string
	getErr     error
	availRepo  *mockAvailabilityRepo
}

func newMockScheduleRepo(users *mockUserRepo) *mockScheduleRepo {
	return &mockScheduleRepo{users: users, schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) CreateWithCandidates(_ context.Context, schedule *model.Schedule, candidates []model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	cp := *schedule
	m.schedules[schedule.ScheduleID] = &cp
	m.appendCandidates(schedule.ScheduleID, candidates)
	return nil
}

func (m *mockScheduleRepo) appendCandidates(scheduleID string, candidates []model.Candidate) {
	for i := range candidates {
		m.nextCandID++
		candidates[i].CandidateID = m.nextCandID
		candidates[i].ScheduleID = scheduleID
		m.candidates = append(m.candidates, candidates[i])
	}
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if owner, err := m.users.GetByID(ctx, s.CreatedBy); err == nil {
		cp.Owner = owner
	}
	return &cp, nil
}

func (m *mockScheduleRepo) ListByOwner(_ context.Context, ownerID int64, offset, limit int) ([]model.Schedule, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Schedule
	for _, s := range m.schedules {
		if s.CreatedBy == ownerID {
			list = append(list, *s)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	total := int64(len(list))
	if offset >= len(list) {
		return []model.Schedule{}, total, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], total, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule, newCandidates []model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.schedules[schedule.ScheduleID]
	if !ok || stored.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version++
	schedule.UpdatedAt = time.Now()
	cp := *schedule
	cp.Owner = nil
	m.schedules[schedule.ScheduleID] = &cp
	m.appendCandidates(schedule.ScheduleID, newCandidates)
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	kept := m.candidates[:0]
	for _, c := range m.candidates {
		if c.ScheduleID != id {
			kept = append(kept, c)
		}
	}
	m.candidates = kept
	m.deletedIDs = append(m.deletedIDs, id)
	if m.availRepo != nil {
		m.availRepo.deleteSchedule(id)
	}
	return nil
}

// mockCandidateRepo 与 mockScheduleRepo 共享候选存储
type mockCandidateRepo struct {
	schedules *mockScheduleRepo
	listErr   error
}

func (m *mockCandidateRepo) GetByID(_ context.Context, id int64) (*model.Candidate, error) {
	m.schedules.mu.Lock()
	defer m.schedules.mu.Unlock()
	for _, c := range m.schedules.candidates {
		if c.CandidateID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCandidateRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.Candidate, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.schedules.mu.Lock()
	defer m.schedules.mu.Unlock()
	var list []model.Candidate
	for _, c := range m.schedules.candidates {
		if c.ScheduleID == scheduleID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CandidateID < list[j].CandidateID })
	return list, nil
}

// ── Mock AvailabilityRepository ──

type availKey struct {
	scheduleID  string
	userID      int64
	candidateID int64
}

type mockAvailabilityRepo struct {
	mu        sync.Mutex
	users     *mockUserRepo
	rows      map[availKey]int
	upserts   int
	upsertErr error

	// dropUser 为 true 时不预加载用户，模拟关联缺失
	dropUser bool
}

func newMockAvailabilityRepo(users *mockUserRepo) *mockAvailabilityRepo {
	return &mockAvailabilityRepo{users: users, rows: make(map[availKey]int)}
}

func (m *mockAvailabilityRepo) Upsert(_ context.Context, a *model.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rows[availKey{a.ScheduleID, a.UserID, a.CandidateID}] = a.Availability
	m.upserts++
	return nil
}

func (m *mockAvailabilityRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Availability
	for k, v := range m.rows {
		if k.scheduleID != scheduleID {
			continue
		}
		a := model.Availability{ScheduleID: k.scheduleID, UserID: k.userID, CandidateID: k.candidateID, Availability: v}
		if !m.dropUser {
			u, err := m.users.GetByID(ctx, k.userID)
			if err != nil {
				return nil, err
			}
			a.User = u
		}
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		ui, uj := usernameOf(list[i]), usernameOf(list[j])
		if ui != uj {
			return ui < uj
		}
		if list[i].UserID != list[j].UserID {
			return list[i].UserID < list[j].UserID
		}
		return list[i].CandidateID < list[j].CandidateID
	})
	return list, nil
}

func usernameOf(a model.Availability) string {
	if a.User == nil {
		return ""
	}
	return a.User.Username
}

func (m *mockAvailabilityRepo) Get(_ context.Context, scheduleID string, userID, candidateID int64) (*model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[availKey{scheduleID, userID, candidateID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Availability{ScheduleID: scheduleID, UserID: userID, CandidateID: candidateID, Availability: v}, nil
}

func (m *mockAvailabilityRepo) deleteSchedule(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.rows {
		if k.scheduleID == id {
			delete(m.rows, k)
		}
	}
}

// ── 组装 ──

type mockRepos struct {
	users        *mockUserRepo
	schedules    *mockScheduleRepo
	candidates   *mockCandidateRepo
	availability *mockAvailabilityRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	schedules := newMockScheduleRepo(users)
	avail := newMockAvailabilityRepo(users)
	schedules.availRepo = avail
	mocks := &mockRepos{
		users:        users,
		schedules:    schedules,
		candidates:   &mockCandidateRepo{schedules: schedules},
		availability: avail,
	}
	return mocks.repository(), mocks
}

// repository 由同一组 mock 重新组装
func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:         m.users,
		Schedule:     m.schedules,
		Candidate:    m.candidates,
		Availability: m.availability,
	}
}

var errStorage = errors.New("storage unavailable")
