package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BerniceZTT/feedback_end/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryFeedbackRepository is an in-process feedback store used for local
// runs (STORE=memory) and tests. Each call holds the lock for its whole
// read-modify-write.
type MemoryFeedbackRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Feedback
	now   func() time.Time
}

// NewMemoryFeedbackRepository returns an empty store.
func NewMemoryFeedbackRepository() *MemoryFeedbackRepository {
	return &MemoryFeedbackRepository{
		items: make(map[primitive.ObjectID]*models.Feedback),
		now:   time.Now,
	}
}

// SetClock replaces the clock used for updatedAt stamps.
func (r *MemoryFeedbackRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func cloneFeedback(f *models.Feedback) *models.Feedback {
	cp := *f
	cp.Comments = append([]models.Comment{}, f.Comments...)
	return &cp
}

// Insert stores a copy of f and fills in its id.
func (r *MemoryFeedbackRepository) Insert(_ context.Context, f *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.Comments == nil {
		f.Comments = []models.Comment{}
	}
	if _, exists := r.items[f.ID]; exists {
		return ErrDuplicate
	}
	r.items[f.ID] = cloneFeedback(f)
	return nil
}

// FindByID returns a copy of the item with id.
func (r *MemoryFeedbackRepository) FindByID(_ context.Context, id string) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[objID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneFeedback(f), nil
}

// Find returns copies of the items in scope, newest first.
func (r *MemoryFeedbackRepository) Find(_ context.Context, scope models.FeedbackScope) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := []models.Feedback{}
	for _, f := range r.items {
		if scope.Matches(f) {
			items = append(items, *cloneFeedback(f))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.Hex() > items[j].ID.Hex()
	})
	return items, nil
}

// Count returns the number of items in scope.
func (r *MemoryFeedbackRepository) Count(_ context.Context, scope models.FeedbackScope) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, f := range r.items {
		if scope.Matches(f) {
			n++
		}
	}
	return n, nil
}

// Update applies upd when the guard holds.
func (r *MemoryFeedbackRepository) Update(_ context.Context, id string, guard models.FeedbackGuard, upd models.FeedbackUpdate) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[objID]
	if !ok || !guard.Holds(f) {
		return nil, ErrNotFound
	}
	upd.Apply(f)
	f.UpdatedAt = r.now()
	return cloneFeedback(f), nil
}

// AppendComment appends c to the item's thread.
func (r *MemoryFeedbackRepository) AppendComment(_ context.Context, id string, c models.Comment) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[objID]
	if !ok {
		return nil, ErrNotFound
	}
	f.Comments = append(f.Comments, c)
	f.UpdatedAt = r.now()
	return cloneFeedback(f), nil
}

// Delete removes the item when the guard holds.
func (r *MemoryFeedbackRepository) Delete(_ context.Context, id string, guard models.FeedbackGuard) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[objID]
	if !ok || !guard.Holds(f) {
		return ErrNotFound
	}
	delete(r.items, objID)
	return nil
}

// MemoryUserRepository is the in-process counterpart of UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

// NewMemoryUserRepository returns an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

// Insert stores a copy of u, enforcing unique email and username.
func (r *MemoryUserRepository) Insert(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// FindByID returns the user with id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[objID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	canonicalRole(&cp)
	return &cp, nil
}

// FindByLogin looks a user up by email or username.
func (r *MemoryUserRepository) FindByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email := strings.ToLower(login)
	for _, u := range r.users {
		if u.Email == email || u.Username == login {
			cp := *u
			canonicalRole(&cp)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// FindByIDs returns the known users among ids keyed by hex id.
func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if u, ok := r.users[objID]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

// FindByRole returns the users holding role, ordered by name.
func (r *MemoryUserRepository) FindByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	spellings := role.StoredSpellings()
	return r.filter(func(u *models.User) bool { return slices.Contains(spellings, u.Role) }), nil
}

// FindAll returns every user ordered by name.
func (r *MemoryUserRepository) FindAll(_ context.Context) ([]models.User, error) {
	return r.filter(func(*models.User) bool { return true }), nil
}

// CountByRole counts the users holding role.
func (r *MemoryUserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	users, _ := r.FindByRole(ctx, role)
	return int64(len(users)), nil
}

func (r *MemoryUserRepository) filter(keep func(*models.User) bool) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []models.User{}
	for _, u := range r.users {
		if keep(u) {
			cp := *u
			canonicalRole(&cp)
			users = append(users, cp)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

// MemoryOperationLogRepository keeps operation logs in memory.
type MemoryOperationLogRepository struct {
	mu      sync.Mutex
	entries []models.OperationLog
}

// NewMemoryOperationLogRepository returns an empty log.
func NewMemoryOperationLogRepository() *MemoryOperationLogRepository {
	return &MemoryOperationLogRepository{}
}

// Insert appends entry.
func (r *MemoryOperationLogRepository) Insert(_ context.Context, entry *models.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *MemoryOperationLogRepository) Entries() []models.OperationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OperationLog{}, r.entries...)
}

// DeleteBefore drops entries older than cutoff.
func (r *MemoryOperationLogRepository) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.OperationTime.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(r.entries) - len(kept))
	r.entries = kept
	return removed, nil
}
