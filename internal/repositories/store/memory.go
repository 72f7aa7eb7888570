package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"fintrack/internal/models"
)

// MemoryStore keeps everything in process memory behind one RWMutex, so
// every method observes and applies a whole operation at once.
type MemoryStore struct {
	mu sync.RWMutex

	budgets     map[string]models.GroupBudget
	deletedAt   map[string]time.Time
	members     map[string][]models.GroupBudgetMember
	invitations map[string]models.GroupBudgetInvitation

	transactions []models.Transaction
	users        map[string]models.User
	categories   map[string]models.Category
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:     make(map[string]models.GroupBudget),
		deletedAt:   make(map[string]time.Time),
		members:     make(map[string][]models.GroupBudgetMember),
		invitations: make(map[string]models.GroupBudgetInvitation),
		users:       make(map[string]models.User),
		categories:  make(map[string]models.Category),
	}
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (s *MemoryStore) CreateGroupBudget(ctx context.Context, budget models.GroupBudget, owner models.GroupBudgetMember) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[budget.ID] = budget
	s.members[budget.ID] = []models.GroupBudgetMember{owner}
	return nil
}

func (s *MemoryStore) LoadGroupBudget(ctx context.Context, id string) (models.GroupBudgetSnapshot, error) {
	if err := checkCtx(ctx); err != nil {
		return models.GroupBudgetSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.liveLocked(id) {
		return models.GroupBudgetSnapshot{}, ErrNotFound
	}
	return s.snapshotLocked(id), nil
}

func (s *MemoryStore) ListGroupBudgetsForUser(ctx context.Context, userID string) ([]models.GroupBudgetSnapshot, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]models.GroupBudgetSnapshot, 0)
	for id, b := range s.budgets {
		if !s.liveLocked(id) {
			continue
		}
		visible := b.CreatorID == userID
		for _, m := range s.members[id] {
			if m.UserID == userID {
				visible = true
				break
			}
		}
		if visible {
			snapshots = append(snapshots, s.snapshotLocked(id))
		}
	}

	slices.SortFunc(snapshots, func(a, b models.GroupBudgetSnapshot) int {
		if c := b.Budget.CreatedAt.Compare(a.Budget.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Budget.ID, b.Budget.ID)
	})
	return snapshots, nil
}

func (s *MemoryStore) DeleteGroupBudget(ctx context.Context, id string, at time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.liveLocked(id) {
		return ErrNotFound
	}

	for invID, inv := range s.invitations {
		if inv.GroupBudgetID == id && inv.Status == models.InvitationPending {
			respondedAt := at
			inv.Status = models.InvitationRevoked
			inv.RespondedAt = &respondedAt
			s.invitations[invID] = inv
		}
	}
	delete(s.members, id)
	s.deletedAt[id] = at
	return nil
}

func (s *MemoryStore) GetInvitation(ctx context.Context, id string) (models.GroupBudgetInvitation, error) {
	if err := checkCtx(ctx); err != nil {
		return models.GroupBudgetInvitation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invitations[id]
	if !ok {
		return models.GroupBudgetInvitation{}, ErrNotFound
	}
	return inv, nil
}

func (s *MemoryStore) FindPendingInvitation(ctx context.Context, budgetID, email string) (models.GroupBudgetInvitation, error) {
	if err := checkCtx(ctx); err != nil {
		return models.GroupBudgetInvitation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.pendingLocked(budgetID, email); ok {
		return inv, nil
	}
	return models.GroupBudgetInvitation{}, ErrNotFound
}

func (s *MemoryStore) ListPendingInvitationsByEmail(ctx context.Context, email string) ([]models.GroupBudgetInvitation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.GroupBudgetInvitation, 0)
	for _, inv := range s.invitations {
		if inv.InvitedEmail == email && inv.Status == models.InvitationPending && s.liveLocked(inv.GroupBudgetID) {
			result = append(result, inv)
		}
	}
	sortInvitations(result)
	return result, nil
}

func (s *MemoryStore) CreateInvitation(ctx context.Context, inv models.GroupBudgetInvitation) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.liveLocked(inv.GroupBudgetID) {
		return ErrNotFound
	}
	if _, ok := s.pendingLocked(inv.GroupBudgetID, inv.InvitedEmail); ok {
		return ErrDuplicatePending
	}
	s.invitations[inv.ID] = inv
	return nil
}

func (s *MemoryStore) AcceptInvitation(ctx context.Context, invitationID string, at time.Time, member models.GroupBudgetMember) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok {
		return ErrNotFound
	}
	if inv.Status != models.InvitationPending || !s.liveLocked(inv.GroupBudgetID) {
		return ErrNotPending
	}

	respondedAt := at
	inv.RespondedAt = &respondedAt
	for _, m := range s.members[inv.GroupBudgetID] {
		if m.UserID == member.UserID {
			inv.Status = models.InvitationDeclined
			s.invitations[invitationID] = inv
			return ErrDuplicateMember
		}
	}

	inv.Status = models.InvitationAccepted
	s.invitations[invitationID] = inv
	s.members[inv.GroupBudgetID] = append(s.members[inv.GroupBudgetID], member)
	return nil
}

func (s *MemoryStore) CloseInvitation(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok {
		return ErrNotFound
	}
	if inv.Status != models.InvitationPending {
		return ErrNotPending
	}

	respondedAt := at
	inv.Status = status
	inv.RespondedAt = &respondedAt
	s.invitations[invitationID] = inv
	return nil
}

func (s *MemoryStore) liveLocked(id string) bool {
	if _, ok := s.budgets[id]; !ok {
		return false
	}
	_, deleted := s.deletedAt[id]
	return !deleted
}

func (s *MemoryStore) pendingLocked(budgetID, email string) (models.GroupBudgetInvitation, bool) {
	for _, inv := range s.invitations {
		if inv.GroupBudgetID == budgetID && inv.InvitedEmail == email && inv.Status == models.InvitationPending {
			return inv, true
		}
	}
	return models.GroupBudgetInvitation{}, false
}

func (s *MemoryStore) snapshotLocked(id string) models.GroupBudgetSnapshot {
	snap := models.GroupBudgetSnapshot{
		Budget:      s.budgets[id],
		Members:     slices.Clone(s.members[id]),
		Invitations: make([]models.GroupBudgetInvitation, 0),
	}
	for _, inv := range s.invitations {
		if inv.GroupBudgetID == id {
			snap.Invitations = append(snap.Invitations, inv)
		}
	}
	sortInvitations(snap.Invitations)
	return snap
}

func sortInvitations(invs []models.GroupBudgetInvitation) {
	slices.SortFunc(invs, func(a, b models.GroupBudgetInvitation) int {
		if c := a.InvitedAt.Compare(b.InvitedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Ledger

func (s *MemoryStore) RecordTransaction(ctx context.Context, tx models.Transaction) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, q models.LedgerQuery) ([]models.Transaction, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Transaction, 0)
	for _, tx := range s.transactions {
		if q.Matches(tx) {
			result = append(result, tx)
		}
	}
	return result, nil
}

// Users and categories

func (s *MemoryStore) CreateUser(ctx context.Context, u models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c models.Category) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Type == "" {
		c.Type = "expense"
	}
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query string) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]models.User, 0)
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			result = append(result, u)
		}
	}
	slices.SortFunc(result, func(a, b models.User) int {
		return strings.Compare(a.Email, b.Email)
	})
	if len(result) > searchLimit {
		result = result[:searchLimit]
	}
	return result, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, email string) (models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) Lookup(ctx context.Context, ids []string) (map[string]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (s *MemoryStore) Exists(ctx context.Context, categoryID string) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.categories[categoryID]
	return ok, nil
}

func (s *MemoryStore) Get(ctx context.Context, categoryID string) (models.Category, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Category{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	return c, nil
}
