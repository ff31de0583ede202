package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stillpath/stillpath-backend/internal/data/repos/rewards"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// fakeTxRunner executes the body directly. The in-memory fakes apply
// writes immediately, so tests assert on observable end states rather
// than rollback behavior.
type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) BalanceChanged(uuid.UUID, int, int)            { n.record("balance_changed") }
func (n *recordingNotifier) StreakAdvanced(uuid.UUID, int, int)            { n.record("streak_advanced") }
func (n *recordingNotifier) EnrollmentCompleted(uuid.UUID, uuid.UUID, int) { n.record("enrollment_completed") }
func (n *recordingNotifier) RedemptionCreated(uuid.UUID, uuid.UUID, int)   { n.record("redemption_created") }
func (n *recordingNotifier) RedemptionCancelled(uuid.UUID, uuid.UUID, int) { n.record("redemption_cancelled") }

// ---- accounts ----

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[uuid.UUID]*domain.Account{}}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.LastCheckIn != nil {
		t := *a.LastCheckIn
		c.LastCheckIn = &t
	}
	return &c
}

func (f *fakeAccounts) findByUser(userID uuid.UUID) *domain.Account {
	for _, a := range f.byID {
		if a.UserID == userID {
			return a
		}
	}
	return nil
}

func (f *fakeAccounts) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.findByUser(userID); a != nil {
		return cloneAccount(a), nil
	}
	return nil, nil
}

func (f *fakeAccounts) GetOrCreate(_ dbctx.Context, userID uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.findByUser(userID); a != nil {
		return cloneAccount(a), nil
	}
	a := &domain.Account{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	f.byID[a.ID] = a
	return cloneAccount(a), nil
}

func (f *fakeAccounts) Credit(_ dbctx.Context, accountID uuid.UUID, points int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[accountID]
	if !ok {
		return false, nil
	}
	a.TotalPoints += points
	a.AvailablePoints += points
	a.LifetimeEarned += points
	return true, nil
}

func (f *fakeAccounts) Debit(_ dbctx.Context, accountID uuid.UUID, points int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[accountID]
	if !ok || a.AvailablePoints < points {
		return false, nil
	}
	a.AvailablePoints -= points
	a.LifetimeSpent += points
	return true, nil
}

func (f *fakeAccounts) UpdateStreakStateIfUnchanged(_ dbctx.Context, accountID uuid.UUID, expectedLastCheckIn *time.Time, currentStreak, longestStreak int, lastCheckIn time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[accountID]
	if !ok {
		return false, nil
	}
	switch {
	case expectedLastCheckIn == nil && a.LastCheckIn != nil:
		return false, nil
	case expectedLastCheckIn != nil && (a.LastCheckIn == nil || !a.LastCheckIn.Equal(*expectedLastCheckIn)):
		return false, nil
	}
	a.CurrentStreak = currentStreak
	a.LongestStreak = longestStreak
	t := lastCheckIn
	a.LastCheckIn = &t
	return true, nil
}

func (f *fakeAccounts) RankByTotalPoints(_ dbctx.Context, totalPoints int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var greater int64
	for _, a := range f.byID {
		if a.TotalPoints > totalPoints {
			greater++
		}
	}
	return greater + 1, nil
}

func (f *fakeAccounts) sorted(less func(a, b *domain.Account) bool, limit int) []*domain.Account {
	rows := make([]*domain.Account, 0, len(f.byID))
	for _, a := range f.byID {
		rows = append(rows, cloneAccount(a))
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (f *fakeAccounts) Leaderboard(_ dbctx.Context, limit int) ([]*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(a, b *domain.Account) bool {
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.CurrentStreak > b.CurrentStreak
	}, limit), nil
}

func (f *fakeAccounts) StreakLeaderboard(_ dbctx.Context, limit int) ([]*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(a, b *domain.Account) bool {
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		return a.LongestStreak > b.LongestStreak
	}, limit), nil
}

// ---- transactions ----

type fakeTransactions struct {
	mu   sync.Mutex
	rows []*domain.PointTransaction
	seq  int
}

func newFakeTransactions() *fakeTransactions { return &fakeTransactions{} }

func (f *fakeTransactions) Create(_ dbctx.Context, rows []*domain.PointTransaction) ([]*domain.PointTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.seq++
		row.ID = uuid.New()
		row.CreatedAt = time.Unix(int64(f.seq), 0)
		c := *row
		f.rows = append(f.rows, &c)
	}
	return rows, nil
}

func (f *fakeTransactions) ListByUser(_ dbctx.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PointTransaction
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			c := *f.rows[i]
			out = append(out, &c)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTransactions) SumDeltaByUser(_ dbctx.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, row := range f.rows {
		if row.UserID == userID {
			sum += int64(row.PointsDelta)
		}
	}
	return sum, nil
}

// ---- streak records ----

type fakeStreakRecords struct {
	mu   sync.Mutex
	rows []*domain.StreakRecord
}

func newFakeStreakRecords() *fakeStreakRecords { return &fakeStreakRecords{} }

func (f *fakeStreakRecords) Create(_ dbctx.Context, rows []*domain.StreakRecord) ([]*domain.StreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
		c := *row
		f.rows = append(f.rows, &c)
	}
	return rows, nil
}

func (f *fakeStreakRecords) GetOpenByUser(_ dbctx.Context, userID uuid.UUID) (*domain.StreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID && !f.rows[i].IsBroken {
			c := *f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStreakRecords) ListByUser(_ dbctx.Context, userID uuid.UUID, limit int) ([]*domain.StreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.StreakRecord
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			c := *f.rows[i]
			out = append(out, &c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStreakRecords) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID != id {
			continue
		}
		for k, v := range updates {
			switch k {
			case "streak_count":
				row.StreakCount = v.(int)
			case "last_check_in_date":
				row.LastCheckInDate = v.(time.Time)
			case "bonus_points_accrued":
				row.BonusPointsAccrued = v.(int)
			case "milestones_achieved":
				row.MilestonesAchieved = v.(datatypes.JSONSlice[int])
			case "is_broken":
				row.IsBroken = v.(bool)
			}
		}
		return nil
	}
	return nil
}

func (f *fakeStreakRecords) MarkBroken(dbc dbctx.Context, id uuid.UUID) error {
	return f.UpdateFields(dbc, id, map[string]any{"is_broken": true})
}

// ---- challenge templates ----

type fakeTemplates struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.ChallengeTemplate
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{byID: map[uuid.UUID]*domain.ChallengeTemplate{}}
}

func cloneTemplate(t *domain.ChallengeTemplate) *domain.ChallengeTemplate {
	c := *t
	if t.BonusReward != nil {
		v := *t.BonusReward
		c.BonusReward = &v
	}
	if t.StartDate != nil {
		v := *t.StartDate
		c.StartDate = &v
	}
	if t.EndDate != nil {
		v := *t.EndDate
		c.EndDate = &v
	}
	return &c
}

func (f *fakeTemplates) Create(_ dbctx.Context, rows []*domain.ChallengeTemplate) ([]*domain.ChallengeTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
		f.byID[row.ID] = cloneTemplate(row)
	}
	return rows, nil
}

func (f *fakeTemplates) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.ChallengeTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		return cloneTemplate(t), nil
	}
	return nil, nil
}

func (f *fakeTemplates) List(_ dbctx.Context, onlyActive bool, challengeType *domain.ChallengeType) ([]*domain.ChallengeTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ChallengeTemplate
	for _, t := range f.byID {
		if onlyActive && !t.IsActive {
			continue
		}
		if challengeType != nil && t.Type != *challengeType {
			continue
		}
		out = append(out, cloneTemplate(t))
	}
	return out, nil
}

func (f *fakeTemplates) SetActive(_ dbctx.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		t.IsActive = active
	}
	return nil
}

// ---- enrollments ----

type fakeEnrollments struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*domain.ChallengeEnrollment
	templates *fakeTemplates
}

func newFakeEnrollments(templates *fakeTemplates) *fakeEnrollments {
	return &fakeEnrollments{
		byID:      map[uuid.UUID]*domain.ChallengeEnrollment{},
		templates: templates,
	}
}

func (f *fakeEnrollments) clone(e *domain.ChallengeEnrollment) *domain.ChallengeEnrollment {
	c := *e
	if e.CompletedAt != nil {
		v := *e.CompletedAt
		c.CompletedAt = &v
	}
	if t, ok := f.templates.byID[e.ChallengeID]; ok {
		c.Challenge = cloneTemplate(t)
	}
	return &c
}

func (f *fakeEnrollments) Create(_ dbctx.Context, rows []*domain.ChallengeEnrollment) ([]*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		for _, existing := range f.byID {
			if existing.UserID == row.UserID && existing.ChallengeID == row.ChallengeID {
				return nil, errors.New("duplicate key value violates unique constraint \"idx_user_challenge\"")
			}
		}
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
		c := *row
		f.byID[row.ID] = &c
	}
	return rows, nil
}

func (f *fakeEnrollments) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return f.clone(e), nil
	}
	return nil, nil
}

func (f *fakeEnrollments) GetByUserAndChallenge(_ dbctx.Context, userID, challengeID uuid.UUID) (*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	for _, e := range f.byID {
		if e.UserID == userID && e.ChallengeID == challengeID {
			return f.clone(e), nil
		}
	}
	return nil, nil
}

func (f *fakeEnrollments) ListActiveByUser(_ dbctx.Context, userID uuid.UUID) ([]*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	var out []*domain.ChallengeEnrollment
	for _, e := range f.byID {
		if e.UserID == userID && e.Status == domain.EnrollmentActive {
			out = append(out, f.clone(e))
		}
	}
	return out, nil
}

func (f *fakeEnrollments) ListByUser(_ dbctx.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	var out []*domain.ChallengeEnrollment
	for _, e := range f.byID {
		if e.UserID != userID {
			continue
		}
		if status != nil && e.Status != *status {
			continue
		}
		out = append(out, f.clone(e))
	}
	return out, nil
}

func (f *fakeEnrollments) ListCompletedByChallenge(_ dbctx.Context, challengeID uuid.UUID, limit int) ([]*domain.ChallengeEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	var out []*domain.ChallengeEnrollment
	for _, e := range f.byID {
		if e.ChallengeID == challengeID && e.Status == domain.EnrollmentCompleted {
			out = append(out, f.clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEnrollments) CountByStatus(_ dbctx.Context, challengeID uuid.UUID) (map[domain.EnrollmentStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.EnrollmentStatus]int64{}
	for _, e := range f.byID {
		if e.ChallengeID == challengeID {
			out[e.Status]++
		}
	}
	return out, nil
}

func (f *fakeEnrollments) IncrementProgress(_ dbctx.Context, id uuid.UUID, by int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.Status != domain.EnrollmentActive {
		return false, nil
	}
	e.Progress += by
	return true, nil
}

func (f *fakeEnrollments) CompleteIfActive(_ dbctx.Context, id uuid.UUID, pointsEarned int, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.Status != domain.EnrollmentActive {
		return false, nil
	}
	e.Status = domain.EnrollmentCompleted
	e.PointsEarned = pointsEarned
	t := completedAt
	e.CompletedAt = &t
	return true, nil
}

func (f *fakeEnrollments) ExpireEnded(_ dbctx.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates.mu.Lock()
	defer f.templates.mu.Unlock()
	var n int64
	for _, e := range f.byID {
		if e.Status != domain.EnrollmentActive {
			continue
		}
		t, ok := f.templates.byID[e.ChallengeID]
		if !ok || t.EndDate == nil || !t.EndDate.Before(now) {
			continue
		}
		e.Status = domain.EnrollmentExpired
		n++
	}
	return n, nil
}

// ---- reward items ----

type fakeRewardItems struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*domain.RewardItem
	redemptions *fakeRedemptions
}

func newFakeRewardItems() *fakeRewardItems {
	return &fakeRewardItems{byID: map[uuid.UUID]*domain.RewardItem{}}
}

func cloneRewardItem(r *domain.RewardItem) *domain.RewardItem {
	c := *r
	if r.StockQuantity != nil {
		v := *r.StockQuantity
		c.StockQuantity = &v
	}
	if r.RedemptionLimitPerUser != nil {
		v := *r.RedemptionLimitPerUser
		c.RedemptionLimitPerUser = &v
	}
	if r.ExpiryDate != nil {
		v := *r.ExpiryDate
		c.ExpiryDate = &v
	}
	return &c
}

func (f *fakeRewardItems) Create(_ dbctx.Context, rows []*domain.RewardItem) ([]*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
		f.byID[row.ID] = cloneRewardItem(row)
	}
	return rows, nil
}

func (f *fakeRewardItems) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		return cloneRewardItem(r), nil
	}
	return nil, nil
}

func (f *fakeRewardItems) active(filter func(r *domain.RewardItem) bool) []*domain.RewardItem {
	var out []*domain.RewardItem
	for _, r := range f.byID {
		if !r.IsActive {
			continue
		}
		if filter != nil && !filter(r) {
			continue
		}
		out = append(out, cloneRewardItem(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointCost < out[j].PointCost })
	return out
}

func (f *fakeRewardItems) List(_ dbctx.Context, category *domain.RewardCategory, featured *bool) ([]*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active(func(r *domain.RewardItem) bool {
		if category != nil && r.Category != *category {
			return false
		}
		if featured != nil && r.IsFeatured != *featured {
			return false
		}
		return true
	}), nil
}

func (f *fakeRewardItems) Featured(_ dbctx.Context, limit int) ([]*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.active(func(r *domain.RewardItem) bool { return r.IsFeatured })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRewardItems) Affordable(_ dbctx.Context, maxCost int) ([]*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active(func(r *domain.RewardItem) bool { return r.PointCost <= maxCost }), nil
}

func (f *fakeRewardItems) Popular(_ dbctx.Context, limit int) ([]*domain.RewardItem, error) {
	counts := map[uuid.UUID]int{}
	if f.redemptions != nil {
		f.redemptions.mu.Lock()
		for _, r := range f.redemptions.byID {
			if r.Status != domain.RedemptionCancelled {
				counts[r.RewardID]++
			}
		}
		f.redemptions.mu.Unlock()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.active(nil)
	sort.Slice(out, func(i, j int) bool { return counts[out[i].ID] > counts[out[j].ID] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRewardItems) Search(_ dbctx.Context, query string, category *domain.RewardCategory) ([]*domain.RewardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	return f.active(func(r *domain.RewardItem) bool {
		if category != nil && r.Category != *category {
			return false
		}
		return strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Brand), q)
	}), nil
}

func (f *fakeRewardItems) SetActive(_ dbctx.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		r.IsActive = active
	}
	return nil
}

func (f *fakeRewardItems) DecrementStock(_ dbctx.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.StockQuantity == nil || *r.StockQuantity <= 0 {
		return false, nil
	}
	*r.StockQuantity--
	return true, nil
}

func (f *fakeRewardItems) RestoreStock(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok && r.StockQuantity != nil {
		*r.StockQuantity++
	}
	return nil
}

// ---- redemptions ----

type fakeRedemptions struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*domain.RewardRedemption
	items *fakeRewardItems
}

func newFakeRedemptions(items *fakeRewardItems) *fakeRedemptions {
	f := &fakeRedemptions{byID: map[uuid.UUID]*domain.RewardRedemption{}, items: items}
	items.redemptions = f
	return f
}

func (f *fakeRedemptions) clone(r *domain.RewardRedemption) *domain.RewardRedemption {
	c := *r
	if r.CouponCode != nil {
		v := *r.CouponCode
		c.CouponCode = &v
	}
	if r.ShippingAddress != nil {
		v := *r.ShippingAddress
		c.ShippingAddress = &v
	}
	if r.TrackingNumber != nil {
		v := *r.TrackingNumber
		c.TrackingNumber = &v
	}
	if item, ok := f.items.byID[r.RewardID]; ok {
		c.Reward = cloneRewardItem(item)
	}
	return &c
}

func (f *fakeRedemptions) Create(_ dbctx.Context, rows []*domain.RewardRedemption) ([]*domain.RewardRedemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
		c := *row
		f.byID[row.ID] = &c
	}
	return rows, nil
}

func (f *fakeRedemptions) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.RewardRedemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items.mu.Lock()
	defer f.items.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		return f.clone(r), nil
	}
	return nil, nil
}

func (f *fakeRedemptions) ListByUser(_ dbctx.Context, userID uuid.UUID, status *domain.RedemptionStatus) ([]*domain.RewardRedemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items.mu.Lock()
	defer f.items.mu.Unlock()
	var out []*domain.RewardRedemption
	for _, r := range f.byID {
		if r.UserID != userID {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, f.clone(r))
	}
	return out, nil
}

func (f *fakeRedemptions) CountByUserAndReward(_ dbctx.Context, userID, rewardID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.byID {
		if r.UserID == userID && r.RewardID == rewardID && r.Status != domain.RedemptionCancelled {
			n++
		}
	}
	return n, nil
}

func (f *fakeRedemptions) CancelIfPending(_ dbctx.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status != domain.RedemptionPending {
		return false, nil
	}
	r.Status = domain.RedemptionCancelled
	return true, nil
}

func (f *fakeRedemptions) TransitionStatus(_ dbctx.Context, id uuid.UUID, from []domain.RedemptionStatus, updates map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if r.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			r.Status = v.(domain.RedemptionStatus)
		case "tracking_number":
			s := v.(string)
			r.TrackingNumber = &s
		case "notes":
			r.Notes = v.(string)
		}
	}
	return true, nil
}

func (f *fakeRedemptions) StatsByReward(_ dbctx.Context, rewardID uuid.UUID) (*rewards.RedemptionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &rewards.RedemptionStats{ByStatus: map[domain.RedemptionStatus]int64{}}
	for _, r := range f.byID {
		if r.RewardID != rewardID {
			continue
		}
		stats.ByStatus[r.Status]++
		stats.Total++
		if r.Status != domain.RedemptionCancelled {
			stats.PointsSpent += int64(r.PointsSpent)
		}
	}
	return stats, nil
}
