// Package testutil 提供与真实存储同契约的内存仓储和外部依赖替身，只在测试中使用
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tour-booking-api/internal/domain"
)

func paginate[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

/* ---------------------------------- users --------------------------------- */

type Users struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func NewUsers() *Users { return &Users{byID: map[string]domain.User{}} }

var _ domain.UserRepository = (*Users)(nil)

func public(u domain.User) *domain.User {
	u.PasswordHash = ""
	return &u
}

// Raw 测试断言用：直接返回存储中的完整记录（含哈希、inactive）
func (s *Users) Raw(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	return u, ok
}

func (s *Users) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range s.byID {
		if other.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) find(match func(domain.User) bool) (domain.User, bool) {
	for _, u := range s.byID {
		if u.Active && match(u) {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *Users) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.find(func(u domain.User) bool { return u.ID == id }); ok {
		return public(u), nil
	}
	return nil, domain.ErrNotFound
}

func (s *Users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.find(func(u domain.User) bool { return u.Email == email }); ok {
		return public(u), nil
	}
	return nil, domain.ErrNotFound
}

func (s *Users) FindCredentialsByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.find(func(u domain.User) bool { return u.ID == id }); ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *Users) FindCredentialsByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.find(func(u domain.User) bool { return u.Email == email }); ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *Users) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.find(func(u domain.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash && u.HasValidResetToken(now)
	})
	if !ok {
		return nil, domain.ErrNotFound
	}
	return public(u), nil
}

func (s *Users) mutate(id string, fn func(u *domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.byID[id] = u
	return nil
}

func (s *Users) SetResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	return s.mutate(id, func(u *domain.User) {
		u.PasswordResetToken = &tokenHash
		u.PasswordResetExpires = &expires
	})
}

func (s *Users) ClearResetToken(_ context.Context, id string) error {
	return s.mutate(id, func(u *domain.User) {
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
	})
}

func (s *Users) ConsumeResetToken(_ context.Context, id, tokenHash string, now time.Time, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || !u.Active || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash || !u.HasValidResetToken(now) {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	s.byID[id] = u
	return nil
}

func (s *Users) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	return s.mutate(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.PasswordChangedAt = &changedAt
	})
}

func (s *Users) UpdateProfile(_ context.Context, id string, p domain.ProfileUpdate) error {
	if p.Email != nil {
		s.mu.Lock()
		for _, other := range s.byID {
			if other.ID != id && other.Email == *p.Email {
				s.mu.Unlock()
				return domain.ErrDuplicate
			}
		}
		s.mu.Unlock()
	}
	return s.mutate(id, func(u *domain.User) {
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.Role != nil {
			u.Role = *p.Role
		}
		if p.Photo != nil {
			u.Photo = *p.Photo
		}
	})
}

func (s *Users) Deactivate(_ context.Context, id string) error {
	return s.mutate(id, func(u *domain.User) { u.Active = false })
}

func (s *Users) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Users) List(_ context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.User
	needle := strings.ToLower(q.Q)
	for _, u := range s.byID {
		if !q.WithInactive && !u.Active {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(u.Name), needle) && !strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		all = append(all, *public(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, q.Offset, q.Limit), int64(len(all)), nil
}

/* ---------------------------------- tours --------------------------------- */

type Tours struct {
	mu   sync.Mutex
	byID map[string]domain.Tour
	// FailRatings 非 nil 时 UpdateRatings 返回该错误
	FailRatings error
}

func NewTours() *Tours { return &Tours{byID: map[string]domain.Tour{}} }

var _ domain.TourRepository = (*Tours)(nil)

func (s *Tours) Raw(id string) (domain.Tour, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	return t, ok
}

func (s *Tours) Create(_ context.Context, t *domain.Tour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.ID == t.ID || other.Name == t.Name {
			return domain.ErrDuplicate
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.byID[t.ID] = *t
	return nil
}

func (s *Tours) FindByID(_ context.Context, id string) (*domain.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.Secret {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *Tours) FindByIDs(_ context.Context, ids []string) ([]domain.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Tour
	for _, id := range ids {
		if t, ok := s.byID[id]; ok && !t.Secret {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Tours) List(_ context.Context, q domain.TourQuery) ([]domain.Tour, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Tour
	for _, t := range s.byID {
		if t.Secret {
			continue
		}
		if q.Difficulty != "" && t.Difficulty != q.Difficulty {
			continue
		}
		if q.MinPrice != nil && t.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && t.Price > *q.MaxPrice {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		switch q.Sort {
		case "price":
			return all[i].Price < all[j].Price
		case "-price":
			return all[i].Price > all[j].Price
		case "ratingsAverage":
			return all[i].RatingsAverage < all[j].RatingsAverage
		case "-ratingsAverage":
			return all[i].RatingsAverage > all[j].RatingsAverage
		case "createdAt":
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, q.Offset, q.Limit), int64(len(all)), nil
}

func (s *Tours) Update(_ context.Context, t *domain.Tour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, other := range s.byID {
		if other.ID != t.ID && other.Name == t.Name {
			return domain.ErrDuplicate
		}
	}
	next := *t
	next.RatingsAverage = old.RatingsAverage
	next.RatingsQuantity = old.RatingsQuantity
	next.CreatedAt = old.CreatedAt
	s.byID[t.ID] = next
	return nil
}

func (s *Tours) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Tours) UpdateRatings(_ context.Context, id string, average float64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRatings != nil {
		return s.FailRatings
	}
	t, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.RatingsAverage = average
	t.RatingsQuantity = quantity
	s.byID[id] = t
	return nil
}

/* --------------------------------- reviews -------------------------------- */

type Reviews struct {
	mu   sync.Mutex
	byID map[string]domain.Review
}

func NewReviews() *Reviews { return &Reviews{byID: map[string]domain.Review{}} }

var _ domain.ReviewRepository = (*Reviews)(nil)

func (s *Reviews) Create(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.ID == r.ID || (other.UserID == r.UserID && other.TourID == r.TourID) {
			return domain.ErrDuplicate
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.byID[r.ID] = *r
	return nil
}

func (s *Reviews) FindByID(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *Reviews) List(_ context.Context, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Review
	for _, r := range s.byID {
		if q.TourID != "" && r.TourID != q.TourID {
			continue
		}
		if q.UserID != "" && r.UserID != q.UserID {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, q.Offset, q.Limit), int64(len(all)), nil
}

func (s *Reviews) Update(_ context.Context, id, text string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Text = text
	r.Rating = rating
	s.byID[id] = r
	return nil
}

func (s *Reviews) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Reviews) DeleteByTour(_ context.Context, tourID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.byID {
		if r.TourID == tourID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *Reviews) RatingStats(_ context.Context, tourID string) (domain.RatingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n, sum int
	for _, r := range s.byID {
		if r.TourID == tourID {
			n++
			sum += r.Rating
		}
	}
	if n == 0 {
		return domain.RatingStats{}, nil
	}
	return domain.RatingStats{Count: n, Average: float64(sum) / float64(n)}, nil
}

/* --------------------------------- bookings ------------------------------- */

type Bookings struct {
	mu   sync.Mutex
	byID map[string]domain.Booking
}

func NewBookings() *Bookings { return &Bookings{byID: map[string]domain.Booking{}} }

var _ domain.BookingRepository = (*Bookings)(nil)

func (s *Bookings) Create(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.ID]; ok {
		return domain.ErrDuplicate
	}
	if b.SessionID != nil {
		for _, o := range s.byID {
			if o.SessionID != nil && *o.SessionID == *b.SessionID {
				return domain.ErrDuplicate
			}
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.byID[b.ID] = *b
	return nil
}

func (s *Bookings) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s *Bookings) List(_ context.Context, q domain.BookingQuery) ([]domain.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Booking
	for _, b := range s.byID {
		if q.UserID != "" && b.UserID != q.UserID {
			continue
		}
		if q.TourID != "" && b.TourID != q.TourID {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, q.Offset, q.Limit), int64(len(all)), nil
}

func (s *Bookings) Update(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := *b
	next.CreatedAt = old.CreatedAt
	s.byID[b.ID] = next
	return nil
}

func (s *Bookings) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
