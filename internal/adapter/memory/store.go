// Package memory provides a process-local store implementing every
// repository plus a snapshot-based Transactor.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

// Store keeps all records in maps guarded by one mutex. A unit of work holds
// the mutex for its whole duration and restores a snapshot on failure.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	users        map[uuid.UUID]core.User
	transactions []core.CreditTransaction
	skills       map[uuid.UUID]core.Skill
	courses      map[uuid.UUID]core.Course
	lessons      map[uuid.UUID]core.Lesson
	enrollments  map[uuid.UUID]core.Enrollment
	progress     map[uuid.UUID]core.LessonProgress
	certificates map[uuid.UUID]core.Certificate
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{state: &state{
		users:        map[uuid.UUID]core.User{},
		skills:       map[uuid.UUID]core.Skill{},
		courses:      map[uuid.UUID]core.Course{},
		lessons:      map[uuid.UUID]core.Lesson{},
		enrollments:  map[uuid.UUID]core.Enrollment{},
		progress:     map[uuid.UUID]core.LessonProgress{},
		certificates: map[uuid.UUID]core.Certificate{},
	}}
}

// records are replaced, never mutated in place, so shallow copies suffice
func (st *state) clone() *state {
	return &state{
		users:        maps.Clone(st.users),
		transactions: slices.Clone(st.transactions),
		skills:       maps.Clone(st.skills),
		courses:      maps.Clone(st.courses),
		lessons:      maps.Clone(st.lessons),
		enrollments:  maps.Clone(st.enrollments),
		progress:     maps.Clone(st.progress),
		certificates: maps.Clone(st.certificates),
	}
}

type txKey struct{}

var (
	_ core.Transactor                  = (*Store)(nil)
	_ core.UserRepository              = (*Store)(nil)
	_ core.CreditTransactionRepository = (*Store)(nil)
	_ core.SkillRepository             = (*Store)(nil)
	_ core.CourseRepository            = (*Store)(nil)
	_ core.EnrollmentRepository        = (*Store)(nil)
	_ core.CertificateRepository       = (*Store)(nil)
)

// InTx runs fn with exclusive access, rolling back every change if fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// CreateUser stores a new account.
func (s *Store) CreateUser(ctx context.Context, user core.User) error {
	defer s.lock(ctx)()
	if _, ok := s.state.users[user.ID]; ok {
		return fmt.Errorf("%w: user %s exists", core.ErrConflict, user.ID)
	}
	user.Badges = slices.Clone(user.Badges)
	s.state.users[user.ID] = user
	return nil
}

// GetUser returns the account.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	defer s.lock(ctx)()
	user, ok := s.state.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	user.Badges = slices.Clone(user.Badges)
	return &user, nil
}

// AdjustBalance applies delta unless the result would be negative.
func (s *Store) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64, at time.Time) (int64, error) {
	defer s.lock(ctx)()
	user, ok := s.state.users[id]
	if !ok {
		return 0, core.ErrUserNotFound
	}
	if user.CreditBalance+delta < 0 {
		return 0, core.ErrInsufficientFunds
	}
	user.CreditBalance += delta
	user.UpdatedAt = at
	s.state.users[id] = user
	return user.CreditBalance, nil
}

// AddSkillPoints increments the user's skill points.
func (s *Store) AddSkillPoints(ctx context.Context, id uuid.UUID, points int64, at time.Time) error {
	defer s.lock(ctx)()
	user, ok := s.state.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	user.SkillPoints += points
	user.UpdatedAt = at
	s.state.users[id] = user
	return nil
}

// AddBadge adds badge if absent.
func (s *Store) AddBadge(ctx context.Context, id uuid.UUID, badge string, at time.Time) (bool, error) {
	defer s.lock(ctx)()
	user, ok := s.state.users[id]
	if !ok {
		return false, core.ErrUserNotFound
	}
	if user.HasBadge(badge) {
		return false, nil
	}
	user.Badges = append(slices.Clone(user.Badges), badge)
	user.UpdatedAt = at
	s.state.users[id] = user
	return true, nil
}

// AppendTransaction appends a ledger row.
func (s *Store) AppendTransaction(ctx context.Context, tx core.CreditTransaction) error {
	defer s.lock(ctx)()
	s.state.transactions = append(s.state.transactions, tx)
	return nil
}

// ListTransactions returns the newest rows first. A non-positive limit
// returns every row.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]core.CreditTransaction, error) {
	defer s.lock(ctx)()
	out := []core.CreditTransaction{}
	for i := len(s.state.transactions) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if tx := s.state.transactions[i]; tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// SumTransactions returns the signed sum of the user's rows.
func (s *Store) SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	defer s.lock(ctx)()
	var sum int64
	for _, tx := range s.state.transactions {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

// CreateSkill stores a skill.
func (s *Store) CreateSkill(ctx context.Context, skill core.Skill) error {
	defer s.lock(ctx)()
	s.state.skills[skill.ID] = skill
	return nil
}

// GetSkill returns a skill.
func (s *Store) GetSkill(ctx context.Context, id uuid.UUID) (*core.Skill, error) {
	defer s.lock(ctx)()
	skill, ok := s.state.skills[id]
	if !ok {
		return nil, core.ErrSkillNotFound
	}
	return &skill, nil
}

// CreateCourse stores a course.
func (s *Store) CreateCourse(ctx context.Context, course core.Course) error {
	defer s.lock(ctx)()
	s.state.courses[course.ID] = course
	return nil
}

// GetCourse returns a course.
func (s *Store) GetCourse(ctx context.Context, id uuid.UUID) (*core.Course, error) {
	defer s.lock(ctx)()
	course, ok := s.state.courses[id]
	if !ok {
		return nil, core.ErrCourseNotFound
	}
	return &course, nil
}

// UpdateCourse replaces the editable course fields.
func (s *Store) UpdateCourse(ctx context.Context, course core.Course) error {
	defer s.lock(ctx)()
	stored, ok := s.state.courses[course.ID]
	if !ok {
		return core.ErrCourseNotFound
	}
	stored.Title = course.Title
	stored.Description = course.Description
	stored.PriceCredits = course.PriceCredits
	stored.PriceMoney = course.PriceMoney
	stored.UpdatedAt = course.UpdatedAt
	s.state.courses[course.ID] = stored
	return nil
}

// AdjustCourseCounters applies deltas to a draft course.
func (s *Store) AdjustCourseCounters(ctx context.Context, id uuid.UUID, lessons, duration int, at time.Time) error {
	defer s.lock(ctx)()
	course, ok := s.state.courses[id]
	if !ok {
		return core.ErrCourseNotFound
	}
	if course.Status != core.CourseStatusDraft {
		return fmt.Errorf("%w: course is published", core.ErrInvalidState)
	}
	course.TotalLessons += lessons
	course.TotalDuration += duration
	course.UpdatedAt = at
	s.state.courses[id] = course
	return nil
}

// MarkPublished publishes a draft course with lessons.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer s.lock(ctx)()
	course, ok := s.state.courses[id]
	if !ok {
		return core.ErrCourseNotFound
	}
	if course.Status != core.CourseStatusDraft {
		return fmt.Errorf("%w: course already published", core.ErrInvalidState)
	}
	if course.TotalLessons == 0 {
		return core.ErrInsufficientContent
	}
	course.Status = core.CourseStatusPublished
	course.PublishedAt = &at
	course.UpdatedAt = at
	s.state.courses[id] = course
	return nil
}

// SearchCourses filters courses, newest first.
func (s *Store) SearchCourses(ctx context.Context, filter core.CourseFilter) ([]core.Course, string, error) {
	offset, err := core.ParseOffsetToken(filter.PageToken)
	if err != nil {
		return nil, "", err
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}

	defer s.lock(ctx)()
	query := strings.ToLower(filter.Query)
	var matched []core.Course
	for _, c := range s.state.courses {
		switch {
		case filter.Status != "" && c.Status != filter.Status,
			filter.Category != "" && c.Category != filter.Category,
			filter.CreatorID != uuid.Nil && c.CreatorID != filter.CreatorID,
			filter.MinPrice != nil && c.PriceCredits < *filter.MinPrice,
			filter.MaxPrice != nil && c.PriceCredits > *filter.MaxPrice,
			query != "" && !strings.Contains(strings.ToLower(c.Title), query) && !strings.Contains(strings.ToLower(c.Description), query):
			continue
		}
		matched = append(matched, c)
	}
	sortNewestFirst(matched)

	if offset >= len(matched) {
		return []core.Course{}, "", nil
	}
	matched = matched[offset:]
	next := ""
	if len(matched) > pageSize {
		matched = matched[:pageSize]
		next = core.NextOffsetToken(offset, pageSize)
	}
	return matched, next, nil
}

// ListCoursesByCreator returns every course of the creator, newest first.
func (s *Store) ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]core.Course, error) {
	defer s.lock(ctx)()
	var out []core.Course
	for _, c := range s.state.courses {
		if c.CreatorID == creatorID {
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(courses []core.Course) {
	slices.SortFunc(courses, func(a, b core.Course) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
}

// CreateLesson stores a lesson.
func (s *Store) CreateLesson(ctx context.Context, lesson core.Lesson) error {
	defer s.lock(ctx)()
	s.state.lessons[lesson.ID] = lesson
	return nil
}

// GetLesson returns a lesson.
func (s *Store) GetLesson(ctx context.Context, id uuid.UUID) (*core.Lesson, error) {
	defer s.lock(ctx)()
	lesson, ok := s.state.lessons[id]
	if !ok {
		return nil, core.ErrLessonNotFound
	}
	return &lesson, nil
}

// UpdateLesson replaces a lesson.
func (s *Store) UpdateLesson(ctx context.Context, lesson core.Lesson) error {
	defer s.lock(ctx)()
	if _, ok := s.state.lessons[lesson.ID]; !ok {
		return core.ErrLessonNotFound
	}
	s.state.lessons[lesson.ID] = lesson
	return nil
}

// DeleteLesson removes a lesson.
func (s *Store) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	defer s.lock(ctx)()
	if _, ok := s.state.lessons[id]; !ok {
		return core.ErrLessonNotFound
	}
	delete(s.state.lessons, id)
	return nil
}

// ListLessons returns the course's lessons in order.
func (s *Store) ListLessons(ctx context.Context, courseID uuid.UUID) ([]core.Lesson, error) {
	defer s.lock(ctx)()
	var out []core.Lesson
	for _, l := range s.state.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b core.Lesson) int {
		return cmp.Or(cmp.Compare(a.OrderIndex, b.OrderIndex), a.CreatedAt.Compare(b.CreatedAt))
	})
	return out, nil
}

// CreateEnrollment stores an enrollment, enforcing one per (user, course) and
// one per (user, idempotency key).
func (s *Store) CreateEnrollment(ctx context.Context, enrollment core.Enrollment) error {
	defer s.lock(ctx)()
	for _, e := range s.state.enrollments {
		if e.UserID != enrollment.UserID {
			continue
		}
		if e.CourseID == enrollment.CourseID {
			return fmt.Errorf("%w: enrollment exists", core.ErrConflict)
		}
		if enrollment.IdempotencyKey != "" && e.IdempotencyKey == enrollment.IdempotencyKey {
			return fmt.Errorf("%w: idempotency key reused", core.ErrConflict)
		}
	}
	s.state.enrollments[enrollment.ID] = enrollment
	return nil
}

// GetEnrollment returns an enrollment.
func (s *Store) GetEnrollment(ctx context.Context, id uuid.UUID) (*core.Enrollment, error) {
	defer s.lock(ctx)()
	e, ok := s.state.enrollments[id]
	if !ok {
		return nil, core.ErrEnrollmentNotFound
	}
	return &e, nil
}

// LockEnrollment returns an enrollment; the unit of work already holds the
// store mutex.
func (s *Store) LockEnrollment(ctx context.Context, id uuid.UUID) (*core.Enrollment, error) {
	return s.GetEnrollment(ctx, id)
}

// FindEnrollment returns the user's enrollment in a course.
func (s *Store) FindEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*core.Enrollment, error) {
	defer s.lock(ctx)()
	for _, e := range s.state.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, core.ErrEnrollmentNotFound
}

// FindEnrollmentByKey returns the enrollment recorded under key.
func (s *Store) FindEnrollmentByKey(ctx context.Context, userID uuid.UUID, key string) (*core.Enrollment, error) {
	defer s.lock(ctx)()
	for _, e := range s.state.enrollments {
		if e.UserID == userID && key != "" && e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, core.ErrEnrollmentNotFound
}

// UpdateEnrollmentProgress raises progress and sets completion once.
func (s *Store) UpdateEnrollmentProgress(ctx context.Context, id uuid.UUID, progress int, completedAt *time.Time, at time.Time) error {
	defer s.lock(ctx)()
	e, ok := s.state.enrollments[id]
	if !ok {
		return core.ErrEnrollmentNotFound
	}
	e.Progress = max(e.Progress, progress)
	if e.CompletedAt == nil && completedAt != nil {
		ts := *completedAt
		e.CompletedAt = &ts
	}
	e.UpdatedAt = at
	s.state.enrollments[id] = e
	return nil
}

// ListEnrollmentsByCourse returns the course's enrollments, oldest first.
func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]core.Enrollment, error) {
	return s.listEnrollments(ctx, func(e core.Enrollment) bool { return e.CourseID == courseID }, 1)
}

// ListEnrollmentsByUser returns the user's enrollments, newest first.
func (s *Store) ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]core.Enrollment, error) {
	return s.listEnrollments(ctx, func(e core.Enrollment) bool { return e.UserID == userID }, -1)
}

func (s *Store) listEnrollments(ctx context.Context, keep func(core.Enrollment) bool, dir int) ([]core.Enrollment, error) {
	defer s.lock(ctx)()
	out := []core.Enrollment{}
	for _, e := range s.state.enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b core.Enrollment) int {
		return dir * a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// GetLessonProgress returns the progress row for a lesson of an enrollment.
func (s *Store) GetLessonProgress(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*core.LessonProgress, error) {
	defer s.lock(ctx)()
	for _, p := range s.state.progress {
		if p.EnrollmentID == enrollmentID && p.LessonID == lessonID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("lesson progress %w", core.ErrNotFound)
}

// CreateLessonProgress stores a progress row, one per (enrollment, lesson).
func (s *Store) CreateLessonProgress(ctx context.Context, progress core.LessonProgress) error {
	defer s.lock(ctx)()
	for _, p := range s.state.progress {
		if p.EnrollmentID == progress.EnrollmentID && p.LessonID == progress.LessonID {
			return fmt.Errorf("%w: lesson progress exists", core.ErrConflict)
		}
	}
	s.state.progress[progress.ID] = progress
	return nil
}

// UpdateLessonProgress replaces a progress row.
func (s *Store) UpdateLessonProgress(ctx context.Context, progress core.LessonProgress) error {
	defer s.lock(ctx)()
	if _, ok := s.state.progress[progress.ID]; !ok {
		return fmt.Errorf("lesson progress %w", core.ErrNotFound)
	}
	s.state.progress[progress.ID] = progress
	return nil
}

// ListLessonProgress returns an enrollment's progress rows.
func (s *Store) ListLessonProgress(ctx context.Context, enrollmentID uuid.UUID) ([]core.LessonProgress, error) {
	defer s.lock(ctx)()
	out := []core.LessonProgress{}
	for _, p := range s.state.progress {
		if p.EnrollmentID == enrollmentID {
			out = append(out, p)
		}
	}
	sortProgress(out)
	return out, nil
}

// ListCourseLessonProgress returns progress rows across the course's enrollments.
func (s *Store) ListCourseLessonProgress(ctx context.Context, courseID uuid.UUID) ([]core.LessonProgress, error) {
	defer s.lock(ctx)()
	out := []core.LessonProgress{}
	for _, p := range s.state.progress {
		if e, ok := s.state.enrollments[p.EnrollmentID]; ok && e.CourseID == courseID {
			out = append(out, p)
		}
	}
	sortProgress(out)
	return out, nil
}

func sortProgress(rows []core.LessonProgress) {
	slices.SortFunc(rows, func(a, b core.LessonProgress) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// CreateCertificate stores a certificate, one per enrollment.
func (s *Store) CreateCertificate(ctx context.Context, cert core.Certificate) error {
	defer s.lock(ctx)()
	for _, c := range s.state.certificates {
		if c.EnrollmentID == cert.EnrollmentID {
			return fmt.Errorf("%w: certificate exists for enrollment", core.ErrConflict)
		}
	}
	s.state.certificates[cert.ID] = cert
	return nil
}

// GetCertificate returns a certificate.
func (s *Store) GetCertificate(ctx context.Context, id uuid.UUID) (*core.Certificate, error) {
	defer s.lock(ctx)()
	c, ok := s.state.certificates[id]
	if !ok {
		return nil, core.ErrCertificateNotFound
	}
	return &c, nil
}

// GetCertificateByEnrollment returns the enrollment's certificate.
func (s *Store) GetCertificateByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*core.Certificate, error) {
	defer s.lock(ctx)()
	for _, c := range s.state.certificates {
		if c.EnrollmentID == enrollmentID {
			return &c, nil
		}
	}
	return nil, core.ErrCertificateNotFound
}

// ListCertificatesByUser returns the user's certificates, newest first.
func (s *Store) ListCertificatesByUser(ctx context.Context, userID uuid.UUID) ([]core.Certificate, error) {
	defer s.lock(ctx)()
	out := []core.Certificate{}
	for _, c := range s.state.certificates {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Certificate) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
