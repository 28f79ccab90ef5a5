/*
roster.go - Student Roster Store

PURPOSE:
  Owns the authoritative list of students. Every mutation validates its
  input, works on a copy of the collection, persists the copy through the
  key-value store and only then swaps it in. A failed write leaves both the
  stored document and the in-memory roster unchanged.

INVARIANTS:
  - Student ids are unique and generated here (UUIDs)
  - Roll numbers are unique, compared case-insensitively
  - Payments are append-only; discounts may be updated or deleted by id
  - Amounts are strictly positive

USAGE:
  roster, err := fees.NewRoster(ctx, kvStore, fees.WithLogger(log))
  s, err := roster.AddStudent(ctx, fees.NewStudent{...})
  _, err = roster.AddPayment(ctx, s.ID, fees.PaymentInput{Amount: decimal.NewFromInt(5000)})

SEE ALSO:
  - ledger.go: derived balances
  - importer.go: bulk reconciliation by roll number
  - kv/kv.go: persistence capability
*/
package fees

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/fee-engine/kv"
	"github.com/warp/fee-engine/validation"
)

// StudentsKey is the key the roster document is stored under.
const StudentsKey = "feeManager_studentsData"

// =============================================================================
// ROSTER
// =============================================================================

// Roster is the Student Roster Store. It is safe for concurrent use.
type Roster struct {
	mu       sync.RWMutex
	store    kv.Store
	students []Student

	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option configures a Roster.
type Option func(*Roster)

// WithLogger sets the logger used for mutation and persistence events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Roster) { r.log = l }
}

// WithClock overrides the time source used for default transaction dates.
func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Roster) { r.newID = gen }
}

// NewRoster loads the roster from store. A missing document is an empty roster.
func NewRoster(ctx context.Context, store kv.Store, opts ...Option) (*Roster, error) {
	r := &Roster{
		store: store,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}

	var students []Student
	if _, err := kv.LoadJSON(ctx, store, StudentsKey, &students); err != nil {
		return nil, err
	}
	for i := range students {
		students[i] = students[i].Clone()
	}
	r.students = students
	return r, nil
}

// =============================================================================
// READS
// =============================================================================

// Students returns a copy of every student in roster order.
func (r *Roster) Students() []Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Student, len(r.students))
	for i, s := range r.students {
		out[i] = s.Clone()
	}
	return out
}

// Student returns the student with the given id.
func (r *Roster) Student(id string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return Student{}, ErrStudentNotFound
	}
	return r.students[i].Clone(), nil
}

// StudentLedger returns the student with its derived ledger.
func (r *Roster) StudentLedger(id string) (StudentLedger, error) {
	s, err := r.Student(id)
	if err != nil {
		return StudentLedger{}, err
	}
	return WithLedger(s), nil
}

// Len returns the number of students.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students)
}

// =============================================================================
// STUDENT MUTATIONS
// =============================================================================

// AddStudent creates a student with empty payment and discount collections.
func (r *Roster) AddStudent(ctx context.Context, in NewStudent) (Student, error) {
	in = normalizeProfile(in)
	if err := validation.Struct(in); err != nil {
		return Student{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkRollNumber(in.RollNumber, ""); err != nil {
		return Student{}, err
	}

	s := Student{
		ID:         r.newID(),
		Name:       in.Name,
		RollNumber: in.RollNumber,
		Class:      in.Class,
		Grade:      in.Grade,
		TotalFees:  in.TotalFees,
		Payments:   []Payment{},
		Discounts:  []Discount{},
	}

	next := append(r.snapshot(), s)
	if err := r.commit(ctx, next); err != nil {
		return Student{}, err
	}

	r.log.Info("student added",
		zap.String("student_id", s.ID),
		zap.String("roll_number", s.RollNumber))
	return s.Clone(), nil
}

// UpdateStudent replaces the profile fields of student id. Payments and
// discounts are preserved. Last write wins.
func (r *Roster) UpdateStudent(ctx context.Context, id string, in StudentUpdate) (Student, error) {
	in = StudentUpdate(normalizeProfile(NewStudent(in)))
	if err := validation.Struct(in); err != nil {
		return Student{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Student{}, ErrStudentNotFound
	}
	if err := r.checkRollNumber(in.RollNumber, id); err != nil {
		return Student{}, err
	}

	next := r.snapshot()
	s := next[i]
	s.Name = in.Name
	s.RollNumber = in.RollNumber
	s.Class = in.Class
	s.Grade = in.Grade
	s.TotalFees = in.TotalFees
	next[i] = s

	if err := r.commit(ctx, next); err != nil {
		return Student{}, err
	}

	r.log.Info("student updated", zap.String("student_id", id))
	return s.Clone(), nil
}

// DeleteStudent removes the student and everything it owns.
func (r *Roster) DeleteStudent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrStudentNotFound
	}

	next := r.snapshot()
	removed := next[i]
	next = append(next[:i], next[i+1:]...)

	if err := r.commit(ctx, next); err != nil {
		return err
	}

	r.log.Info("student deleted",
		zap.String("student_id", id),
		zap.Int("payments", len(removed.Payments)),
		zap.Int("discounts", len(removed.Discounts)))
	return nil
}

// =============================================================================
// PAYMENTS (append-only)
// =============================================================================

// AddPayment appends a payment to the student. Date defaults to now.
func (r *Roster) AddPayment(ctx context.Context, studentID string, in PaymentInput) (Payment, error) {
	if err := validation.Struct(in); err != nil {
		return Payment{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(studentID)
	if i < 0 {
		return Payment{}, ErrStudentNotFound
	}

	p := Payment{
		ID:      r.newID(),
		Amount:  in.Amount,
		Date:    r.dateOrNow(in.Date),
		Remarks: strings.TrimSpace(in.Remarks),
	}

	next := r.snapshot()
	s := next[i]
	s.Payments = append(s.Payments, p)
	next[i] = s

	if err := r.commit(ctx, next); err != nil {
		return Payment{}, err
	}

	r.log.Info("payment recorded",
		zap.String("student_id", studentID),
		zap.String("payment_id", p.ID),
		zap.String("amount", p.Amount.String()))
	return p, nil
}

// =============================================================================
// DISCOUNTS
// =============================================================================

// AddDiscount appends a discount to the student. Date defaults to now.
func (r *Roster) AddDiscount(ctx context.Context, studentID string, in DiscountInput) (Discount, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return Discount{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(studentID)
	if i < 0 {
		return Discount{}, ErrStudentNotFound
	}

	d := Discount{
		ID:     r.newID(),
		Amount: in.Amount,
		Date:   r.dateOrNow(in.Date),
		Reason: in.Reason,
	}

	next := r.snapshot()
	s := next[i]
	s.Discounts = append(s.Discounts, d)
	next[i] = s

	if err := r.commit(ctx, next); err != nil {
		return Discount{}, err
	}

	r.log.Info("discount recorded",
		zap.String("student_id", studentID),
		zap.String("discount_id", d.ID),
		zap.String("amount", d.Amount.String()))
	return d, nil
}

// UpdateDiscount replaces the discount with the same id on the student.
// A zero Date keeps the original date.
func (r *Roster) UpdateDiscount(ctx context.Context, studentID string, d Discount) (Discount, error) {
	d.Reason = strings.TrimSpace(d.Reason)
	if err := validation.Struct(d); err != nil {
		return Discount{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(studentID)
	if i < 0 {
		return Discount{}, ErrStudentNotFound
	}

	next := r.snapshot()
	s := next[i]
	j := discountIndex(s.Discounts, d.ID)
	if j < 0 {
		return Discount{}, ErrDiscountNotFound
	}
	if d.Date.IsZero() {
		d.Date = s.Discounts[j].Date
	}
	s.Discounts[j] = d
	next[i] = s

	if err := r.commit(ctx, next); err != nil {
		return Discount{}, err
	}

	r.log.Info("discount updated",
		zap.String("student_id", studentID),
		zap.String("discount_id", d.ID))
	return d, nil
}

// DeleteDiscount removes the discount with the given id from the student.
func (r *Roster) DeleteDiscount(ctx context.Context, studentID, discountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(studentID)
	if i < 0 {
		return ErrStudentNotFound
	}

	next := r.snapshot()
	s := next[i]
	j := discountIndex(s.Discounts, discountID)
	if j < 0 {
		return ErrDiscountNotFound
	}
	s.Discounts = append(s.Discounts[:j], s.Discounts[j+1:]...)
	next[i] = s

	if err := r.commit(ctx, next); err != nil {
		return err
	}

	r.log.Info("discount deleted",
		zap.String("student_id", studentID),
		zap.String("discount_id", discountID))
	return nil
}

// =============================================================================
// INTERNALS (callers hold r.mu)
// =============================================================================

func (r *Roster) indexOf(id string) int {
	for i, s := range r.students {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// checkRollNumber rejects roll if any student other than exceptID has it.
func (r *Roster) checkRollNumber(roll, exceptID string) error {
	key := rollKey(roll)
	for _, s := range r.students {
		if s.ID != exceptID && rollKey(s.RollNumber) == key {
			return &DuplicateRollNumberError{RollNumber: roll, ExistingID: s.ID}
		}
	}
	return nil
}

// snapshot deep-copies the roster so a mutation can fail without side effects.
func (r *Roster) snapshot() []Student {
	out := make([]Student, len(r.students), len(r.students)+1)
	for i, s := range r.students {
		out[i] = s.Clone()
	}
	return out
}

// commit persists next and, on success, makes it the live roster.
func (r *Roster) commit(ctx context.Context, next []Student) error {
	if err := kv.SaveJSON(ctx, r.store, StudentsKey, next); err != nil {
		r.log.Error("failed to persist roster", zap.Error(err))
		return err
	}
	r.students = next
	return nil
}

func (r *Roster) dateOrNow(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return r.now()
	}
	return d.UTC()
}

func discountIndex(ds []Discount, id string) int {
	for i, d := range ds {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func rollKey(roll string) string {
	return strings.ToLower(strings.TrimSpace(roll))
}

func normalizeProfile(in NewStudent) NewStudent {
	in.Name = strings.TrimSpace(in.Name)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	in.Class = strings.TrimSpace(in.Class)
	in.Grade = strings.TrimSpace(in.Grade)
	return in
}
