package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errStubWrite = errors.New("stub: write failed")

// ── serialTx ─────────────────────────────────────────────────────────────────
// Runs every unit of work under one mutex, standing in for the row locks a
// real database takes inside the transaction. Stubs listed in rollback are
// restored when the unit of work fails.

type snapshotter interface {
	snapshot() (restore func())
}

type serialTx struct {
	mu       sync.Mutex
	rollback []snapshotter
}

func (s *serialTx) RunTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	restores := make([]func(), 0, len(s.rollback))
	for _, st := range s.rollback {
		restores = append(restores, st.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// ── In-memory AvailabilityRepository stub ────────────────────────────────────

type stubAvailabilityRepo struct {
	mu      sync.Mutex
	days    map[string]*model.DailyAvailability
	ensured int
	saves   int
}

func newStubAvailabilityRepo() *stubAvailabilityRepo {
	return &stubAvailabilityRepo{days: make(map[string]*model.DailyAvailability)}
}

func key(d time.Time) string { return d.Format(model.DateLayout) }

func (r *stubAvailabilityRepo) EnsureTx(_ *gorm.DB, date time.Time, defaultTotal int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensured++
	if _, ok := r.days[key(date)]; ok {
		return nil
	}
	r.days[key(date)] = &model.DailyAvailability{
		ID:             uuid.New(),
		Date:           date,
		TotalSlots:     defaultTotal,
		AvailableSlots: defaultTotal,
		IsAvailable:    true,
	}
	return nil
}

func (r *stubAvailabilityRepo) FindByDateTx(_ *gorm.DB, date time.Time) (*model.DailyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.days[key(date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubAvailabilityRepo) LockByDateTx(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error) {
	return r.FindByDateTx(tx, date)
}

func (r *stubAvailabilityRepo) SaveTx(_ *gorm.DB, rec *model.DailyAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	cp := *rec
	r.days[key(rec.Date)] = &cp
	return nil
}

func (r *stubAvailabilityRepo) ListRange(_ context.Context, from, to time.Time) ([]model.DailyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DailyAvailability
	for _, d := range r.days {
		if !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubAvailabilityRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.DailyAvailability, len(r.days))
	for k, d := range r.days {
		saved[k] = *d
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.days = make(map[string]*model.DailyAvailability, len(saved))
		for k, d := range saved {
			d := d
			r.days[k] = &d
		}
	}
}

// has reports whether a row exists for date.
func (r *stubAvailabilityRepo) has(date time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.days[key(date)]
	return ok
}

// set seeds a day directly.
func (r *stubAvailabilityRepo) set(date time.Time, total, available int, open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[key(date)] = &model.DailyAvailability{
		ID: uuid.New(), Date: date, TotalSlots: total, AvailableSlots: available, IsAvailable: open,
	}
}

func (r *stubAvailabilityRepo) get(date time.Time) model.DailyAvailability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.days[key(date)]
}

// ── In-memory BookingRepository stub ─────────────────────────────────────────

type stubBookingRepo struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*model.Booking
	failCreate bool
	failUpdate bool
	// onCreate runs inside CreateTx before the row is stored.
	onCreate func()
	// failCountOn makes CountOccupyingTx fail for that date.
	failCountOn string
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (r *stubBookingRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		saved[id] = *b
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.bookings = make(map[uuid.UUID]*model.Booking, len(saved))
		for id, b := range saved {
			b := b
			r.bookings[id] = &b
		}
	}
}

// add seeds a booking directly.
func (r *stubBookingRepo) add(b *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.bookings[b.ID] = &cp
}

func (r *stubBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *stubBookingRepo) CreateTx(_ *gorm.DB, b *model.Booking) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errStubWrite
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *stubBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBookingRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Booking, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubBookingRepo) UpdateTx(_ *gorm.DB, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return errStubWrite
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *stubBookingRepo) List(_ context.Context, filter dto.BookingFilter) ([]model.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Booking
	for _, b := range r.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBookingRepo) CountOccupyingTx(_ *gorm.DB, date time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCountOn == key(date) {
		return 0, errStubWrite
	}
	var n int64
	for _, b := range r.bookings {
		if key(b.Date) == key(date) && model.OccupiesSlot(b.Status) {
			n++
		}
	}
	return n, nil
}

// ── In-memory ProductRepository stub ─────────────────────────────────────────

type stubProductRepo struct {
	mu                sync.Mutex
	products          map[uuid.UUID]*model.Product
	variants          map[uuid.UUID]*model.ProductVariant
	failCreateVariant error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		variants: make(map[uuid.UUID]*model.ProductVariant),
	}
}

func (r *stubProductRepo) CreateProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindProductByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	for _, v := range r.variants {
		if v.ProductID == id {
			cp.Variants = append(cp.Variants, *v)
		}
	}
	return &cp, nil
}

func (r *stubProductRepo) ListProducts(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) CreateVariantTx(_ *gorm.DB, v *model.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateVariant != nil {
		return r.failCreateVariant
	}
	for _, existing := range r.variants {
		if existing.SKU == v.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	r.variants[v.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindVariantByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubProductRepo) ListVariants(_ context.Context, filter dto.VariantFilter) ([]model.ProductVariant, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductVariant
	for _, v := range r.variants {
		if filter.LowStock && !v.IsLowStock() {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListVariantIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.variants))
	for id := range r.variants {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *stubProductRepo) FindVariantForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	return r.FindVariantByID(context.Background(), id)
}

func (r *stubProductRepo) UpdateQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Quantity = quantity
	return nil
}

// addVariant seeds a variant with the given stored quantity and no movements.
func (r *stubProductRepo) addVariant(sku string, quantity int) *model.ProductVariant {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := &model.ProductVariant{
		ID:                uuid.New(),
		ProductID:         uuid.New(),
		SKU:               sku,
		Name:              sku,
		Quantity:          quantity,
		LowStockThreshold: 5,
		Active:            true,
	}
	r.variants[v.ID] = v
	cp := *v
	return &cp
}

func (r *stubProductRepo) quantity(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants[id].Quantity
}

// ── In-memory StockMovementRepository stub ───────────────────────────────────

type stubMovementRepo struct {
	mu         sync.Mutex
	movements  []model.StockMovement
	seq        int64
	failCreate bool
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errStubWrite
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.seq++
	m.Seq = r.seq
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) forVariant(id uuid.UUID) []model.StockMovement {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductVariantID == id {
			out = append(out, m)
		}
	}
	return out
}

func (r *stubMovementRepo) ListByVariant(_ context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.forVariant(variantID)
	// newest first: reverse insertion order
	out := make([]model.StockMovement, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubMovementRepo) List(_ context.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.Reason != "" && m.Reason != filter.Reason {
			continue
		}
		if filter.ReferenceID != "" && m.ReferenceID != filter.ReferenceID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) Totals(_ context.Context, variantID uuid.UUID) (repository.MovementTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t repository.MovementTotals
	for _, m := range r.forVariant(variantID) {
		t.Count++
		if m.ChangeAmount > 0 {
			t.TotalIn += int64(m.ChangeAmount)
		} else {
			t.TotalOut += int64(-m.ChangeAmount)
		}
	}
	return t, nil
}

func (r *stubMovementRepo) SumChangesTx(_ *gorm.DB, variantID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, m := range r.forVariant(variantID) {
		sum += m.ChangeAmount
	}
	return sum, nil
}

func (r *stubMovementRepo) all(variantID uuid.UUID) []model.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forVariant(variantID)
}

// ── In-memory InvoiceRepository stub ─────────────────────────────────────────

type stubInvoiceRepo struct {
	mu         sync.Mutex
	invoices   map[uuid.UUID]*model.Invoice
	failCreate bool
	// afterFind runs after FindByID returned an invoice.
	afterFind func()
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errStubWrite
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	inv, ok := r.invoices[id]
	if !ok {
		r.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	r.mu.Unlock()
	if r.afterFind != nil {
		r.afterFind()
	}
	return &cp, nil
}

func (r *stubInvoiceRepo) MarkVoid(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.Status != model.InvoiceIssued {
		return false, nil
	}
	inv.Status = model.InvoiceVoid
	inv.VoidReason = &reason
	return true, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

// ── Recording EventPublisher / JobDispatcher ─────────────────────────────────

type recordingEvents struct {
	mu    sync.Mutex
	moved []model.StockMovement
	slots []string
}

func (e *recordingEvents) StockMoved(_ context.Context, m *model.StockMovement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moved = append(e.moved, *m)
}

func (e *recordingEvents) SlotChanged(_ context.Context, action string, date time.Time, _ *model.DailyAvailability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slots = append(e.slots, action+":"+key(date))
}

type recordingJobs struct {
	mu     sync.Mutex
	alerts []string
	syncs  [][]time.Time
}

func (j *recordingJobs) EnqueueAvailabilitySync(_ context.Context, dates []time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.syncs = append(j.syncs, dates)
	return nil
}

func (j *recordingJobs) EnqueueStockAlert(_ context.Context, v *model.ProductVariant) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.alerts = append(j.alerts, v.SKU)
	return nil
}

// day returns a UTC date n days from today.
func day(n int) time.Time {
	return model.NormalizeDate(time.Now()).AddDate(0, 0, n)
}
