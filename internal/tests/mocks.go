package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// ──────────────────────────────────────────────
// IN-MEMORY STORE
// ──────────────────────────────────────────────

// Store is an in-memory database shared by the mock repositories. It enforces
// the same uniqueness and reference rules as the PostgreSQL schema.
type Store struct {
	mu sync.Mutex

	nextID int64

	locations map[int64]*domain.Location
	routes    map[int64]*domain.Route
	buses     map[int64]*domain.Bus
	seats     map[int64]*domain.Seat
	trips     map[int64]*domain.Trip
	bookings  map[string]*domain.Booking
	tickets   map[int64]*domain.Ticket
	payments  map[string]*domain.Payment
	wallets   map[string]*domain.Wallet
	walletTxs []*domain.WalletTransaction
	users     map[string]*domain.User
	sessions  map[string]*domain.Session

	// Error injection
	PaymentCreateError error
	// RenameError fails every passenger rename after the first RenameErrorAfter.
	RenameError      error
	RenameErrorAfter int
	renames          int

	// AfterSessionTouch runs once a session touch is stored.
	AfterSessionTouch func(key string)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		locations: make(map[int64]*domain.Location),
		routes:    make(map[int64]*domain.Route),
		buses:     make(map[int64]*domain.Bus),
		seats:     make(map[int64]*domain.Seat),
		trips:     make(map[int64]*domain.Trip),
		bookings:  make(map[string]*domain.Booking),
		tickets:   make(map[int64]*domain.Ticket),
		payments:  make(map[string]*domain.Payment),
		wallets:   make(map[string]*domain.Wallet),
		users:     make(map[string]*domain.User),
		sessions:  make(map[string]*domain.Session),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// snapshot deep-copies every table. Callers hold s.mu.
func (s *Store) snapshot() *Store {
	c := NewStore()
	c.nextID = s.nextID
	for k, v := range s.locations {
		cp := *v
		c.locations[k] = &cp
	}
	for k, v := range s.routes {
		cp := *v
		c.routes[k] = &cp
	}
	for k, v := range s.buses {
		cp := *v
		c.buses[k] = &cp
	}
	for k, v := range s.seats {
		cp := *v
		c.seats[k] = &cp
	}
	for k, v := range s.trips {
		cp := *v
		c.trips[k] = &cp
	}
	for k, v := range s.bookings {
		cp := *v
		c.bookings[k] = &cp
	}
	for k, v := range s.tickets {
		cp := *v
		c.tickets[k] = &cp
	}
	for k, v := range s.payments {
		cp := *v
		c.payments[k] = &cp
	}
	for k, v := range s.wallets {
		cp := *v
		c.wallets[k] = &cp
	}
	for _, v := range s.walletTxs {
		cp := *v
		c.walletTxs = append(c.walletTxs, &cp)
	}
	for k, v := range s.users {
		cp := *v
		c.users[k] = &cp
	}
	for k, v := range s.sessions {
		cp := *v
		c.sessions[k] = &cp
	}
	return c
}

// restore replaces every table with those of snap. Callers hold s.mu.
func (s *Store) restore(snap *Store) {
	s.nextID = snap.nextID
	s.locations = snap.locations
	s.routes = snap.routes
	s.buses = snap.buses
	s.seats = snap.seats
	s.trips = snap.trips
	s.bookings = snap.bookings
	s.tickets = snap.tickets
	s.payments = snap.payments
	s.wallets = snap.wallets
	s.walletTxs = snap.walletTxs
	s.users = snap.users
	s.sessions = snap.sessions
}

// Repos returns repositories bound to the store.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Buses:    &MockBusRepository{s: s},
		Seats:    &MockSeatRepository{s: s},
		Trips:    &MockTripRepository{s: s},
		Bookings: &MockBookingRepository{s: s},
		Tickets:  &MockTicketRepository{s: s},
		Payments: &MockPaymentRepository{s: s},
		Wallets:  &MockWalletRepository{s: s},
	}
}

func (s *Store) Locations() *MockLocationRepository { return &MockLocationRepository{s: s} }
func (s *Store) Routes() *MockRouteRepository       { return &MockRouteRepository{s: s} }
func (s *Store) Buses() *MockBusRepository          { return &MockBusRepository{s: s} }
func (s *Store) Seats() *MockSeatRepository         { return &MockSeatRepository{s: s} }
func (s *Store) Trips() *MockTripRepository         { return &MockTripRepository{s: s} }
func (s *Store) Bookings() *MockBookingRepository   { return &MockBookingRepository{s: s} }
func (s *Store) Tickets() *MockTicketRepository     { return &MockTicketRepository{s: s} }
func (s *Store) Payments() *MockPaymentRepository   { return &MockPaymentRepository{s: s} }
func (s *Store) Wallets() *MockWalletRepository     { return &MockWalletRepository{s: s} }
func (s *Store) Users() *MockUserRepository         { return &MockUserRepository{s: s} }
func (s *Store) Sessions() *MockSessionRepository   { return &MockSessionRepository{s: s} }

// CountBookings returns the number of stored bookings.
func (s *Store) CountBookings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// CountTickets returns the number of stored tickets.
func (s *Store) CountTickets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// CountPayments returns the number of stored payments.
func (s *Store) CountPayments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// ActiveTickets returns the active tickets of a trip.
func (s *Store) ActiveTickets(tripID int64) []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.TripID == tripID && t.Active {
			out = append(out, *t)
		}
	}
	return out
}

// PaymentsOf returns the payments of a booking.
func (s *Store) PaymentsOf(bookingID string) []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payment
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	return out
}

// SetTripDeparture moves a trip's schedule, e.g. into the past.
func (s *Store) SetTripDeparture(tripID int64, departure time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trips[tripID]; ok {
		t.DepartureTime = departure
		t.ArrivalTime = departure.Add(3 * time.Hour)
	}
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs units of work one at a time against the store and
// restores the pre-transaction state when fn fails.
type MockTransactor struct {
	s  *Store
	mu sync.Mutex

	// Counters for verification
	CommitCount   int32
	RollbackCount int32
}

// NewMockTransactor creates a transactor over the store.
func NewMockTransactor(s *Store) *MockTransactor {
	return &MockTransactor{s: s}
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.mu.Lock()
	snap := m.s.snapshot()
	m.s.mu.Unlock()

	if err := fn(ctx, m.s.Repos()); err != nil {
		m.s.mu.Lock()
		m.s.restore(snap)
		m.s.mu.Unlock()
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}
	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CATALOG REPOSITORIES
// ──────────────────────────────────────────────

// MockLocationRepository is a mock implementation of LocationRepository.
type MockLocationRepository struct{ s *Store }

func (m *MockLocationRepository) Create(ctx context.Context, location *domain.Location) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	location.ID = m.s.id()
	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now()
	}
	cp := *location
	m.s.locations[location.ID] = &cp
	return nil
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id int64) (*domain.Location, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockLocationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]*domain.Location, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Location
	for _, l := range m.s.locations {
		if !containsFold(l.Name, filter.Name) || !containsFold(l.City, filter.City) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockLocationRepository) Update(ctx context.Context, location *domain.Location) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.locations[location.ID]
	if !ok {
		return repository.ErrNotFound
	}
	l.Name, l.City = location.Name, location.City
	return nil
}

func (m *MockLocationRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.locations[id]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range m.s.routes {
		if r.StartLocationID == id || r.EndLocationID == id {
			return repository.ErrReferenced
		}
	}
	delete(m.s.locations, id)
	return nil
}

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct{ s *Store }

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.locations[route.StartLocationID] == nil || m.s.locations[route.EndLocationID] == nil {
		return repository.ErrNotFound
	}
	route.ID = m.s.id()
	cp := *route
	m.s.routes[route.ID] = &cp
	return nil
}

// joinRoute fills the route's locations. Callers hold s.mu.
func (s *Store) joinRoute(r domain.Route) domain.Route {
	if l, ok := s.locations[r.StartLocationID]; ok {
		r.StartLocation = *l
	}
	if l, ok := s.locations[r.EndLocationID]; ok {
		r.EndLocation = *l
	}
	return r
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	joined := m.s.joinRoute(*r)
	return &joined, nil
}

func (m *MockRouteRepository) List(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Route
	for _, r := range m.s.routes {
		if filter.StartLocationID != 0 && r.StartLocationID != filter.StartLocationID {
			continue
		}
		if filter.EndLocationID != 0 && r.EndLocationID != filter.EndLocationID {
			continue
		}
		joined := m.s.joinRoute(*r)
		out = append(out, &joined)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRouteRepository) Update(ctx context.Context, route *domain.Route) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.routes[route.ID]
	if !ok {
		return repository.ErrNotFound
	}
	r.StartLocationID, r.EndLocationID, r.DistanceKm = route.StartLocationID, route.EndLocationID, route.DistanceKm
	return nil
}

func (m *MockRouteRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.routes[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range m.s.trips {
		if t.RouteID == id {
			return repository.ErrReferenced
		}
	}
	delete(m.s.routes, id)
	return nil
}

// MockBusRepository is a mock implementation of BusRepository.
type MockBusRepository struct{ s *Store }

func (m *MockBusRepository) Create(ctx context.Context, bus *domain.Bus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, b := range m.s.buses {
		if b.LicensePlate == bus.LicensePlate {
			return repository.ErrConflict
		}
	}
	bus.ID = m.s.id()
	cp := *bus
	m.s.buses[bus.ID] = &cp
	return nil
}

func (m *MockBusRepository) GetByID(ctx context.Context, id int64) (*domain.Bus, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.buses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBusRepository) List(ctx context.Context, filter repository.BusFilter) ([]*domain.Bus, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Bus
	for _, b := range m.s.buses {
		if !containsFold(b.LicensePlate, filter.LicensePlate) || !containsFold(b.Model, filter.Model) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicensePlate < out[j].LicensePlate })
	return out, nil
}

func (m *MockBusRepository) Update(ctx context.Context, bus *domain.Bus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.buses[bus.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range m.s.buses {
		if other.ID != bus.ID && other.LicensePlate == bus.LicensePlate {
			return repository.ErrConflict
		}
	}
	*b = *bus
	return nil
}

func (m *MockBusRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.buses[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range m.s.trips {
		if t.BusID == id {
			return repository.ErrReferenced
		}
	}
	for seatID, seat := range m.s.seats {
		if seat.BusID == id {
			delete(m.s.seats, seatID)
		}
	}
	delete(m.s.buses, id)
	return nil
}

// MockSeatRepository is a mock implementation of SeatRepository.
type MockSeatRepository struct{ s *Store }

// insertSeat stores a seat unless its number is taken on the bus. Callers hold s.mu.
func (s *Store) insertSeat(seat *domain.Seat) error {
	if s.buses[seat.BusID] == nil {
		return repository.ErrNotFound
	}
	for _, other := range s.seats {
		if other.BusID == seat.BusID && other.SeatNumber == seat.SeatNumber {
			return repository.ErrConflict
		}
	}
	seat.ID = s.id()
	cp := *seat
	s.seats[seat.ID] = &cp
	return nil
}

func (m *MockSeatRepository) Create(ctx context.Context, seat *domain.Seat) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.insertSeat(seat)
}

func (m *MockSeatRepository) CreateBatch(ctx context.Context, seats []*domain.Seat) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, seat := range seats {
		if err := m.s.insertSeat(seat); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	seat, ok := m.s.seats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *seat
	return &cp, nil
}

// GetForUpdate relies on MockTransactor running one transaction at a time.
func (m *MockSeatRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Seat, error) {
	return m.GetByID(ctx, id)
}

func (m *MockSeatRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Seat
	for _, id := range ids {
		if seat, ok := m.s.seats[id]; ok {
			cp := *seat
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSeatRepository) List(ctx context.Context, filter repository.SeatFilter) ([]*domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Seat
	for _, seat := range m.s.seats {
		if filter.BusID != 0 && seat.BusID != filter.BusID {
			continue
		}
		if filter.IsAvailable != nil && seat.IsAvailable != *filter.IsAvailable {
			continue
		}
		cp := *seat
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (m *MockSeatRepository) Update(ctx context.Context, seat *domain.Seat) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.seats[seat.ID]
	if !ok {
		return repository.ErrNotFound
	}
	*existing = *seat
	return nil
}

func (m *MockSeatRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.seats[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range m.s.tickets {
		if t.SeatID == id {
			return repository.ErrReferenced
		}
	}
	delete(m.s.seats, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct{ s *Store }

// joinTrip fills the trip's route and bus. Callers hold s.mu.
func (s *Store) joinTrip(t domain.Trip) domain.Trip {
	if r, ok := s.routes[t.RouteID]; ok {
		t.Route = s.joinRoute(*r)
	}
	if b, ok := s.buses[t.BusID]; ok {
		t.Bus = *b
	}
	return t
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.routes[trip.RouteID] == nil || m.s.buses[trip.BusID] == nil {
		return repository.ErrNotFound
	}
	trip.ID = m.s.id()
	cp := *trip
	m.s.trips[trip.ID] = &cp
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	joined := m.s.joinTrip(*t)
	return &joined, nil
}

// GetForUpdate relies on MockTransactor running one transaction at a time.
func (m *MockTripRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Trip
	for _, t := range m.s.trips {
		if filter.RouteID != 0 && t.RouteID != filter.RouteID {
			continue
		}
		if filter.BusID != 0 && t.BusID != filter.BusID {
			continue
		}
		if !filter.DepartsAfter.IsZero() && !t.DepartureTime.After(filter.DepartsAfter) {
			continue
		}
		joined := m.s.joinTrip(*t)
		out = append(out, &joined)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.After(out[j].DepartureTime) })
	return out, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.RouteID, t.BusID = trip.RouteID, trip.BusID
	t.DepartureTime, t.ArrivalTime = trip.DepartureTime, trip.ArrivalTime
	t.PricePerSeat = trip.PricePerSeat
	return nil
}

func (m *MockTripRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.trips[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range m.s.bookings {
		if b.TripID == id {
			return repository.ErrReferenced
		}
	}
	delete(m.s.trips, id)
	return nil
}

func (m *MockTripRepository) Availability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.trips[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := &domain.SeatAvailability{TripID: tripID}
	if b, ok := m.s.buses[t.BusID]; ok {
		a.TotalSeats = b.TotalSeats
	}
	for _, tk := range m.s.tickets {
		if tk.TripID == tripID && tk.Active {
			a.Occupied++
		}
	}
	return a, nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING AND TICKET REPOSITORIES
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct{ s *Store }

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.bookings[booking.ID]; exists {
		return repository.ErrConflict
	}
	if m.s.trips[booking.TripID] == nil {
		return repository.ErrNotFound
	}
	cp := *booking
	cp.Trip = domain.Trip{}
	m.s.bookings[booking.ID] = &cp
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	if t, ok := m.s.trips[b.TripID]; ok {
		cp.Trip = m.s.joinTrip(*t)
	}
	return &cp, nil
}

func (m *MockBookingRepository) GetForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *MockBookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Booking
	for _, b := range m.s.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.TripID != 0 && b.TripID != filter.TripID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		cp := *b
		if t, ok := m.s.trips[b.TripID]; ok {
			cp.Trip = m.s.joinTrip(*t)
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	return out, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *MockBookingRepository) Statistics(ctx context.Context) (*domain.BookingStatistics, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stats := &domain.BookingStatistics{Total: len(m.s.bookings)}
	for _, b := range m.s.bookings {
		switch b.Status {
		case domain.BookingStatusPending:
			stats.Pending++
		case domain.BookingStatusConfirmed:
			stats.Confirmed++
		case domain.BookingStatusCanceled:
			stats.Canceled++
		}
	}
	return stats, nil
}

// MockTicketRepository is a mock implementation of TicketRepository.
// At most one active ticket may exist per trip and seat.
type MockTicketRepository struct{ s *Store }

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*domain.Ticket) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range tickets {
		for _, other := range m.s.tickets {
			if other.Active && other.TripID == t.TripID && other.SeatID == t.SeatID {
				return repository.ErrConflict
			}
		}
		t.ID = m.s.id()
		t.Active = true
		cp := *t
		m.s.tickets[t.ID] = &cp
	}
	return nil
}

// joinTicket fills the seat number. Callers hold s.mu.
func (s *Store) joinTicket(t domain.Ticket) domain.Ticket {
	if seat, ok := s.seats[t.SeatID]; ok {
		t.SeatNumber = seat.SeatNumber
	}
	return t
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	joined := m.s.joinTicket(*t)
	return &joined, nil
}

func (m *MockTicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Ticket
	for _, t := range m.s.tickets {
		if filter.BookingID != "" && t.BookingID != filter.BookingID {
			continue
		}
		if filter.TripID != 0 && t.TripID != filter.TripID {
			continue
		}
		if filter.UserID != "" {
			b, ok := m.s.bookings[t.BookingID]
			if !ok || b.UserID != filter.UserID {
				continue
			}
		}
		joined := m.s.joinTicket(*t)
		out = append(out, &joined)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockTicketRepository) BookedSeatIDs(ctx context.Context, tripID int64, seatIDs []int64) ([]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	wanted := make(map[int64]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	var out []int64
	for _, t := range m.s.tickets {
		if !t.Active || t.TripID != tripID {
			continue
		}
		if len(seatIDs) > 0 && !wanted[t.SeatID] {
			continue
		}
		out = append(out, t.SeatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *MockTicketRepository) HasActiveForSeat(ctx context.Context, seatID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range m.s.tickets {
		if t.Active && t.SeatID == seatID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTicketRepository) DeactivateByBooking(ctx context.Context, bookingID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range m.s.tickets {
		if t.BookingID == bookingID {
			t.Active = false
		}
	}
	return nil
}

func (m *MockTicketRepository) UpdatePassengerName(ctx context.Context, id int64, name string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.s.RenameError != nil && m.s.renames >= m.s.RenameErrorAfter {
		return m.s.RenameError
	}
	m.s.renames++
	t.PassengerName = name
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct{ s *Store }

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.PaymentCreateError != nil {
		return m.s.PaymentCreateError
	}
	for _, p := range m.s.payments {
		if p.TransactionCode == payment.TransactionCode {
			return repository.ErrConflict
		}
	}
	cp := *payment
	m.s.payments[payment.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.s.payments {
		if filter.BookingID != "" && p.BookingID != filter.BookingID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentTime.After(out[j].PaymentTime) })
	return out, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[payment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Method, p.Status, p.CompletedAt = payment.Method, payment.Status, payment.CompletedAt
	return nil
}

func (m *MockPaymentRepository) FailPendingByBooking(ctx context.Context, bookingID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.BookingID == bookingID && p.Status == domain.PaymentStatusPending {
			p.Status = domain.PaymentStatusFailed
		}
	}
	return nil
}

func (m *MockPaymentRepository) Statistics(ctx context.Context) (*domain.PaymentStatistics, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stats := &domain.PaymentStatistics{Total: len(m.s.payments)}
	for _, p := range m.s.payments {
		switch p.Status {
		case domain.PaymentStatusPending:
			stats.Pending++
		case domain.PaymentStatusCompleted:
			stats.Completed++
			stats.TotalRevenue += p.Amount
		case domain.PaymentStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct{ s *Store }

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, w := range m.s.wallets {
		if w.UserID == wallet.UserID {
			return repository.ErrConflict
		}
	}
	cp := *wallet
	m.s.wallets[wallet.ID] = &cp
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.wallets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, w := range m.s.wallets {
		if w.UserID == userID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	return m.GetByUserID(ctx, userID)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, id string, balance int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.wallets[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.Balance = balance
	w.UpdatedAt = time.Now()
	return nil
}

func (m *MockWalletRepository) AddTransaction(ctx context.Context, entry *domain.WalletTransaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.wallets[entry.WalletID]; !ok {
		return repository.ErrNotFound
	}
	cp := *entry
	m.s.walletTxs = append(m.s.walletTxs, &cp)
	return nil
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, walletID string, limit int) ([]*domain.WalletTransaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.WalletTransaction
	for i := len(m.s.walletTxs) - 1; i >= 0 && len(out) < limit; i-- {
		if e := m.s.walletTxs[i]; e.WalletID == walletID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK USER AND SESSION REPOSITORIES
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct{ s *Store }

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	cp := *user
	m.s.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, username string, role domain.UserRole) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == username {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	s *Store

	TouchCallCount int32
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.sessions[session.SessionKey]; exists {
		return repository.ErrConflict
	}
	cp := *session
	m.s.sessions[session.SessionKey] = &cp
	return nil
}

func (m *MockSessionRepository) GetByKey(ctx context.Context, key string) (*domain.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sess, ok := m.s.sessions[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MockSessionRepository) Touch(ctx context.Context, key string, at time.Time) error {
	atomic.AddInt32(&m.TouchCallCount, 1)
	m.s.mu.Lock()
	sess, ok := m.s.sessions[key]
	if !ok {
		m.s.mu.Unlock()
		return repository.ErrNotFound
	}
	sess.LastActivity = at
	hook := m.s.AfterSessionTouch
	m.s.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	return nil
}

func (m *MockSessionRepository) Deactivate(ctx context.Context, key string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sess, ok := m.s.sessions[key]
	if !ok {
		return repository.ErrNotFound
	}
	sess.IsActive = false
	return nil
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Ensure mocks implement the repository interfaces.
var (
	_ repository.Transactor         = (*MockTransactor)(nil)
	_ repository.LocationRepository = (*MockLocationRepository)(nil)
	_ repository.RouteRepository    = (*MockRouteRepository)(nil)
	_ repository.BusRepository      = (*MockBusRepository)(nil)
	_ repository.SeatRepository     = (*MockSeatRepository)(nil)
	_ repository.TripRepository     = (*MockTripRepository)(nil)
	_ repository.BookingRepository  = (*MockBookingRepository)(nil)
	_ repository.TicketRepository   = (*MockTicketRepository)(nil)
	_ repository.PaymentRepository  = (*MockPaymentRepository)(nil)
	_ repository.WalletRepository   = (*MockWalletRepository)(nil)
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.SessionRepository  = (*MockSessionRepository)(nil)
)
