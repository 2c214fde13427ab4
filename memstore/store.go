// Package memstore is an in-process store.Store built on go-memdb. It has no
// row locks; LockTrain records the train version seen in a snapshot and
// Commit applies the staged writes only if that version is unchanged.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"railway-booking/models"
	"railway-booking/store"
)

// Store is safe for concurrent use
type Store struct {
	db       *memdb.MemDB
	trainSeq atomic.Int64
	userSeq  atomic.Int64
	// bookingSeq orders bookings committed within the same clock tick
	bookingSeq atomic.Int64
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Begin opens a snapshot; writes are staged until Commit
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{
		store:  s,
		read:   s.db.Txn(false),
		locked: make(map[int64]int64),
	}, nil
}

// AddUser registers identity provider reference data
func (s *Store) AddUser(u models.User) (*models.User, error) {
	if u.ID == 0 {
		u.ID = s.userSeq.Add(1)
	}
	if u.Role == "" {
		u.Role = models.RoleRider
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	rec := &userRecord{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if err := txn.Insert(tableUsers, rec); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	txn.Commit()

	return rec.model(), nil
}

// CreateTrain inserts a train with every seat available
func (s *Store) CreateTrain(ctx context.Context, t models.NewTrain) (*models.Train, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableTrains, indexNumber, t.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to check train number: %w", err)
	}
	if existing != nil {
		return nil, store.ErrDuplicateTrainNumber
	}

	rec := &trainRecord{
		ID:                 s.trainSeq.Add(1),
		Number:             t.Number,
		Name:               t.Name,
		SourceStation:      t.SourceStation,
		DestinationStation: t.DestinationStation,
		TotalSeats:         t.TotalSeats,
		AvailableSeats:     t.TotalSeats,
		CreatedAt:          s.now(),
	}
	if err := txn.Insert(tableTrains, rec); err != nil {
		return nil, fmt.Errorf("failed to insert train: %w", err)
	}
	txn.Commit()

	return rec.model(), nil
}

// GetTrain reads the latest committed train
func (s *Store) GetTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := firstTrain(s.db.Txn(false), trainID)
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// FindTrainsByRoute matches stations case-insensitively, ordered by name
func (s *Store) FindTrainsByRoute(ctx context.Context, source, destination string) ([]models.Train, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	it, err := s.db.Txn(false).Get(tableTrains, indexID)
	if err != nil {
		return nil, fmt.Errorf("error querying trains: %w", err)
	}

	var trains []models.Train
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*trainRecord)
		if strings.EqualFold(rec.SourceStation, source) && strings.EqualFold(rec.DestinationStation, destination) {
			trains = append(trains, *rec.model())
		}
	}

	sort.SliceStable(trains, func(i, j int) bool {
		return trains[i].Name < trains[j].Name
	})
	return trains, nil
}

// GetBookingView returns the booking only when it belongs to userID
func (s *Store) GetBookingView(ctx context.Context, bookingID uuid.UUID, userID int64) (*models.BookingView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.Txn(false)
	raw, err := txn.First(tableBookings, indexID, bookingID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	b := raw.(*bookingRecord)
	if b.UserID != userID {
		return nil, store.ErrNotFound
	}

	train, err := firstTrain(txn, b.TrainID)
	if err != nil {
		return nil, err
	}
	user, err := firstUser(txn, b.UserID)
	if err != nil {
		return nil, err
	}

	view := bookingView(b, train)
	view.Passenger = &models.Passenger{Username: user.Username, Email: user.Email}
	return &view, nil
}

// ListBookingViews returns the user's bookings newest first
func (s *Store) ListBookingViews(ctx context.Context, userID int64) ([]models.BookingView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.Txn(false)
	it, err := txn.Get(tableBookings, indexUser, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}

	var records []*bookingRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		records = append(records, raw.(*bookingRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Seq > records[j].Seq
	})

	views := make([]models.BookingView, 0, len(records))
	for _, b := range records {
		train, err := firstTrain(txn, b.TrainID)
		if err != nil {
			return nil, err
		}
		views = append(views, bookingView(b, train))
	}
	return views, nil
}

// GetUser loads a user row
func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := firstUser(s.db.Txn(false), userID)
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

func firstTrain(txn *memdb.Txn, trainID int64) (*trainRecord, error) {
	raw, err := txn.First(tableTrains, indexID, trainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get train: %w", err)
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	return raw.(*trainRecord), nil
}

func firstUser(txn *memdb.Txn, userID int64) (*userRecord, error) {
	raw, err := txn.First(tableUsers, indexID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	return raw.(*userRecord), nil
}

func bookingView(b *bookingRecord, t *trainRecord) models.BookingView {
	return models.BookingView{
		BookingID:  uuid.MustParse(b.ID),
		Train:      t.model().Summary(),
		SeatNumber: int(b.SeatNumber),
		Status:     models.BookingStatus(b.Status),
		BookedAt:   b.CreatedAt,
	}
}
