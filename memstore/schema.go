package memstore

import (
	"time"

	"github.com/hashicorp/go-memdb"

	"railway-booking/models"
)

const (
	tableTrains   = "trains"
	tableBookings = "bookings"
	tableUsers    = "users"

	indexID        = "id"
	indexNumber    = "number"
	indexTrain     = "train"
	indexTrainSeat = "train_seat"
	indexUserTrain = "user_train"
	indexUser      = "user"
)

// Records are stored by pointer and never mutated after insert; updates
// insert a fresh copy.
type trainRecord struct {
	ID                 int64
	Number             string
	Name               string
	SourceStation      string
	DestinationStation string
	TotalSeats         int
	AvailableSeats     int
	Version            int64
	CreatedAt          time.Time
}

type bookingRecord struct {
	ID         string
	UserID     int64
	TrainID    int64
	SeatNumber int64
	Status     string
	CreatedAt  time.Time
	Seq        int64
}

type userRecord struct {
	ID        int64
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableTrains: {
				Name: tableTrains,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					indexNumber: {
						Name:    indexNumber,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Number"},
					},
				},
			},
			tableBookings: {
				Name: tableBookings,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
					indexTrain: {
						Name:    indexTrain,
						Indexer: &memdb.IntFieldIndex{Field: "TrainID"},
					},
					// memdb does not reject duplicate keys on unique
					// indexes; commit checks this one explicitly.
					indexTrainSeat: {
						Name:   indexTrainSeat,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.IntFieldIndex{Field: "TrainID"},
								&memdb.IntFieldIndex{Field: "SeatNumber"},
							},
						},
					},
					indexUserTrain: {
						Name: indexUserTrain,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.IntFieldIndex{Field: "UserID"},
								&memdb.IntFieldIndex{Field: "TrainID"},
							},
						},
					},
					indexUser: {
						Name:    indexUser,
						Indexer: &memdb.IntFieldIndex{Field: "UserID"},
					},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

func (r *trainRecord) model() *models.Train {
	return &models.Train{
		ID:                 r.ID,
		Number:             r.Number,
		Name:               r.Name,
		SourceStation:      r.SourceStation,
		DestinationStation: r.DestinationStation,
		TotalSeats:         r.TotalSeats,
		AvailableSeats:     r.AvailableSeats,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
	}
}

func (r *userRecord) model() *models.User {
	return &models.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Role:      models.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}
