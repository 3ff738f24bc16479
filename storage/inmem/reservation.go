package inmemdb

import (
	"sort"
	"sync"

	"github.com/trezcool/atlantis/core/reservation"
)

type reservationTable struct {
	mutex sync.RWMutex
	table map[string]reservation.Reservation
}

type reservationRepository struct {
	db *reservationTable
}

var _ reservation.Repository = (*reservationRepository)(nil)

func NewReservationRepository(db *DB) reservation.Repository {
	return &reservationRepository{db: db.reservation}
}

func (repo *reservationRepository) CreateReservation(r reservation.Reservation) (reservation.Reservation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[r.ID] = r
	return r, nil
}

// QueryReservations orders by date, time, then id.
func (repo *reservationRepository) QueryReservations(filter reservation.QueryFilter) ([]reservation.Reservation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]reservation.Reservation, 0)
	for _, r := range repo.db.table {
		if filter.Match(r) {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
	return list, nil
}

func (repo *reservationRepository) GetReservationByID(id string) (reservation.Reservation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return r, nil
	}
	return reservation.Reservation{}, reservation.ErrNotFound
}

func (repo *reservationRepository) UpdateReservation(r reservation.Reservation) (reservation.Reservation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[r.ID]; !ok {
		return reservation.Reservation{}, reservation.ErrNotFound
	}
	repo.db.table[r.ID] = r
	return r, nil
}
