package database

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/reservation"
)

const reservationColumns = `id, student_id, coach_id, course_id, session_date, session_time, status, created_at, updated_at`

type reservationRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CoachID   string    `db:"coach_id"`
	CourseID  string    `db:"course_id"`
	Date      string    `db:"session_date"`
	Time      string    `db:"session_time"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newReservationRow(r reservation.Reservation) reservationRow {
	return reservationRow{
		ID:        r.ID,
		StudentID: r.StudentID,
		CoachID:   r.CoachID,
		CourseID:  r.CourseID,
		Date:      r.Date,
		Time:      r.Time,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (r reservationRow) reservation() reservation.Reservation {
	return reservation.Reservation{
		ID:        r.ID,
		StudentID: r.StudentID,
		CoachID:   r.CoachID,
		CourseID:  r.CourseID,
		Date:      r.Date,
		Time:      r.Time,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type reservationRepository struct {
	db *sqlx.DB
}

var _ reservation.Repository = (*reservationRepository)(nil)

func NewReservationRepository(db *sqlx.DB) reservation.Repository {
	return &reservationRepository{db: db}
}

func (repo *reservationRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (repo *reservationRepository) CreateReservation(r reservation.Reservation) (reservation.Reservation, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	q := `INSERT INTO reservations (` + reservationColumns + `)
		VALUES (:id, :student_id, :coach_id, :course_id, :session_date, :session_time, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newReservationRow(r)); err != nil {
		return reservation.Reservation{}, errors.Wrap(err, "inserting reservation")
	}
	return r, nil
}

func (repo *reservationRepository) selectReservations(where string, args ...interface{}) ([]reservation.Reservation, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY session_date, session_time, id`

	var rows []reservationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting reservations")
	}
	list := make([]reservation.Reservation, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.reservation())
	}
	return list, nil
}

func (repo *reservationRepository) QueryReservations(filter reservation.QueryFilter) ([]reservation.Reservation, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, filter.Status)
	}
	if filter.StudentID != "" {
		conds = append(conds, `student_id = ?`)
		args = append(args, filter.StudentID)
	}
	if filter.CoachID != "" {
		conds = append(conds, `coach_id = ?`)
		args = append(args, filter.CoachID)
	}
	return repo.selectReservations(strings.Join(conds, ` AND `), args...)
}

func (repo *reservationRepository) GetReservationByID(id string) (reservation.Reservation, error) {
	list, err := repo.selectReservations(`id = ?`, id)
	if err != nil {
		return reservation.Reservation{}, err
	}
	if len(list) == 0 {
		return reservation.Reservation{}, reservation.ErrNotFound
	}
	return list[0], nil
}

func (repo *reservationRepository) UpdateReservation(r reservation.Reservation) (reservation.Reservation, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	q := `UPDATE reservations SET student_id = :student_id, coach_id = :coach_id, course_id = :course_id,
		session_date = :session_date, session_time = :session_time, status = :status, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newReservationRow(r))
	if err != nil {
		return reservation.Reservation{}, errors.Wrap(err, "updating reservation")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// mysql reports 0 for unchanged rows
		if _, err := repo.GetReservationByID(r.ID); err != nil {
			return reservation.Reservation{}, err
		}
	}
	return r, nil
}
