package reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("reservation not found")

	// field error texts
	notStudentText = "user is not an active student"
	notCoachText   = "user is not an active coach"
)

type (
	Repository interface {
		CreateReservation(r Reservation) (Reservation, error)
		// QueryReservations returns the reservations matching filter, by date and time.
		QueryReservations(filter QueryFilter) ([]Reservation, error)
		GetReservationByID(id string) (Reservation, error)
		UpdateReservation(r Reservation) (Reservation, error)
	}

	// Directory looks users up; *user.Service is one.
	Directory interface {
		GetByID(id string) (user.User, error)
	}

	Service struct {
		repo  Repository
		users Directory
		now   func() time.Time
	}
)

var _ Directory = (*user.Service)(nil)

func NewService(repo Repository, users Directory) *Service {
	return &Service{repo: repo, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// checkMember reports a field error unless id is an active user with role.
func (svc *Service) checkMember(id, role, field, text string) (*core.FieldError, error) {
	usr, err := svc.users.GetByID(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return &core.FieldError{Field: field, Error: text}, nil
		}
		return nil, err
	}
	if usr.Role != role || !usr.IsActive {
		return &core.FieldError{Field: field, Error: text}, nil
	}
	return nil, nil
}

// Create books an upcoming session. nr must have been validated.
func (svc *Service) Create(nr NewReservation) (Reservation, error) {
	var flds []core.FieldError
	for _, m := range []struct{ id, role, field, text string }{
		{nr.StudentID, user.RoleStudent, "student_id", notStudentText},
		{nr.CoachID, user.RoleCoach, "coach_id", notCoachText},
	} {
		fe, err := svc.checkMember(m.id, m.role, m.field, m.text)
		if err != nil {
			return Reservation{}, err
		}
		if fe != nil {
			flds = append(flds, *fe)
		}
	}
	if len(flds) > 0 {
		return Reservation{}, core.NewValidationError(nil, flds...)
	}

	now := svc.now()
	return svc.repo.CreateReservation(Reservation{
		ID:        uuid.NewString(),
		StudentID: nr.StudentID,
		CoachID:   nr.CoachID,
		CourseID:  nr.CourseID,
		Date:      nr.Date,
		Time:      nr.Time,
		Status:    StatusUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Query(filter QueryFilter) ([]Reservation, error) {
	filter.Clean()
	return svc.repo.QueryReservations(filter)
}

func (svc *Service) GetByID(id string) (Reservation, error) {
	return svc.repo.GetReservationByID(id)
}

// SetStatus moves a reservation to status. Any status may follow any other.
func (svc *Service) SetStatus(id, status string) (Reservation, error) {
	if !IsValidStatus(status) {
		return Reservation{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: statusText})
	}
	r, err := svc.repo.GetReservationByID(id)
	if err != nil {
		return Reservation{}, err
	}
	if r.Status == status {
		return r, nil
	}
	r.Status = status
	r.UpdatedAt = svc.now()
	return svc.repo.UpdateReservation(r)
}
