package reservation

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
)

// Statuses
const (
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Date and Time formats
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var AllStatuses = []string{StatusUpcoming, StatusCompleted, StatusCancelled}

func IsValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Reservation is a training session booked by a student with a coach.
type Reservation struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CoachID   string    `json:"coach_id"`
	CourseID  string    `json:"course_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewReservation struct {
	StudentID string `json:"student_id" validate:"required"`
	CoachID   string `json:"coach_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"notblank"`
	Date      string `json:"date" validate:"required,resdate"`
	Time      string `json:"time" validate:"required,restime"`
}

func (nr *NewReservation) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.CoachID = core.CleanString(nr.CoachID)
	nr.CourseID = core.CleanString(nr.CourseID)
	nr.Date = core.CleanString(nr.Date)
	nr.Time = core.CleanString(nr.Time)
	return validate.Struct(nr)
}

type SetStatus struct {
	Status string `json:"status" validate:"required,resstatus"`
}

type QueryFilter struct {
	Status    string `query:"status"`
	StudentID string `query:"student_id"`
	CoachID   string `query:"coach_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.StudentID == "" && qf.CoachID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	if qf.Status == "all" {
		qf.Status = ""
	}
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CoachID = core.CleanString(qf.CoachID)
}

// Match reports whether r satisfies every set field of qf.
func (qf *QueryFilter) Match(r Reservation) bool {
	return (qf.Status == "" || r.Status == qf.Status) &&
		(qf.StudentID == "" || r.StudentID == qf.StudentID) &&
		(qf.CoachID == "" || r.CoachID == qf.CoachID)
}
