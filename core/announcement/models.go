package announcement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/user"
)

// Targets
const (
	TargetAll      = "all"
	TargetStudents = "students"
	TargetCoaches  = "coaches"
)

var AllTargets = []string{TargetAll, TargetStudents, TargetCoaches}

func IsValidTarget(target string) bool {
	for _, t := range AllTargets {
		if t == target {
			return true
		}
	}
	return false
}

// TargetRole returns the user role an announcement target is delivered to.
// The empty role stands for every user.
func TargetRole(target string) string {
	switch target {
	case TargetStudents:
		return user.RoleStudent
	case TargetCoaches:
		return user.RoleCoach
	default:
		return ""
	}
}

type Announcement struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Target     string    `json:"target"`
	AuthorID   string    `json:"author_id"`
	Recipients int       `json:"recipients"` // number of users it was mailed to
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewAnnouncement contains what an admin submits to send an Announcement.
type NewAnnouncement struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank"`
	Target  string `json:"target" validate:"omitempty,announcementtarget"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	na.Target = core.CleanString(na.Target, true /* lower */)
	return validate.Struct(na)
}
