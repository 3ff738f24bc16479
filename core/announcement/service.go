package announcement

import (
	_ "embed"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("announcement not found")

	//go:embed templates/announcement.txt
	announcementText     string
	announcementTemplate = texttmpl.Must(texttmpl.New("announcement").Parse(announcementText))
)

type (
	Repository interface {
		CreateAnnouncement(a Announcement) (Announcement, error)
		// QueryAnnouncements returns the newest announcements first.
		QueryAnnouncements() ([]Announcement, error)
		GetAnnouncementByID(id string) (Announcement, error)
	}

	// Audience lists the users an announcement can reach; *user.Service is one.
	Audience interface {
		Filter(filter user.QueryFilter) ([]user.User, error)
	}

	Deps struct {
		Repo     Repository
		Audience Audience
		MailSvc  core.EmailService // optional
		Logger   core.Logger       // optional
		AppName  string
	}

	Service struct {
		deps Deps
		now  func() time.Time
	}
)

var _ Audience = (*user.Service)(nil)

func NewService(deps Deps) *Service {
	return &Service{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// Send stores na and mails it to every active user of its target. na must have been validated.
func (svc *Service) Send(na NewAnnouncement, author user.User) (Announcement, error) {
	if na.Target == "" {
		na.Target = TargetAll
	}

	active := true
	recipients, err := svc.deps.Audience.Filter(user.QueryFilter{Role: TargetRole(na.Target), IsActive: &active})
	if err != nil {
		return Announcement{}, errors.Wrap(err, "listing recipients")
	}

	a, err := svc.deps.Repo.CreateAnnouncement(Announcement{
		ID:         uuid.NewString(),
		Title:      na.Title,
		Message:    na.Message,
		Target:     na.Target,
		AuthorID:   author.ID,
		Recipients: len(recipients),
		CreatedAt:  svc.now(),
	})
	if err != nil {
		return Announcement{}, errors.Wrap(err, "storing announcement")
	}

	svc.mail(a, recipients)
	return a, nil
}

// mail sends one message per recipient so addresses are not disclosed to each other.
func (svc *Service) mail(a Announcement, recipients []user.User) {
	if svc.deps.MailSvc == nil || len(recipients) == 0 {
		return
	}
	messages := make([]*core.EmailMessage, 0, len(recipients))
	for _, usr := range recipients {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      a.Title,
			TextTemplate: announcementTemplate,
			TemplateData: struct {
				AppName      string
				Name         string
				Announcement Announcement
			}{svc.deps.AppName, usr.Name, a},
		})
	}
	svc.deps.MailSvc.SendMessages(messages...)
	if svc.deps.Logger != nil {
		svc.deps.Logger.Info("announcement sent", map[string]interface{}{"id": a.ID, "target": a.Target, "recipients": len(recipients)})
	}
}

func (svc *Service) QueryAll() ([]Announcement, error) {
	return svc.deps.Repo.QueryAnnouncements()
}

func (svc *Service) GetByID(id string) (Announcement, error) {
	return svc.deps.Repo.GetAnnouncementByID(id)
}
