package announcement_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/announcement"
	"github.com/trezcool/atlantis/core/user"
	inmemdb "github.com/trezcool/atlantis/storage/inmem"
)

var (
	validate   = validator.New()
	translator = core.NewTranslator()
)

func init() {
	core.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)
}

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type fixture struct {
	svc    *announcement.Service
	usrSvc *user.Service
	mail   *mailRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.NewDB()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	mail := new(mailRecorder)
	return fixture{
		svc: announcement.NewService(announcement.Deps{
			Repo:     inmemdb.NewAnnouncementRepository(db),
			Audience: usrSvc,
			MailSvc:  mail,
			AppName:  "Atlantis",
		}),
		usrSvc: usrSvc,
		mail:   mail,
	}
}

func (f fixture) createUser(t *testing.T, name, email, role string) user.User {
	t.Helper()
	usr, err := f.usrSvc.Create(user.NewUser{Name: name, Email: email, Role: role, Password: "Sw1m-f4st!", PasswordConfirm: "Sw1m-f4st!"})
	require.NoError(t, err)
	return usr
}

func TestNewAnnouncement_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    announcement.NewAnnouncement
		wantErr map[string]string
	}{
		{name: "valid", data: announcement.NewAnnouncement{Title: "Hi", Message: "Hello", Target: " Coaches "}},
		{name: "default target", data: announcement.NewAnnouncement{Title: "Hi", Message: "Hello"}},
		{
			name:    "blank",
			data:    announcement.NewAnnouncement{Title: "  ", Message: "\t"},
			wantErr: map[string]string{"title": "this field is required", "message": "this field is required"},
		},
		{
			name:    "bad target",
			data:    announcement.NewAnnouncement{Title: "Hi", Message: "Hello", Target: "parents"},
			wantErr: map[string]string{"target": "target must be one of all, students, coaches"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			assert.Equal(t, tt.wantErr, core.TranslateErrors(vErrs, translator))
		})
	}
}

func TestTargetRole(t *testing.T) {
	assert.Equal(t, user.RoleStudent, announcement.TargetRole(announcement.TargetStudents))
	assert.Equal(t, user.RoleCoach, announcement.TargetRole(announcement.TargetCoaches))
	assert.Equal(t, "", announcement.TargetRole(announcement.TargetAll))
}

func TestService_Send(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "Admin", "admin@atlantis.md", user.RoleAdmin)
	coach := f.createUser(t, "Ana Popescu", "ana@atlantis.md", user.RoleCoach)
	f.createUser(t, "Ion Rusu", "ion@atlantis.md", user.RoleStudent)
	retired := f.createUser(t, "Old Coach", "old@atlantis.md", user.RoleCoach)
	_, err := f.usrSvc.SetActive(retired.ID, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		wantTo []string
	}{
		{name: "coaches", target: announcement.TargetCoaches, wantTo: []string{coach.Email}},
		{name: "students", target: announcement.TargetStudents, wantTo: []string{"ion@atlantis.md"}},
		{name: "everyone", target: "", wantTo: []string{admin.Email, coach.Email, "ion@atlantis.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.mail.sent = nil
			a, err := f.svc.Send(announcement.NewAnnouncement{Title: "News", Message: "Lanes 3-4 reserved", Target: tt.target}, admin)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantTo), a.Recipients)
			assert.Equal(t, admin.ID, a.AuthorID)

			var to []string
			for _, msg := range f.mail.sent {
				to = append(to, msg.To[0].Address)
				assert.Equal(t, "News", msg.Subject)
			}
			assert.ElementsMatch(t, tt.wantTo, to)

			got, err := f.svc.GetByID(a.ID)
			require.NoError(t, err)
			assert.Equal(t, a.Target, got.Target)
		})
	}

	list, err := f.svc.QueryAll()
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = f.svc.GetByID("nope")
	assert.Equal(t, announcement.ErrNotFound, err)
}
