package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/user"
	inmemdb "github.com/trezcool/atlantis/storage/inmem"
)

var (
	validate   = validator.New()
	translator = core.NewTranslator()
)

func init() {
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
}

func newService() *user.Service {
	return user.NewService(inmemdb.NewUserRepository(inmemdb.NewDB()))
}

func createUser(t *testing.T, svc *user.Service, name, email, role string) user.User {
	t.Helper()
	usr, err := svc.Create(user.NewUser{Name: name, Email: email, Role: role, Password: "Sw1m-f4st!", PasswordConfirm: "Sw1m-f4st!"})
	require.NoError(t, err)
	return usr
}

func TestNewUser_Validate(t *testing.T) {
	svc := newService()
	createUser(t, svc, "Existing Coach", "coach@atlantis.md", user.RoleCoach)

	tests := []struct {
		name    string
		data    user.NewUser
		wantErr map[string]string
	}{
		{
			name: "valid",
			data: user.NewUser{Name: " Maria Ionescu ", Email: " Maria@Atlantis.MD ", Password: "Sw1m-f4st!", PasswordConfirm: "Sw1m-f4st!"},
		},
		{
			name: "required fields",
			data: user.NewUser{},
			wantErr: map[string]string{
				"name":             "this field is required",
				"email":            "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			},
		},
		{
			name:    "bad role",
			data:    user.NewUser{Name: "Ana", Email: "ana@atlantis.md", Role: "owner", Password: "Sw1m-f4st!", PasswordConfirm: "Sw1m-f4st!"},
			wantErr: map[string]string{"role": "invalid role"},
		},
		{
			name:    "short password",
			data:    user.NewUser{Name: "Ana", Email: "ana@atlantis.md", Password: "abc", PasswordConfirm: "abc"},
			wantErr: map[string]string{"password": "password must contain at least 8 characters"},
		},
		{
			name:    "numeric password",
			data:    user.NewUser{Name: "Ana", Email: "ana@atlantis.md", Password: "12345678", PasswordConfirm: "12345678"},
			wantErr: map[string]string{"password": "password cannot be entirely numeric"},
		},
		{
			name:    "password with space",
			data:    user.NewUser{Name: "Ana", Email: "ana@atlantis.md", Password: "swim fast 1", PasswordConfirm: "swim fast 1"},
			wantErr: map[string]string{"password": "password must not contain whitespace"},
		},
		{
			name:    "password like email",
			data:    user.NewUser{Name: "Ana", Email: "anamaria@atlantis.md", Password: "anamaria1", PasswordConfirm: "anamaria1"},
			wantErr: map[string]string{"password": "password cannot be similar to user attributes"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.data
			err := data.Validate(validate, svc)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "Maria Ionescu", data.Name)
				assert.Equal(t, "maria@atlantis.md", data.Email)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			got := core.TranslateErrors(vErrs, translator)
			for field, msg := range tc.wantErr {
				assert.Equal(t, msg, got[field], field)
			}
		})
	}

	t.Run("email taken", func(t *testing.T) {
		data := user.NewUser{Name: "Other", Email: "COACH@atlantis.md", Password: "Sw1m-f4st!", PasswordConfirm: "Sw1m-f4st!"}
		err := data.Validate(validate, svc)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []core.FieldError{{Field: "email", Error: user.ErrEmailExists.Error()}}, vErr.Fields)
	})
}

func TestService(t *testing.T) {
	svc := newService()
	admin := createUser(t, svc, "Admin Atlantis", "admin@atlantis.md", user.RoleAdmin)
	coach := createUser(t, svc, "Vlad Coach", "vlad@atlantis.md", user.RoleCoach)
	student := createUser(t, svc, "Elena Student", "elena@atlantis.md", "")

	assert.NotEmpty(t, admin.ID)
	assert.True(t, admin.IsAdmin())
	assert.True(t, coach.IsCoach())
	assert.True(t, student.IsStudent(), "default role is student")
	assert.True(t, student.IsActive)

	t.Run("authenticate", func(t *testing.T) {
		usr, err := svc.Authenticate(" ADMIN@atlantis.md", "Sw1m-f4st!")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, usr.ID)

		_, err = svc.Authenticate("admin@atlantis.md", "wrong")
		assert.Equal(t, user.ErrInvalidCredentials, err)

		_, err = svc.Authenticate("nobody@atlantis.md", "Sw1m-f4st!")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	t.Run("status", func(t *testing.T) {
		usr, err := svc.SetActive(student.ID, false)
		require.NoError(t, err)
		assert.False(t, usr.IsActive)
		assert.Equal(t, user.StatusInactive, usr.Status())

		_, err = svc.Authenticate("elena@atlantis.md", "Sw1m-f4st!")
		assert.Equal(t, user.ErrInactive, err)

		usr, err = svc.SetActive(student.ID, true)
		require.NoError(t, err)
		assert.True(t, usr.IsActive)

		_, err = svc.SetActive("missing", true)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("role", func(t *testing.T) {
		usr, err := svc.ChangeRole(student.ID, user.RoleCoach)
		require.NoError(t, err)
		assert.Equal(t, user.RoleCoach, usr.Role)

		_, err = svc.ChangeRole(student.ID, "owner")
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))

		_, err = svc.ChangeRole(student.ID, user.RoleStudent)
		require.NoError(t, err)
	})

	t.Run("filter", func(t *testing.T) {
		users, err := svc.Filter(user.QueryFilter{Role: "all"})
		require.NoError(t, err)
		assert.Len(t, users, 3)

		users, err = svc.Filter(user.QueryFilter{Role: user.RoleCoach})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, coach.ID, users[0].ID)

		users, err = svc.Filter(user.QueryFilter{Search: " ELENA "})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, student.ID, users[0].ID)

		inactive := false
		users, err = svc.Filter(user.QueryFilter{IsActive: &inactive})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("password & last login", func(t *testing.T) {
		_, err := svc.SetPassword(coach.ID, "N3w-pass!")
		require.NoError(t, err)
		_, err = svc.Authenticate("vlad@atlantis.md", "N3w-pass!")
		assert.NoError(t, err)

		usr, err := svc.SetLastLogin(coach.ID)
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(coach.ID))
		_, err := svc.GetByID(coach.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestExportRows(t *testing.T) {
	users := []user.User{
		{ID: "1", Name: "Maria Elena Ionescu", Email: "maria@atlantis.md", Role: user.RoleStudent, IsActive: true},
		{ID: "2", Name: "Vlad", Email: "vlad@atlantis.md", Role: user.RoleCoach},
	}
	assert.Equal(t, [][]string{
		{"1", "Maria", "Elena Ionescu", "maria@atlantis.md", "student", "Active"},
		{"2", "Vlad", "", "vlad@atlantis.md", "coach", "Inactive"},
	}, user.ExportRows(users))
	assert.Len(t, user.ExportHeaders, 6)
}
