package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	. "github.com/trezcool/atlantis/apps/api/echo"
	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/announcement"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/checkout"
	"github.com/trezcool/atlantis/core/reservation"
	"github.com/trezcool/atlantis/core/user"
	emailsvc "github.com/trezcool/atlantis/services/email"
	logsvc "github.com/trezcool/atlantis/services/logger"
	inmemdb "github.com/trezcool/atlantis/storage/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	Server
	conf     *core.Config
	usrSvc   *user.Service
	storage  *cart.MemoryStorage
	carts    *cart.Registry
	mailSvc  *emailsvc.ConsoleServiceMock
	plans    *catalog.Catalog
	password string
}

func newTestConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Atlantis",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T, processor ...checkout.PaymentProcessor) *testApp {
	t.Helper()
	conf := newTestConfig()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	checkout.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)
	reservation.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(zaptest.NewLogger(t), conf)

	db := inmemdb.NewDB()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	storage := cart.NewMemoryStorage()
	carts := cart.NewRegistry(storage, "", cart.WithLogger(logger))
	plans := catalog.Default()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	deps := checkout.Deps{
		Validate: validate,
		MailSvc:  mailSvc,
		Logger:   logger,
		AppName:  conf.AppName,
		Currency: plans.Currency(),
	}
	if len(processor) > 0 {
		deps.Processor = processor[0]
	}

	announcementSvc := announcement.NewService(announcement.Deps{
		Repo:     inmemdb.NewAnnouncementRepository(db),
		Audience: usrSvc,
		MailSvc:  mailSvc,
		Logger:   logger,
		AppName:  conf.AppName,
	})

	app := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		Carts:           carts,
		Catalog:         plans,
		CheckoutSvc:     checkout.NewService(deps),
		AnnouncementSvc: announcementSvc,
		ReservationSvc:  reservation.NewService(inmemdb.NewReservationRepository(db), usrSvc),
		Validate:        validate,
		Translator:      translator,
	})

	return &testApp{
		Server:   app,
		conf:     conf,
		usrSvc:   usrSvc,
		storage:  storage,
		carts:    carts,
		mailSvc:  mailSvc,
		plans:    plans,
		password: "w4ves&Lanes",
	}
}

// createUser stores an active user with the app's test password.
func (app *testApp) createUser(t *testing.T, name, email, role string, active ...bool) user.User {
	t.Helper()
	usr, err := app.usrSvc.Create(user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        app.password,
		PasswordConfirm: app.password,
	})
	require.NoError(t, err)
	if len(active) > 0 && !active[0] {
		usr, err = app.usrSvc.SetActive(usr.ID, false)
		require.NoError(t, err)
	}
	return usr
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	require.NoError(t, err)
	return token
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		assert.Empty(t, rec.Body.String())
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}
