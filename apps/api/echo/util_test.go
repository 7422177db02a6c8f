package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

type testApp struct {
	server *Server
	conf   *core.Config

	tenantRepo  tenant.Repository
	userRepo    user.Repository
	studentRepo student.Repository
	staffRepo   staff.Repository

	tenantSvc tenant.ServiceInterface
}

func setup(t *testing.T) *testApp {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	conf := testutil.NewConfig()

	tenantRepo := inmemdb.NewTenantRepository(db)
	userRepo := inmemdb.NewUserRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	staffRepo := inmemdb.NewStaffRepository(db)

	tenantSvc := tenant.NewService(tenantRepo, conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	server := NewServer(&ServerDeps{
		Conf:       conf,
		Logger:     testutil.NopLogger{},
		TenantSvc:  tenantSvc,
		UserSvc:    user.NewService(userRepo, tenantSvc, conf),
		StudentSvc: student.NewService(studentRepo, conf),
		StaffSvc:   staff.NewService(staffRepo, conf),
		Validate:   validate,
		Translator: translator,
	})

	return &testApp{
		server:      server,
		conf:        conf,
		tenantRepo:  tenantRepo,
		userRepo:    userRepo,
		studentRepo: studentRepo,
		staffRepo:   staffRepo,
		tenantSvc:   tenantSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// errResp mirrors the API's JSON error body.
type errResp struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message"`
}

func newAuthRequest(method, url, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, url string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, url, "", data...)
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
}

func checkError(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantMessage interface{}) {
	t.Helper()

	if rec.Code != wantCode {
		t.Errorf("code = %v; want %v (body: %s)", rec.Code, wantCode, rec.Body.String())
	}
	var body errResp
	decodeBody(t, rec, &body)
	if body.Success {
		t.Errorf("success = true; want false")
	}
	if wantMessage != nil && !messageEqual(body.Message, wantMessage) {
		t.Errorf("message = %v; want %v", body.Message, wantMessage)
	}
}

func messageEqual(got, want interface{}) bool {
	g, _ := json.Marshal(got)
	w, _ := json.Marshal(want)
	return bytes.Equal(g, w)
}
