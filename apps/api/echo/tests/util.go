package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/assets"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/core/token"
	emailsvc "github.com/trezcool/roster/services/email"
	logsvc "github.com/trezcool/roster/services/logger"
	inmemdb "github.com/trezcool/roster/storage/database/inmem"
	diskstore "github.com/trezcool/roster/storage/media/disk"
)

const (
	testSecret  = "test-secret"
	testBaseURL = "http://localhost:5000"
)

type testApp struct {
	server      *echoapi.Server
	conf        *core.Config
	issuer      *token.Issuer
	mailSvc     *emailsvc.ConsoleServiceMock
	accRepo     school.Repository
	studentRepo student.Repository
	postRepo    post.Repository
	store       media.Store
}

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Roster",
		SecretKey:        testSecret,
		DefaultFromEmail: "noreply@roster.test",
		Server: core.ServerConfig{
			PublicBaseURL:      testBaseURL,
			DisableReqLogs:     true,
			JWTExpirationDelta: 7 * 24 * time.Hour,
			StudentTokenTTL:    4 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Uploads:  core.UploadsConfig{Backend: "disk", MaxSize: media.DefaultMaxSize},
	}
}

func setup(t *testing.T, configure ...func(conf *core.Config)) *testApp {
	conf := testConfig()
	conf.Uploads.Dir = t.TempDir()
	for _, fn := range configure {
		fn(conf)
	}

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db := inmemdb.Open()
	accRepo := inmemdb.NewAccountRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	postRepo := inmemdb.NewPostRepository(db)

	store, err := diskstore.New(conf.Uploads.Dir)
	if err != nil {
		t.Fatalf("diskstore.New() failed: %v", err)
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	issuer := token.NewIssuer([]byte(conf.SecretKey), conf.AppName, conf.Server.JWTExpirationDelta)

	// set up server
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Issuer:     issuer,
		Uploads:    media.NewGatekeeper(store, conf.Uploads.MaxSize),
		SchoolSvc:  school.NewService(accRepo, mailSvc),
		StudentSvc: student.NewService(studentRepo),
		PostSvc:    post.NewService(postRepo),
	})

	return &testApp{
		server:      server,
		conf:        conf,
		issuer:      issuer,
		mailSvc:     mailSvc,
		accRepo:     accRepo,
		studentRepo: studentRepo,
		postRepo:    postRepo,
		store:       store,
	}
}

// schoolToken returns a credential for acc.
func (app *testApp) schoolToken(t *testing.T, acc school.Account) string {
	tok, err := app.issuer.Issue(acc.ID, token.KindSchool)
	if err != nil {
		t.Fatalf("schoolToken() failed: %v", err)
	}
	return tok
}

func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
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

// envelope is the shape of every JSON response.
type envelope map[string]interface{}

func ok(message string, payload ...envelope) envelope {
	env := envelope{"status": true, "message": message}
	for _, p := range payload {
		for k, v := range p {
			env[k] = v
		}
	}
	return env
}

func fail(message string, fldErrs ...map[string]string) envelope {
	env := envelope{"status": false, "message": message}
	if len(fldErrs) > 0 {
		env["errors"] = fldErrs[0]
	}
	return env
}

// token is sent as is: the API does not expect a "Bearer" prefix.
func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func newMultipartRequest(t *testing.T, method, path, token string, fields map[string]string, files ...formFile) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() failed: %v", err)
		}
		if _, err = part.Write(f.content); err != nil {
			t.Fatalf("part.Write() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

// pngBytes returns size bytes starting with the PNG signature.
func pngBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, "\x89PNG\r\n\x1a\n")
	return b
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
	return body
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
	assert.Equal(t, tt.wantCode, rec.Code, "status code")
	if tt.wantData == nil {
		return
	}
	equal, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !equal {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}

// Views as the API renders them.

type studentOut struct {
	student.Student
	ProfileImageURL string `json:"profileImageURL,omitempty"`
}

func studentView(s student.Student) studentOut {
	out := studentOut{Student: s}
	if s.ProfileImage != "" {
		out.ProfileImageURL = testBaseURL + "/profile/" + s.ProfileImage
	}
	return out
}

type postOut struct {
	post.Post
	PostImageURL string `json:"postImageURL,omitempty"`
}

func postView(p post.Post) postOut {
	out := postOut{Post: p}
	if p.Image != "" {
		out.PostImageURL = testBaseURL + "/profile/" + p.Image
	}
	return out
}

func ctxBg() context.Context {
	return context.Background()
}
