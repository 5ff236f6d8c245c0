package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/config"
	"github.com/justsurfingit/internship-tracker/internal/database"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/handlers"
	"github.com/justsurfingit/internship-tracker/internal/mailer"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/justsurfingit/internship-tracker/internal/services"
	"github.com/justsurfingit/internship-tracker/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractor struct {
	draft *dtos.JobDraft
	err   error
}

func (f fakeExtractor) ExtractJobDetails(ctx context.Context, raw string) (*dtos.JobDraft, error) {
	return f.draft, f.err
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	rec      *mailer.Recorder
	notifier *notify.Notifier
}

func newTestServer(t *testing.T, extractor handlers.JobExtractor) *testServer {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	rec := &mailer.Recorder{}
	n := notify.New(rec, zerolog.Nop(), notify.Options{Timeout: 5 * time.Second})
	t.Cleanup(n.Wait)

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiresIn:     time.Hour,
		OTPTTL:           10 * time.Minute,
		FrontendURL:      "http://app.test",
		BackendURL:       "http://api.test",
		AdminEmail:       "admin@portal.test",
		ResumeMaxBytes:   1 << 20,
		LegacyUploadsDir: t.TempDir(),
	}
	router := NewRouter(Deps{
		Config:    cfg,
		DB:        db,
		Notifier:  n,
		Resumes:   storage.NewDBStore(db),
		Limiter:   middleware.NewMemoryLimiter(),
		Extractor: extractor,
	})
	return &testServer{t: t, router: router, rec: rec, notifier: n}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) register(name, email, role string) services.AuthResult {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", dtos.RegisterRequest{Name: name, Email: email, Role: role, Password: "pw"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.AuthResult](s.t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("Stu", "stu@uni.test", "")

	w := s.do(http.MethodPost, "/api/auth/login", "", dtos.LoginRequest{Email: "stu@uni.test", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", dtos.LoginRequest{Email: "stu@uni.test", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["requiresOTP"])

	s.notifier.Wait()
	var code string
	for _, m := range s.rec.To("stu@uni.test") {
		if m.Subject == "Login OTP Verification" {
			i := strings.Index(m.Text, "is: ")
			code = m.Text[i+4 : i+10]
		}
	}
	require.NotEmpty(t, code)

	w = s.do(http.MethodPost, "/api/auth/verify-login-otp", "", dtos.VerifyOTPRequest{Email: "stu@uni.test", OTP: code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[services.AuthResult](t, w)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "stu@uni.test", res.User.Email)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/api/jobs", "", dtos.JobCreationRequest{Title: "x", CompanyName: "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Missing token"}`, w.Body.String())

	student := s.register("Stu", "stu@uni.test", "student")
	w = s.do(http.MethodPost, "/api/jobs", student.Token, dtos.JobCreationRequest{Title: "x", CompanyName: "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/register", "", dtos.RegisterRequest{Name: "Stu", Email: "stu@uni.test", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	s := newTestServer(t, nil)
	for i := 0; i < authRateLimit; i++ {
		w := s.do(http.MethodPost, "/api/auth/forgot-password", "", dtos.ForgotPasswordRequest{Email: "x@uni.test"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(http.MethodPost, "/api/auth/forgot-password", "", dtos.ForgotPasswordRequest{Email: "x@uni.test"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Other routes keep their own budget.
	w = s.do(http.MethodPost, "/api/auth/login", "", dtos.LoginRequest{Email: "x@uni.test", Password: "pw"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	company := s.register("Acme HR", "hr@acme.test", "company")
	student := s.register("Stu", "stu@uni.test", "student")
	admin := s.register("Root", "root@uni.test", "admin")

	w := s.do(http.MethodPost, "/api/jobs", company.Token, dtos.JobCreationRequest{Title: "Go Intern", CompanyName: "Acme", Deadline: "2030-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[map[string]any](t, w)
	jobID := job["_id"].(string)

	w = s.do(http.MethodGet, "/api/jobs/"+jobID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Upload a resume.
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 resume"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/applications/upload-resume", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+student.Token)
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	upload := decode[dtos.UploadResumeResponse](t, rw)
	assert.Equal(t, "cv.pdf", upload.OriginalName)

	w = s.do(http.MethodPost, "/api/applications", student.Token, dtos.ApplyRequest{JobID: jobID, ResumeFileID: upload.FileID, ResumeOriginalName: "cv.pdf"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appID := decode[map[string]any](t, w)["_id"].(string)

	w = s.do(http.MethodPost, "/api/applications", student.Token, dtos.ApplyRequest{JobID: jobID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"already applied"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/applications/for-company", company.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodGet, "/applications/"+appID+"/resume", company.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "%PDF-1.4 resume", w.Body.String())
	assert.Equal(t, `attachment; filename="cv.pdf"`, w.Header().Get("Content-Disposition"))

	w = s.do(http.MethodPut, "/api/applications/"+appID+"/decision", company.Token, dtos.DecisionRequest{Action: "accept"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Accepted", decode[map[string]any](t, w)["status"])

	w = s.do(http.MethodPut, "/api/applications/"+appID+"/withdraw", student.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/applications", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodDelete, "/api/jobs/"+jobID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/applications/me", student.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestUploadWithoutFile(t *testing.T) {
	s := newTestServer(t, nil)
	student := s.register("Stu", "stu@uni.test", "student")

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/applications/upload-resume", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+student.Token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"no file uploaded"}`, w.Body.String())
}

// uploadResume posts a multipart form carrying size bytes as the resume field.
func (s *testServer) uploadResume(t *testing.T, token string, size int) *httptest.ResponseRecorder {
	t.Helper()
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/applications/upload-resume", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	student := s.register("Stu", "stu@uni.test", "student")

	// Fits under the multipart allowance but the file itself is over the limit.
	w := s.uploadResume(t, student.Token, 1<<20+1000)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"file too large (max 1 MB)"}`, w.Body.String())

	// Cut off by the request body cap before the form is fully read.
	w = s.uploadResume(t, student.Token, 3<<20)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"file too large (max 1 MB)"}`, w.Body.String())

	w = s.uploadResume(t, student.Token, 1<<20)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestApplyWithAnotherStudentsResume(t *testing.T) {
	s := newTestServer(t, nil)
	company := s.register("Hr", "hr@acme.test", "company")
	alice := s.register("Alice", "alice@uni.test", "student")
	mallory := s.register("Mallory", "mallory@uni.test", "student")

	w := s.do(http.MethodPost, "/api/jobs", company.Token, dtos.JobCreationRequest{Title: "Go Intern", CompanyName: "Acme"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	jobID := decode[map[string]any](t, w)["_id"].(string)

	w = s.uploadResume(t, alice.Token, 64)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fileID := decode[dtos.UploadResumeResponse](t, w).FileID

	w = s.do(http.MethodPost, "/api/applications", mallory.Token, dtos.ApplyRequest{JobID: jobID, ResumeFileID: fileID})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/applications", alice.Token, dtos.ApplyRequest{JobID: jobID, ResumeFileID: fileID})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestInternshipsAndExport(t *testing.T) {
	s := newTestServer(t, nil)
	student := s.register("Stu", "stu@uni.test", "student")
	faculty := s.register("Prof", "prof@uni.test", "faculty")
	admin := s.register("Root", "root@uni.test", "admin")

	w := s.do(http.MethodPost, "/api/internships", student.Token, dtos.InternshipRequest{CompanyName: "Acme", Role: "SWE", StartDate: "2025-06-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["_id"].(string)

	w = s.do(http.MethodGet, "/api/internships", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))

	w = s.do(http.MethodGet, "/api/internships", faculty.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodGet, "/api/internships?studentId="+student.User.UserID, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/internships/"+id+"/validate", faculty.Token, dtos.ValidateInternshipRequest{Action: "validate"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/internships", "", nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodGet, "/export/internships", student.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodGet, "/export/internships", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), services.ExportFilename)
	assert.Contains(t, w.Body.String(), "Stu,stu@uni.test,Acme,SWE,2025-06-01,")
}

func TestContact(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/api/contact", "", dtos.ContactRequest{Name: "Eve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["ok"])

	w = s.do(http.MethodPost, "/api/contact", "", dtos.ContactRequest{Name: "Eve", Email: "eve@visitor.test", Message: "Hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["messageId"])
	assert.Len(t, s.rec.To("admin@portal.test"), 1)

	w = s.do(http.MethodPost, "/api/contact", "", dtos.ContactRequest{Name: "Eve\r\nBcc: victim@else.test\r\nX-Evil: 1", Email: "eve@x.test", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/contact", "", dtos.ContactRequest{Name: "Eve", Email: "eve@x.test\r\nBcc: victim@else.test", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid email format"}`, w.Body.String())
	assert.Len(t, s.rec.Messages(), 1)
	assert.Empty(t, s.rec.To("victim@else.test"))
}

func TestJobExtraction(t *testing.T) {
	s := newTestServer(t, nil)
	company := s.register("Acme HR", "hr@acme.test", "company")
	w := s.do(http.MethodPost, "/api/jobs/extract", company.Token, dtos.JobExtractionRequest{RawHTML: "<p>job</p>"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s = newTestServer(t, fakeExtractor{draft: &dtos.JobDraft{Title: "Go Intern", TechStack: []string{"Go"}}})
	company = s.register("Acme HR", "hr@acme.test", "company")
	w = s.do(http.MethodPost, "/api/jobs/extract", company.Token, dtos.JobExtractionRequest{RawHTML: "<p>job</p>"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Go Intern", body["data"].(map[string]any)["title"])

	s = newTestServer(t, fakeExtractor{err: services.ErrInvalidModelOutput})
	company = s.register("Acme HR", "hr@acme.test", "company")
	w = s.do(http.MethodPost, "/api/jobs/extract", company.Token, dtos.JobExtractionRequest{RawHTML: "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
