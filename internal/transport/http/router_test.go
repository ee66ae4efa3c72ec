package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"mathemania-service/internal/app"
	"mathemania-service/internal/auth"
	"mathemania-service/internal/content"
	"mathemania-service/internal/domain"
	"mathemania-service/internal/infra/memory"
	"mathemania-service/internal/metrics"
)

const adminPassword = "euler-2718"

type testServer struct {
	*httptest.Server
	objects *memory.ObjectStore
	sheet   *memory.Spreadsheet
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	regs := memory.NewRegistrationDirectory(
		domain.Registration{UniqueCode: "MATH-AAAA0001", TeamName: "Primes", Institute: "IIT Kanpur"},
		domain.Registration{UniqueCode: "MATH-AAAA0002", TeamName: "Fermat Club", Institute: "IISc"},
	)
	keys := memory.NewAnswerKeyRepository(memory.NewStaticAnswerKeyLoader(domain.AnswerKey{
		ID: "round1",
		Questions: map[int]domain.KeyEntry{
			1: {Mode: domain.ModeOptions, Correct: []string{"A", "B"}},
			2: {Mode: domain.ModeOptions, Correct: []string{"C"}},
		},
	}), time.Minute)
	m := metrics.New()
	quiz := app.NewQuizService("round1", app.Deps{
		Registrations: regs,
		Responses:     memory.NewResponseStore(),
		Leaderboard:   memory.NewLeaderboardStore(),
		AnswerKeys:    keys,
		Drafts:        memory.NewDraftStore(),
	}, app.WithObserver(m))

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	authn, err := auth.NewAuthenticator(hash, "router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}

	objects := memory.NewObjectStore("https://files.test")
	sheet := memory.NewSpreadsheet()
	handler := NewRouter(Services{
		Quiz:      quiz,
		Round2:    app.NewRound2Service(regs, objects, memory.NewRound2Store(), nil),
		Materials: app.NewMaterialsService(objects, time.Minute),
		Content:   content.NewService(sheet),
		Auth:      authn,
		Metrics:   m,
	}, opts)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, objects: objects, sheet: sheet}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, s.Client(), req)
}

func send(t *testing.T, client *http.Client, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/api/admin/login", loginRequest{Password: adminPassword}, "")
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, raw)
	}
	var resp loginResponse
	mustDecode(t, raw, &resp)
	if resp.Token == "" {
		t.Fatalf("empty token")
	}
	return resp.Token
}

func mustDecode(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var body errorBody
	mustDecode(t, raw, &body)
	return body.Error
}

func TestQuizFlow(t *testing.T) {
	s := newTestServer(t, Options{})

	status, raw := s.do(t, http.MethodPost, "/api/quiz/verify", verifyRequest{Code: "MATH-AAAA0001"}, "")
	if status != http.StatusOK {
		t.Fatalf("verify status %d: %s", status, raw)
	}
	var verified verifyResponse
	mustDecode(t, raw, &verified)
	if !verified.Valid || verified.TeamName != "Primes" {
		t.Fatalf("unexpected verify response %+v", verified)
	}

	answers := map[string]any{"1": []string{"A", "B"}, "2": []string{"C"}}
	status, raw = s.do(t, http.MethodPost, "/api/quiz/submit", map[string]any{"code": "MATH-AAAA0001", "answers": answers}, "")
	if status != http.StatusOK {
		t.Fatalf("submit status %d: %s", status, raw)
	}
	var result domain.SubmitResult
	mustDecode(t, raw, &result)
	if result.Score != 6 || !result.Published {
		t.Fatalf("unexpected submit result %+v", result)
	}

	status, raw = s.do(t, http.MethodGet, "/api/leaderboard", nil, "")
	if status != http.StatusOK {
		t.Fatalf("leaderboard status %d", status)
	}
	var lb domain.Leaderboard
	mustDecode(t, raw, &lb)
	if len(lb.Entries) != 1 || lb.Entries[0].TeamName != "Primes" || lb.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}

	status, raw = s.do(t, http.MethodPost, "/api/quiz/submit", map[string]any{"code": "MATH-AAAA0001", "answers": answers}, "")
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d", status)
	}
	if msg := errorMessage(t, raw); msg != `Access Denied: Team "Primes" has already submitted.` {
		t.Fatalf("unexpected message %q", msg)
	}

	status, raw = s.do(t, http.MethodPost, "/api/quiz/verify", verifyRequest{Code: "MATH-NOPE"}, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", status)
	}
	if msg := errorMessage(t, raw); msg != "Invalid Unique Code. Please check and try again." {
		t.Fatalf("unexpected message %q", msg)
	}

	status, _ = s.do(t, http.MethodPost, "/api/quiz/submit", nil, "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", status)
	}
}

func TestDraftEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	path := "/api/drafts/session-42"

	if status, _ := s.do(t, http.MethodGet, path, nil, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing draft, got %d", status)
	}
	body := map[string]any{"answers": map[string]any{"3": []string{"D"}, "21": "42"}}
	if status, raw := s.do(t, http.MethodPut, path, body, ""); status != http.StatusNoContent {
		t.Fatalf("save status %d: %s", status, raw)
	}

	status, raw := s.do(t, http.MethodGet, path, nil, "")
	if status != http.StatusOK {
		t.Fatalf("load status %d", status)
	}
	var draft draftBody
	mustDecode(t, raw, &draft)
	if got := draft.Answers[21].Value; got != "42" {
		t.Fatalf("expected value answer 42, got %q", got)
	}
	if got := draft.Answers[3].Options; len(got) != 1 || got[0] != "D" {
		t.Fatalf("unexpected options %v", got)
	}

	if status, _ := s.do(t, http.MethodDelete, path, nil, ""); status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, path, nil, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	s := newTestServer(t, Options{})

	if status, _ := s.do(t, http.MethodGet, "/api/admin/responses", nil, ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/admin/responses", nil, "not-a-jwt"); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
	status, raw := s.do(t, http.MethodPost, "/api/admin/login", loginRequest{Password: "wrong"}, "")
	if status != http.StatusUnauthorized || errorMessage(t, raw) != "Invalid Password" {
		t.Fatalf("unexpected login failure %d: %s", status, raw)
	}

	token := s.login(t)
	s.do(t, http.MethodPost, "/api/quiz/submit", map[string]any{"code": "MATH-AAAA0002", "answers": map[string]any{"1": []string{"A"}}}, "")

	status, raw = s.do(t, http.MethodGet, "/api/admin/responses", nil, token)
	if status != http.StatusOK {
		t.Fatalf("responses status %d: %s", status, raw)
	}
	var responses []domain.QuizResponse
	mustDecode(t, raw, &responses)
	if len(responses) != 1 || responses[0].TeamName != "Fermat Club" {
		t.Fatalf("unexpected responses %+v", responses)
	}

	status, raw = s.do(t, http.MethodPost, "/api/admin/reconcile", nil, token)
	if status != http.StatusOK {
		t.Fatalf("reconcile status %d: %s", status, raw)
	}
	var report reconcileResponse
	mustDecode(t, raw, &report)
	if report.Teams != 1 || report.Published != 1 || report.Error != "" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, path string, body *bytes.Buffer, contentType, token string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, s.Client(), req)
}

func TestRound2Upload(t *testing.T) {
	s := newTestServer(t, Options{})
	pdf := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

	body, ct := multipartBody(t, map[string]string{"code": "MATH-AAAA0002"}, "solutions.pdf", "application/pdf", pdf)
	status, raw := s.upload(t, "/api/round2", body, ct, "")
	if status != http.StatusCreated {
		t.Fatalf("upload status %d: %s", status, raw)
	}
	var sub domain.Round2Submission
	mustDecode(t, raw, &sub)
	if !strings.HasPrefix(sub.FilePath, "round2/Fermat_Club_") || !strings.HasSuffix(sub.FilePath, ".pdf") {
		t.Fatalf("unexpected object key %q", sub.FilePath)
	}
	if obj, ok := s.objects.Object(sub.FilePath); !ok || !bytes.Equal(obj.Data, pdf) {
		t.Fatalf("uploaded object missing or altered")
	}

	body, ct = multipartBody(t, map[string]string{"code": "MATH-AAAA0002"}, "notes.txt", "text/plain", []byte("hello"))
	status, raw = s.upload(t, "/api/round2", body, ct, "")
	if status != http.StatusUnsupportedMediaType || errorMessage(t, raw) != "Please select a valid PDF file." {
		t.Fatalf("unexpected non-pdf response %d: %s", status, raw)
	}

	body, ct = multipartBody(t, map[string]string{"code": "MATH-AAAA0002"}, "", "", nil)
	if status, _ := s.upload(t, "/api/round2", body, ct, ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", status)
	}

	body, ct = multipartBody(t, map[string]string{"code": "MATH-XXXX"}, "s.pdf", "application/pdf", pdf)
	if status, _ := s.upload(t, "/api/round2", body, ct, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", status)
	}
}

func TestMaterials(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(t)
	pdf := []byte("%PDF-1.4 question paper")

	body, ct := multipartBody(t, nil, "round1-paper.pdf", "application/pdf", pdf)
	if status, _ := s.upload(t, "/api/admin/materials", body, ct, ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	body, ct = multipartBody(t, nil, "round1-paper.pdf", "application/pdf", pdf)
	status, raw := s.upload(t, "/api/admin/materials", body, ct, token)
	if status != http.StatusCreated {
		t.Fatalf("material upload %d: %s", status, raw)
	}
	var created materialResponse
	mustDecode(t, raw, &created)
	if created.Key != "materials/round1-paper.pdf" {
		t.Fatalf("unexpected key %q", created.Key)
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(s.URL + "/api/materials/round1-paper.pdf")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://files.test/materials/round1-paper.pdf?") {
		t.Fatalf("unexpected location %q", loc)
	}

	if status, _ := s.do(t, http.MethodGet, "/api/materials/missing.pdf", nil, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing material, got %d", status)
	}
}

func TestContentEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	status, raw := s.do(t, http.MethodGet, "/api/content?action=get_announcement", nil, "")
	if status != http.StatusOK || strings.TrimSpace(string(raw)) != `{"text":""}` {
		t.Fatalf("unexpected announcement %d: %s", status, raw)
	}

	registration := map[string]string{
		"teamName": "Pi Rates", "teamLeader": "Ada", "email": "ada@example.com",
		"institute": "IIT Kanpur", "contactNumber": "9123456780",
	}
	status, raw = s.do(t, http.MethodPost, "/api/content", registration, "")
	if status != http.StatusOK || !strings.Contains(string(raw), "Registered") {
		t.Fatalf("register %d: %s", status, raw)
	}
	registration["contactNumber"] = "123"
	registration["teamName"] = "Another Team"
	status, raw = s.do(t, http.MethodPost, "/api/content", registration, "")
	if status != http.StatusBadRequest || errorMessage(t, raw) != "Please enter a valid 10-digit contact number." {
		t.Fatalf("expected validation error, got %d: %s", status, raw)
	}

	if status, _ := s.do(t, http.MethodGet, "/api/content?action=get_registrations", nil, ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for registrations without token, got %d", status)
	}

	status, raw = s.do(t, http.MethodGet, "/api/content?action=login&password="+adminPassword, nil, "")
	if status != http.StatusOK {
		t.Fatalf("content login %d: %s", status, raw)
	}
	var login loginResponse
	mustDecode(t, raw, &login)

	status, raw = s.do(t, http.MethodGet, "/api/content?action=get_registrations&token="+login.Token, nil, "")
	if status != http.StatusOK {
		t.Fatalf("registrations %d: %s", status, raw)
	}
	var regs []content.RegistrationSummary
	mustDecode(t, raw, &regs)
	if len(regs) != 1 || regs[0].Team != "Pi Rates" || regs[0].Status != "Registered" {
		t.Fatalf("unexpected registrations %+v", regs)
	}

	blog := map[string]string{"action": "create_blog", "title": "On Infinity", "author": "Cantor", "content": "Big."}
	status, raw = s.do(t, http.MethodPost, "/api/content", blog, "")
	if status != http.StatusUnauthorized || errorMessage(t, raw) != "Unauthorized: Invalid Token" {
		t.Fatalf("expected unauthorized blog create, got %d: %s", status, raw)
	}
	blog["token"] = login.Token
	if status, raw := s.do(t, http.MethodPost, "/api/content", blog, ""); status != http.StatusOK {
		t.Fatalf("create blog %d: %s", status, raw)
	}

	status, raw = s.do(t, http.MethodGet, "/api/content?action=get_blogs", nil, "")
	if status != http.StatusOK {
		t.Fatalf("get blogs %d", status)
	}
	var blogs []domain.Blog
	mustDecode(t, raw, &blogs)
	if len(blogs) != 1 || blogs[0].ID != "on-infinity" {
		t.Fatalf("unexpected blogs %+v", blogs)
	}

	del := map[string]string{"action": "delete_blog", "id": "missing", "token": login.Token}
	if status, _ := s.do(t, http.MethodPost, "/api/content", del, ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 deleting a missing blog, got %d", status)
	}

	if status, _ := s.do(t, http.MethodGet, "/api/content?action=nope", nil, ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/content", map[string]string{"foo": "bar"}, ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown post, got %d", status)
	}
}

func TestPublicWritesAreRateLimited(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.01, RateBurst: 1})

	if status, _ := s.do(t, http.MethodPost, "/api/quiz/verify", verifyRequest{Code: "MATH-AAAA0001"}, ""); status != http.StatusOK {
		t.Fatalf("first request should pass, got %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/quiz/verify", verifyRequest{Code: "MATH-AAAA0001"}, ""); status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/leaderboard", nil, ""); status != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", status)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{AllowedOrigins: []string{"https://stamatics.test"}})

	req, _ := http.NewRequest(http.MethodOptions, s.URL+"/api/quiz/submit", nil)
	req.Header.Set("Origin", "https://stamatics.test")
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://stamatics.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, s.URL+"/healthz", nil)
	req.Header.Set("Origin", "https://evil.test")
	resp, err = s.Client().Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("origin should not be allowed, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	s.do(t, http.MethodGet, "/healthz", nil, "")
	s.do(t, http.MethodPost, "/api/quiz/submit", map[string]any{"code": "bad"}, "")

	status, raw := s.do(t, http.MethodGet, "/metrics", nil, "")
	if status != http.StatusOK {
		t.Fatalf("metrics status %d", status)
	}
	text := string(raw)
	for _, want := range []string{`endpoint="GET /healthz"`, `quiz_submissions_total{outcome="invalid_code"} 1`} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}

func TestIPLimiterSweepsIdleVisitors(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatalf("first request should pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatalf("second immediate request should be limited")
	}
	now = now.Add(10 * time.Minute)
	if !l.allow("10.0.0.2") {
		t.Fatalf("new visitor should pass")
	}
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatalf("idle visitor should have been swept")
	}
}
