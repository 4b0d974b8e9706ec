package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/ctxutil"
	"github.com/example/vital/internal/ports/primary"
)

const testJWTSecret = "test-secret"

type fakeEscalationService struct {
	autoActor  string
	autoIssue  string
	autoResult *primary.AutoEscalationResult
	autoErr    error

	manualReq    primary.ManualEscalationRequest
	manualResult *primary.ManualEscalationResult
	manualErr    error

	sweepCalls  int
	sweepResult *primary.SweepResult
	sweepErr    error
}

func (f *fakeEscalationService) TriggerAutoEscalation(ctx context.Context, issueID string) (*primary.AutoEscalationResult, error) {
	f.autoActor = ctxutil.ActorFromContext(ctx)
	f.autoIssue = issueID
	if f.autoActor == "" {
		return nil, primary.NewError(primary.KindUnauthenticated, "User must be authenticated")
	}
	return f.autoResult, f.autoErr
}

func (f *fakeEscalationService) ManualEscalate(ctx context.Context, req primary.ManualEscalationRequest) (*primary.ManualEscalationResult, error) {
	f.manualReq = req
	return f.manualResult, f.manualErr
}

func (f *fakeEscalationService) SweepOverdue(ctx context.Context) (*primary.SweepResult, error) {
	f.sweepCalls++
	return f.sweepResult, f.sweepErr
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Server.RateLimit = config.RateLimit{}
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, svc primary.EscalationService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := NewServer(zaptest.NewLogger(t), cfg, true, svc)
	return s
}

func signToken(t *testing.T, secret, subject string, method jwt.SigningMethod, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTriggerAutoEscalation_Success(t *testing.T) {
	svc := &fakeEscalationService{autoResult: &primary.AutoEscalationResult{
		Success: true, Message: "Issue escalated to TDO (level 1)", NewLevel: 1, AssignedRole: "tdo",
	}}
	s := newTestServer(t, testConfig(), svc)
	token := signToken(t, testJWTSecret, "USER-001", jwt.SigningMethodHS256, time.Hour)

	w := doRequest(s, http.MethodPost, "/triggerAutoEscalation", `{"issueId":"ISSUE-001"}`,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "USER-001", svc.autoActor)
	assert.Equal(t, "ISSUE-001", svc.autoIssue)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["newLevel"])
	assert.Equal(t, "Issue escalated to TDO (level 1)", body["message"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestTriggerAutoEscalation_Auth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"no token", "", http.StatusUnauthorized, true},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, false},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, false},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "USER-001", jwt.SigningMethodHS256, time.Hour), http.StatusUnauthorized, false},
		{"expired", "Bearer " + signToken(t, testJWTSecret, "USER-001", jwt.SigningMethodHS256, -time.Minute), http.StatusUnauthorized, false},
		{"wrong algorithm", "Bearer " + signToken(t, testJWTSecret, "USER-001", jwt.SigningMethodHS512, time.Hour), http.StatusUnauthorized, false},
		{"no subject", "Bearer " + signToken(t, testJWTSecret, "", jwt.SigningMethodHS256, time.Hour), http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEscalationService{}
			s := newTestServer(t, testConfig(), svc)
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}

			w := doRequest(s, http.MethodPost, "/triggerAutoEscalation", `{"issueId":"ISSUE-001"}`, headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "UNAUTHORIZED", body.Code)
			assert.Equal(t, "unauthenticated", body.Status)
			assert.Equal(t, tt.wantCalled, svc.autoIssue != "")
		})
	}
}

func TestTriggerAutoEscalation_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
		wantKind   string
		wantMsg    string
	}{
		{primary.NewError(primary.KindInvalidArgument, "issueId is required"), http.StatusBadRequest, "BAD_REQUEST", "invalid-argument", "issueId is required"},
		{primary.NewError(primary.KindNotFound, "Issue not found"), http.StatusNotFound, "NOT_FOUND", "not-found", "Issue not found"},
		{primary.NewError(primary.KindFailedPrecondition, "Issue is already at maximum escalation level"), http.StatusPreconditionFailed, "FAILED_PRECONDITION", "failed-precondition", "Issue is already at maximum escalation level"},
		{primary.WrapInternal("failed to escalate issue", assert.AnError), http.StatusInternalServerError, "INTERNAL_ERROR", "internal", "failed to escalate issue"},
	}

	token := signToken(t, testJWTSecret, "USER-001", jwt.SigningMethodHS256, time.Hour)
	for _, tt := range tests {
		t.Run(tt.wantKind, func(t *testing.T) {
			s := newTestServer(t, testConfig(), &fakeEscalationService{autoErr: tt.err})

			w := doRequest(s, http.MethodPost, "/triggerAutoEscalation", `{"issueId":"ISSUE-001"}`,
				map[string]string{"Authorization": "Bearer " + token})

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantKind, body.Status)
			assert.Equal(t, tt.wantMsg, body.Error)
			assert.NotContains(t, w.Body.String(), assert.AnError.Error())
		})
	}
}

func TestTriggerAutoEscalation_MalformedBody(t *testing.T) {
	svc := &fakeEscalationService{}
	s := newTestServer(t, testConfig(), svc)
	token := signToken(t, testJWTSecret, "USER-001", jwt.SigningMethodHS256, time.Hour)

	w := doRequest(s, http.MethodPost, "/triggerAutoEscalation", `{"issueId":`,
		map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.autoIssue)
}

func TestManualEscalateIssue(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"missing params", primary.NewError(primary.KindInvalidArgument, "issueId and userId are required"), http.StatusBadRequest, "BAD_REQUEST"},
		{"not owner", primary.NewError(primary.KindPermissionDenied, "Not authorized to escalate this issue"), http.StatusForbidden, "FORBIDDEN"},
		{"not found", primary.NewError(primary.KindNotFound, "Issue not found"), http.StatusNotFound, "NOT_FOUND"},
		{"no authority", primary.NewError(primary.KindNotFound, "No authority found for tdo"), http.StatusNotFound, "NOT_FOUND"},
		{"before due", primary.NewError(primary.KindFailedPrecondition, "Escalation only allowed after due date"), http.StatusBadRequest, "FAILED_PRECONDITION"},
		{"already used", primary.NewError(primary.KindFailedPrecondition, "Manual escalation already used for this issue"), http.StatusBadRequest, "FAILED_PRECONDITION"},
		{"internal", primary.WrapInternal("failed to escalate issue", assert.AnError), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEscalationService{manualErr: tt.err}
			if tt.err == nil {
				svc.manualResult = &primary.ManualEscalationResult{
					Success: true, Message: "Issue escalated to TDO", EscalatedTo: "tdo", AuthorityEmail: "tdo@example.org", NewLevel: 1,
				}
			}
			s := newTestServer(t, testConfig(), svc)

			w := doRequest(s, http.MethodPost, "/manualEscalateIssue", `{"issueId":"ISSUE-001","userId":"USER-001"}`, nil)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, primary.ManualEscalationRequest{IssueID: "ISSUE-001", UserID: "USER-001"}, svc.manualReq)
			if tt.err == nil {
				var body primary.ManualEscalationResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, *svc.manualResult, body)
				return
			}
			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, primary.MessageOf(tt.err), body.Error)
			assert.Empty(t, body.Status)
		})
	}
}

func TestManualEscalateIssue_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://vital.example.org"}
	svc := &fakeEscalationService{}
	s := newTestServer(t, cfg, svc)

	w := doRequest(s, http.MethodOptions, "/manualEscalateIssue", "", map[string]string{
		"Origin":                        "https://vital.example.org",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://vital.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Empty(t, svc.manualReq.IssueID)
}

func TestManualEscalateIssue_CORSAnyOrigin(t *testing.T) {
	svc := &fakeEscalationService{manualResult: &primary.ManualEscalationResult{Success: true}}
	s := newTestServer(t, testConfig(), svc)

	w := doRequest(s, http.MethodPost, "/manualEscalateIssue", `{"issueId":"ISSUE-001","userId":"USER-001"}`,
		map[string]string{"Origin": "http://localhost:5173"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAutoEscalateOverdue(t *testing.T) {
	result := &primary.SweepResult{
		Success:   true,
		Processed: 2,
		Results: []primary.SweepOutcome{
			{IssueID: "ISSUE-001", Status: "escalated", From: "pdo", To: "tdo", AuthorityEmail: "tdo@example.org"},
			{IssueID: "ISSUE-002", Status: "skipped", Reason: "Cooldown active"},
		},
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			svc := &fakeEscalationService{sweepResult: result}
			s := newTestServer(t, testConfig(), svc)

			w := doRequest(s, method, "/autoEscalateOverdue", "", nil)

			require.Equal(t, http.StatusOK, w.Code)
			var body primary.SweepResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, *result, body)
			assert.Equal(t, 1, svc.sweepCalls)
		})
	}
}

func TestAutoEscalateOverdue_CronSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Cron.Secret = "s3cret"

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCalls  int
	}{
		{"missing header", nil, http.StatusUnauthorized, 0},
		{"wrong secret", map[string]string{CronSecretHeader: "guess"}, http.StatusUnauthorized, 0},
		{"matching secret", map[string]string{CronSecretHeader: "s3cret"}, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEscalationService{sweepResult: &primary.SweepResult{Success: true, Results: []primary.SweepOutcome{}}}
			s := newTestServer(t, cfg, svc)

			w := doRequest(s, http.MethodGet, "/autoEscalateOverdue", "", tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, svc.sweepCalls)
		})
	}
}

func TestAutoEscalateOverdue_Failure(t *testing.T) {
	svc := &fakeEscalationService{sweepErr: primary.WrapInternal("failed to list overdue issues", assert.AnError)}
	s := newTestServer(t, testConfig(), svc)

	w := doRequest(s, http.MethodPost, "/autoEscalateOverdue", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to list overdue issues", decodeError(t, w).Error)
}

func TestRateLimitOnEscalationRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimit{RequestsPerSecond: 0.001, Burst: 2}
	svc := &fakeEscalationService{sweepResult: &primary.SweepResult{Success: true}}
	s := newTestServer(t, cfg, svc)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := doRequest(s, http.MethodGet, "/autoEscalateOverdue", "", nil)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are not limited
	w := doRequest(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeEscalationService{})

	w := doRequest(s, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "version")

	w = doRequest(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vital_sweep_runs_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeEscalationService{})

	w := doRequest(s, http.MethodGet, "/healthz", "", map[string]string{RequestIDHeader: "req-123"})

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	s := newTestServer(t, cfg, &fakeEscalationService{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
