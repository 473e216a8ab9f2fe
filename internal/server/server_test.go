package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	authmocks "github.com/smallbiznis/seatwise/internal/auth/mocks"
	"github.com/smallbiznis/seatwise/internal/auth/session"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	dashboarddomain "github.com/smallbiznis/seatwise/internal/dashboard/domain"
	dashboardmocks "github.com/smallbiznis/seatwise/internal/dashboard/mocks"
	departmentmocks "github.com/smallbiznis/seatwise/internal/department/mocks"
	environmentaldomain "github.com/smallbiznis/seatwise/internal/environmental/domain"
	environmentalmocks "github.com/smallbiznis/seatwise/internal/environmental/mocks"
	gamificationdomain "github.com/smallbiznis/seatwise/internal/gamification/domain"
	gamificationmocks "github.com/smallbiznis/seatwise/internal/gamification/mocks"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	insightmocks "github.com/smallbiznis/seatwise/internal/insight/mocks"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	licensemocks "github.com/smallbiznis/seatwise/internal/license/mocks"
	"github.com/smallbiznis/seatwise/internal/observability"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	organizationmocks "github.com/smallbiznis/seatwise/internal/organization/mocks"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testUserID snowflake.ID = 7
	testOrgID  snowflake.ID = 100
)

type authzCall struct {
	actor  string
	orgID  string
	object string
	action string
}

type fakeAuthorizer struct {
	err   error
	calls []authzCall
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	f.calls = append(f.calls, authzCall{actor: actor, orgID: orgID, object: object, action: action})
	return f.err
}

type testHarness struct {
	engine        *gin.Engine
	auth          *authmocks.MockService
	organizations *organizationmocks.MockService
	departments   *departmentmocks.MockService
	licenses      *licensemocks.MockService
	insights      *insightmocks.MockService
	gamification  *gamificationmocks.MockService
	environmental *environmentalmocks.MockService
	dashboard     *dashboardmocks.MockService
	authz         *fakeAuthorizer
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	h := &testHarness{
		engine:        NewEngine(observability.Config{}, nil),
		auth:          authmocks.NewMockService(ctrl),
		organizations: organizationmocks.NewMockService(ctrl),
		departments:   departmentmocks.NewMockService(ctrl),
		licenses:      licensemocks.NewMockService(ctrl),
		insights:      insightmocks.NewMockService(ctrl),
		gamification:  gamificationmocks.NewMockService(ctrl),
		environmental: environmentalmocks.NewMockService(ctrl),
		dashboard:     dashboardmocks.NewMockService(ctrl),
		authz:         &fakeAuthorizer{},
	}

	srv := NewServer(ServerParams{
		Gin:              h.engine,
		Cfg:              config.Config{},
		Log:              zaptest.NewLogger(t),
		Clock:            clock.NewFakeClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)),
		Sessions:         session.NewManager(config.Config{}),
		Authsvc:          h.auth,
		AuthzSvc:         h.authz,
		OrganizationSvc:  h.organizations,
		DepartmentSvc:    h.departments,
		LicenseSvc:       h.licenses,
		InsightSvc:       h.insights,
		GamificationSvc:  h.gamification,
		EnvironmentalSvc: h.environmental,
		DashboardSvc:     h.dashboard,
	})
	srv.RegisterRoutes()
	return h
}

// signedIn expects a valid session cookie and a membership with the given role.
func (h *testHarness) signedIn(role string) {
	h.auth.EXPECT().Authenticate(gomock.Any(), "session-token").
		Return(&authdomain.User{ID: testUserID, Email: "owner@acme.test", DisplayName: "Owner"}, nil)
	h.organizations.EXPECT().ResolveProfile(gomock.Any(), testUserID, "").
		Return(&organizationdomain.Profile{OrgID: testOrgID, UserID: testUserID, Role: role}, nil)
}

func (h *testHarness) do(method, path string, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "session-token"})
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresAuthentication(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/licenses", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Type)
}

func TestExpiredSessionIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().Authenticate(gomock.Any(), "session-token").Return(nil, authdomain.ErrSessionExpired)

	rec := h.do(http.MethodGet, "/api/dashboard/overview", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenScopesRequestToProfile(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().AuthenticateBearer(gomock.Any(), "jwt-token").
		Return(&authdomain.User{ID: testUserID}, nil)
	h.organizations.EXPECT().ResolveProfile(gomock.Any(), testUserID, "200").
		Return(&organizationdomain.Profile{OrgID: snowflake.ID(200), UserID: testUserID, Role: organizationdomain.RoleManager}, nil)
	h.dashboard.EXPECT().Overview(gomock.Any()).DoAndReturn(func(ctx context.Context) (*dashboarddomain.Overview, error) {
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, snowflake.ID(200), orgID)
		assert.Equal(t, organizationdomain.RoleManager, orgcontext.RoleFromContext(ctx))
		return &dashboarddomain.Overview{TotalLicenses: 4, UtilizationRate: 56}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	req.Header.Set(HeaderOrg, "200")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data dashboarddomain.Overview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Data.TotalLicenses)
	assert.Equal(t, 56, resp.Data.UtilizationRate)
}

func TestMissingMembershipIsForbidden(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().Authenticate(gomock.Any(), "session-token").Return(&authdomain.User{ID: testUserID}, nil)
	h.organizations.EXPECT().ResolveProfile(gomock.Any(), testUserID, "").
		Return(nil, organizationdomain.ErrProfileNotFound)

	rec := h.do(http.MethodGet, "/api/licenses", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "profile_not_found", decodeError(t, rec).Type)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newHarness(t)
	expires := time.Now().Add(7 * 24 * time.Hour)
	h.auth.EXPECT().Login(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
		assert.Equal(t, "owner@acme.test", req.Email)
		assert.Equal(t, "hunter22", req.Password)
		return &authdomain.LoginResult{
			User:      &authdomain.User{ID: testUserID, Email: req.Email},
			RawToken:  "new-session",
			ExpiresAt: expires,
		}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":" owner@acme.test ","password":"hunter22"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "new-session", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, authdomain.ErrInvalidCredentials)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.test","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidatesBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"password":"hunter22"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "email", payload.Errors[0].Field)
	assert.Equal(t, "required", payload.Errors[0].Code)
}

func TestMeWithoutMembership(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().Authenticate(gomock.Any(), "session-token").
		Return(&authdomain.User{ID: testUserID, Email: "new@acme.test"}, nil)
	h.organizations.EXPECT().ResolveProfile(gomock.Any(), testUserID, "").
		Return(nil, organizationdomain.ErrProfileNotFound)

	rec := h.do(http.MethodGet, "/auth/me", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			User    authdomain.User `json:"user"`
			Profile *profileView    `json:"profile"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new@acme.test", resp.Data.User.Email)
	assert.Nil(t, resp.Data.Profile)
}

func TestCreateOrganizationDomainTaken(t *testing.T) {
	h := newHarness(t)
	h.auth.EXPECT().Authenticate(gomock.Any(), "session-token").
		Return(&authdomain.User{ID: testUserID, Email: "owner@acme.test", DisplayName: "Owner"}, nil)
	h.organizations.EXPECT().Create(gomock.Any(), testUserID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, userID snowflake.ID, req organizationdomain.CreateOrganizationRequest) (*organizationdomain.CurrentOrganizationResponse, error) {
			assert.Equal(t, "Acme", req.Name)
			assert.Equal(t, "acme.test", req.Domain)
			assert.Equal(t, "owner@acme.test", req.OwnerEmail)
			return nil, organizationdomain.ErrDomainTaken
		})

	rec := h.do(http.MethodPost, "/api/organizations", `{"name":" Acme ","domain":"acme.test"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "domain_taken", decodeError(t, rec).Type)
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.authz.err = authorization.ErrForbidden

	rec := h.do(http.MethodPatch, "/api/organization/settings", `{"currency":"EUR"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, h.authz.calls, 1)
	assert.Equal(t, authzCall{
		actor:  "user:7",
		orgID:  "100",
		object: authorization.ObjectOrganization,
		action: authorization.ActionSettingsUpdate,
	}, h.authz.calls[0])
}

func TestGenerateInsightsForwardsIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleManager)
	h.insights.EXPECT().GenerateUnusedLicenseInsights(gomock.Any(), insightdomain.GenerateRequest{IdempotencyKey: "req-1"}).
		Return(&insightdomain.GenerationReport{RunID: "01HX", Created: 2, Failures: []insightdomain.GenerationFailure{}}, nil)

	rec := h.do(http.MethodPost, "/api/insights/generate", "", headerIdempotencyKey, "req-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created":2`)
}

func TestGenerateInsightsRunInProgress(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleAdmin)
	h.insights.EXPECT().GenerateUnusedLicenseInsights(gomock.Any(), gomock.Any()).Return(nil, runlock.ErrRunInProgress)

	rec := h.do(http.MethodPost, "/api/insights/generate", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "run_in_progress", decodeError(t, rec).Type)
}

func TestGenerateInsightsDeniedSkipsService(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.authz.err = authorization.ErrForbidden

	rec := h.do(http.MethodPost, "/api/insights/generate", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateInsightStatusRejectsInvalidTransition(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.insights.EXPECT().UpdateStatus(gomock.Any(), insightdomain.UpdateStatusRequest{ID: "55", Status: insightdomain.StatusResolved}).
		Return(nil, insightdomain.ErrInvalidStatusTransition)

	rec := h.do(http.MethodPatch, "/api/insights/55/status", `{"status":"resolved"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "status", payload.Errors[0].Field)
	assert.Equal(t, "invalid_status_transition", payload.Errors[0].Code)
}

func TestUpdateInsightStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)

	rec := h.do(http.MethodPatch, "/api/insights/55/status", `{"status":"archived"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "status", payload.Errors[0].Field)
	assert.Equal(t, "insight_status", payload.Errors[0].Code)
}

func TestListLicensesRejectsUnknownStatusFilter(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)

	rec := h.do(http.MethodGet, "/api/licenses?status=paused", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "license_status", decodeError(t, rec).Errors[0].Code)
}

func TestGetLicenseInAnotherOrgIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.licenses.EXPECT().Get(gomock.Any(), "999").Return(nil, licensedomain.ErrNotFound)

	rec := h.do(http.MethodGet, "/api/licenses/999", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportLicensesStreamsWorkbook(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.licenses.EXPECT().Export(gomock.Any(), licensedomain.ListRequest{Category: "Design"}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, req licensedomain.ListRequest, w io.Writer) error {
			_, err := w.Write([]byte("PK\x03\x04"))
			return err
		})

	rec := h.do(http.MethodGet, "/api/licenses/export?category=Design", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "licenses-2025-03-14.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestLeaderboardRejectsUnknownPeriodType(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)

	rec := h.do(http.MethodGet, "/api/gamification/leaderboard?period_type=weekly", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "period_type", payload.Errors[0].Field)
	assert.Equal(t, "period_type", payload.Errors[0].Code)
}

func TestCalculateScoresWithoutBody(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleManager)
	h.gamification.EXPECT().CalculateScores(gomock.Any(), gamificationdomain.CalculateRequest{}).
		Return(&gamificationdomain.ScoringReport{Period: "2025-03", PeriodType: "monthly", Scored: 5, Failures: []gamificationdomain.ScoringFailure{}}, nil)

	rec := h.do(http.MethodPost, "/api/gamification/scores/calculate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scored":5`)
	require.Len(t, h.authz.calls, 1)
	assert.Equal(t, authorization.ActionScoreCalculate, h.authz.calls[0].action)
}

func TestAwardBadgeAdminRequired(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleManager)
	h.gamification.EXPECT().AwardBadge(gomock.Any(), gomock.Any()).Return(nil, gamificationdomain.ErrAdminRequired)

	rec := h.do(http.MethodPost, "/api/gamification/badges", `{"department_id":"3","badge_type":"cost_champion"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decodeError(t, rec).Message)
}

func TestImpactTrendRejectsNonNumericMonths(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)

	rec := h.do(http.MethodGet, "/api/environmental/trend?months=six", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_months", decodeError(t, rec).Errors[0].Code)
}

func TestImpactTrendDefaultsMonths(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.environmental.EXPECT().Trend(gomock.Any(), 0).
		Return([]environmentaldomain.OverviewResponse{{Period: "2025-02", CO2SavedKg: 3}}, nil)

	rec := h.do(http.MethodGet, "/api/environmental/trend", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":"2025-02"`)
}

func TestImpactReportDownload(t *testing.T) {
	h := newHarness(t)
	h.signedIn(organizationdomain.RoleUser)
	h.environmental.EXPECT().Report(gomock.Any(), "", gomock.Any()).
		DoAndReturn(func(ctx context.Context, selected string, w io.Writer) error {
			_, err := w.Write([]byte("%PDF-1.4"))
			return err
		})

	rec := h.do(http.MethodGet, "/api/environmental/report.pdf", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sustainability-2025-03.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
