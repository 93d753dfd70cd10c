package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/infrastructure/repository/memory"
	"github.com/Diego23-co/GoPredict/internal/platform/cache"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
	"github.com/Diego23-co/GoPredict/internal/usecase"
)

type testEnv struct {
	router http.Handler
	store  *memory.MatchStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	store := memory.NewMatchStore()
	ledger := memory.NewPredictionLedger()
	accounts := memory.NewAccountRepository()
	nop := logging.NewNop()

	competitions := []usecase.Competition{{ID: 2021, Name: "Premier League"}}
	matchService := usecase.NewMatchService(store, competitions, time.UTC, nop)
	predictionService := usecase.NewPredictionService(store, ledger, usecase.PredictionConfig{DailyLimit: 10}, time.UTC, nop)
	scoringService := usecase.NewScoringService(store, ledger, accounts, nop)
	accountService := usecase.NewAccountService(accounts, cache.NewStore(time.Hour), cache.NewStore(10*time.Minute), nil, nop)
	feedService := usecase.NewFeedSyncService(nil, store, usecase.FeedSyncConfig{}, time.UTC, nop)

	handler := NewHandler(matchService, predictionService, scoringService, accountService, feedService, slog.New(slog.DiscardHandler))
	router := NewRouter(handler, accountService, slog.New(slog.DiscardHandler), []string{"*"}, "job-secret")

	return testEnv{router: router, store: store}
}

func (e testEnv) seedTodayFixture(t *testing.T) int {
	t.Helper()
	_, err := e.store.UpsertFromFeed(context.Background(), match.Candidate{
		Competition: "Premier League",
		HomeTeam:    "Arsenal",
		AwayTeam:    "Chelsea",
		KickoffUTC:  time.Now().UTC().Truncate(time.Minute),
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	fixtures, err := e.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return fixtures[len(fixtures)-1].Ordinal
}

func (e testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"s3cret-pass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"loginId":"`+username+`","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return envelope.Data.AccessToken
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ListMatchesIncludesSeededFixture(t *testing.T) {
	env := newTestEnv(t)
	env.seedTodayFixture(t)

	rec := env.do(t, http.MethodGet, "/v1/matches", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []matchDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].HomeTeam != "Arsenal" {
		t.Fatalf("unexpected matches payload: %+v", envelope.Data)
	}
}

func TestRouter_SubmitPredictionFlow(t *testing.T) {
	env := newTestEnv(t)
	ordinal := env.seedTodayFixture(t)
	token := env.registerAndLogin(t, "ann")

	body := `{"fixtureOrdinal":1,"predictedHome":2,"predictedAway":1}`

	rec := env.do(t, http.MethodPost, "/v1/predictions", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/predictions", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same fixture again maps to 409.
	rec = env.do(t, http.MethodPost, "/v1/predictions", token, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d: %s", rec.Code, rec.Body.String())
	}

	// Locked fixture also maps to 409.
	if err := env.store.UpdateStatusAndScore(context.Background(), ordinal, match.StatusLive, nil, nil); err != nil {
		t.Fatalf("set live: %v", err)
	}
	other := env.registerAndLogin(t, "bob")
	rec = env.do(t, http.MethodPost, "/v1/predictions", other, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for locked match, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/profile", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 profile, got %d", rec.Code)
	}
	var envelope struct {
		Data profileDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if envelope.Data.PredictionCount != 1 || envelope.Data.Entries[0].PredictedHome != 2 {
		t.Fatalf("unexpected profile: %+v", envelope.Data)
	}
}

func TestRouter_SubmitPredictionValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedTodayFixture(t)
	token := env.registerAndLogin(t, "ann")

	rec := env.do(t, http.MethodPost, "/v1/predictions", token, `{"fixtureOrdinal":1,"predictedHome":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing away score, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/predictions", token, `{"fixtureOrdinal":1,"predictedHome":-1,"predictedAway":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative score, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/predictions", token, `{"fixtureOrdinal":999,"predictedHome":1,"predictedAway":0}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown fixture, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_LeaderboardRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "ann")

	rec := env.do(t, http.MethodGet, "/v1/leaderboard", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/leaderboard", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	var envelope struct {
		Data []leaderboardEntryDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Rank != 1 || envelope.Data[0].Points != 0 {
		t.Fatalf("unexpected leaderboard: %+v", envelope.Data)
	}
}

func TestRouter_OTPFlowIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "ann")

	rec := env.do(t, http.MethodPost, "/v1/auth/otp/request", "", `{"username":"ann"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 requesting code without a session, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	code := envelope.Data["code"]
	if code == "" {
		t.Fatalf("expected a code in the response, got %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/otp/verify", "", `{"username":"ann","code":"`+code+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 verifying code, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/otp/request", "", `{"username":"nobody"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}
}

func TestRouter_InternalJobTokenGuard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/internal/jobs/reset-predictions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without job token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/reset-predictions", strings.NewReader(""))
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with job token, got %d: %s", rec.Code, rec.Body.String())
	}
}
