package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/Diego23-co/GoPredict/internal/domain/match"
	"github.com/Diego23-co/GoPredict/internal/usecase"
)

const maxRequestBody = 1 << 20

type Handler struct {
	matchService      *usecase.MatchService
	predictionService *usecase.PredictionService
	scoringService    *usecase.ScoringService
	accountService    *usecase.AccountService
	feedService       *usecase.FeedSyncService
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	predictionService *usecase.PredictionService,
	scoringService *usecase.ScoringService,
	accountService *usecase.AccountService,
	feedService *usecase.FeedSyncService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:      matchService,
		predictionService: predictionService,
		scoringService:    scoringService,
		accountService:    accountService,
		feedService:       feedService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListMatches returns the fixtures visible today: everything kicking
// off on the current local date plus in-play carryovers from earlier
// dates.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	fixtures, err := h.matchService.ListToday(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	counts, err := h.predictionService.CountByFixture(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "count predictions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(fixtures))
	for _, f := range fixtures {
		items = append(items, matchToDTO(f, counts[f.Ordinal]))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	ordinal, err := strconv.Atoi(r.PathValue("ordinal"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: match ordinal must be an integer", usecase.ErrInvalidInput))
		return
	}

	fixture, err := h.matchService.GetFixture(ctx, ordinal)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "ordinal", ordinal, "error", err)
		writeError(ctx, w, err)
		return
	}

	counts, err := h.predictionService.CountByFixture(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "count predictions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(fixture, counts[fixture.Ordinal]))
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	entries, err := h.scoringService.ComputeLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "compute leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardEntryDTO, 0, len(entries))
	for rank, entry := range entries {
		items = append(items, leaderboardEntryDTO{
			Rank:     rank + 1,
			Username: entry.Username,
			Points:   entry.Points,
			Badge:    entry.Badge,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPrediction")
	defer span.End()

	username, ok := usernameFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no authenticated user", usecase.ErrUnauthorized))
		return
	}

	var req submitPredictionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.predictionService.Submit(ctx, username, req.FixtureOrdinal, *req.PredictedHome, *req.PredictedAway); err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed",
			"username", username,
			"ordinal", req.FixtureOrdinal,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]any{
		"fixtureOrdinal": req.FixtureOrdinal,
		"predictedHome":  *req.PredictedHome,
		"predictedAway":  *req.PredictedAway,
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProfile")
	defer span.End()

	username, ok := usernameFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no authenticated user", usecase.ErrUnauthorized))
		return
	}

	profile, err := h.scoringService.ComputeUserProfile(ctx, username)
	if err != nil {
		h.logger.ErrorContext(ctx, "compute profile failed", "username", username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(profile))
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.decodeRequest")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type matchDTO struct {
	Ordinal         int    `json:"ordinal"`
	Competition     string `json:"competition"`
	HomeTeam        string `json:"homeTeam"`
	AwayTeam        string `json:"awayTeam"`
	HomeCrest       string `json:"homeCrest,omitempty"`
	AwayCrest       string `json:"awayCrest,omitempty"`
	KickoffUTC      string `json:"kickoffUtc"`
	Status          string `json:"status"`
	HomeScore       *int   `json:"homeScore"`
	AwayScore       *int   `json:"awayScore"`
	PredictionCount int    `json:"predictionCount"`
}

type leaderboardEntryDTO struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Badge    string `json:"badge,omitempty"`
}

type profileDTO struct {
	Username        string            `json:"username"`
	TotalPoints     int               `json:"totalPoints"`
	ExactCount      int               `json:"exactCount"`
	PredictionCount int               `json:"predictionCount"`
	Badge           string            `json:"badge,omitempty"`
	Entries         []profileEntryDTO `json:"entries"`
}

type profileEntryDTO struct {
	Match         matchDTO `json:"match"`
	PredictedHome int      `json:"predictedHome"`
	PredictedAway int      `json:"predictedAway"`
	Outcome       string   `json:"outcome"`
	Points        int      `json:"points"`
}

// Home and away use pointers so that an omitted score fails validation
// instead of silently reading as zero.
type submitPredictionRequest struct {
	FixtureOrdinal int  `json:"fixtureOrdinal" validate:"required,min=1"`
	PredictedHome  *int `json:"predictedHome" validate:"required,min=0,max=99"`
	PredictedAway  *int `json:"predictedAway" validate:"required,min=0,max=99"`
}

func matchToDTO(f match.Fixture, predictionCount int) matchDTO {
	return matchDTO{
		Ordinal:         f.Ordinal,
		Competition:     f.Competition,
		HomeTeam:        f.HomeTeam,
		AwayTeam:        f.AwayTeam,
		HomeCrest:       f.HomeCrest,
		AwayCrest:       f.AwayCrest,
		KickoffUTC:      f.KickoffUTC.UTC().Format(time.RFC3339),
		Status:          f.Status,
		HomeScore:       f.HomeScore,
		AwayScore:       f.AwayScore,
		PredictionCount: predictionCount,
	}
}

func profileToDTO(p usecase.UserProfile) profileDTO {
	entries := make([]profileEntryDTO, 0, len(p.Entries))
	for _, entry := range p.Entries {
		entries = append(entries, profileEntryDTO{
			Match:         matchToDTO(entry.Fixture, 0),
			PredictedHome: entry.PredictedHome,
			PredictedAway: entry.PredictedAway,
			Outcome:       entry.Outcome,
			Points:        entry.Points,
		})
	}

	return profileDTO{
		Username:        p.Username,
		TotalPoints:     p.TotalPoints,
		ExactCount:      p.ExactCount,
		PredictionCount: p.PredictionCount,
		Badge:           p.Badge,
		Entries:         entries,
	}
}
