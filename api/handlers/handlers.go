package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/atomid/api/metrics"
	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
)

// MaxBatchSize is the maximum number of wallets accepted by the batch verify endpoint.
const MaxBatchSize = 100

// maxBodyBytes bounds batch request bodies.
const maxBodyBytes = 64 << 10

type ErrorResponse struct {
	Error string `json:"error"`
}

type RankResponse struct {
	Wallet string      `json:"wallet"`
	Exists bool        `json:"exists"`
	Rank   atomid.Rank `json:"rank"`
	Name   string      `json:"name"`
	Emoji  string      `json:"emoji"`
}

type ProgressResponse struct {
	Wallet       string       `json:"wallet"`
	Rank         atomid.Rank  `json:"rank"`
	TotalBurned  uint64       `json:"total_burned,string"`
	Percentage   int64        `json:"percentage"`
	AmountNeeded string       `json:"amount_needed"`
	NextRank     *atomid.Rank `json:"next_rank"`
	NextRankName string       `json:"next_rank_name,omitempty"`
}

type GateResponse struct {
	Wallet       string       `json:"wallet"`
	HasAccess    bool         `json:"has_access"`
	CurrentRank  atomid.Rank  `json:"current_rank"`
	RequiredRank atomid.Rank  `json:"required_rank"`
	MaxRank      *atomid.Rank `json:"max_rank,omitempty"`
}

type BatchVerifyRequest struct {
	Wallets []string `json:"wallets"`
}

type BatchVerifyResponse struct {
	Results []atomid.VerificationResult `json:"results"`
}

type LeaderboardResponse struct {
	Items []atomid.Account `json:"items"`
	Total int              `json:"total"`
	Limit int              `json:"limit"`
}

// Handler serves the AtomID gate endpoints over a shared client.
type Handler struct {
	log    *slog.Logger
	client *atomid.Client
}

func New(log *slog.Logger, client *atomid.Client) *Handler {
	return &Handler{log: log, client: client}
}

// Routes mounts the v1 endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/verify/{wallet}", h.GetVerify)
	r.Post("/verify", h.PostVerifyBatch)
	r.Get("/rank/{wallet}", h.GetRank)
	r.Get("/progress/{wallet}", h.GetProgress)
	r.Get("/gate/{wallet}", h.GetGate)
	r.Get("/leaderboard", h.GetLeaderboard)
}

// GetVerify returns the verification result for a wallet.
func (h *Handler) GetVerify(w http.ResponseWriter, r *http.Request) {
	result, ok := h.verify(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetRank returns the rank of a wallet. Wallets without a record are rank 0.
func (h *Handler) GetRank(w http.ResponseWriter, r *http.Request) {
	result, ok := h.verify(w, r)
	if !ok {
		return
	}
	var rank atomid.Rank
	if result.Account != nil {
		rank = result.Account.Rank
	}
	writeJSON(w, http.StatusOK, RankResponse{
		Wallet: chi.URLParam(r, "wallet"),
		Exists: result.Exists,
		Rank:   rank,
		Name:   rank.Name(),
		Emoji:  rank.Emoji(),
	})
}

// GetProgress returns progress to the next rank. Wallets without a record
// report zero progress and no next rank.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	result, ok := h.verify(w, r)
	if !ok {
		return
	}
	resp := ProgressResponse{
		Wallet:       chi.URLParam(r, "wallet"),
		AmountNeeded: "0",
	}
	if acc := result.Account; acc != nil {
		p := atomid.ProgressToNextRank(acc.TotalBurned, acc.Rank)
		resp.Rank = acc.Rank
		resp.TotalBurned = acc.TotalBurned
		resp.Percentage = p.Percentage
		resp.AmountNeeded = p.AmountNeeded.String()
		resp.NextRank = p.NextRank
		if p.NextRank != nil {
			resp.NextRankName = p.NextRank.Name()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGate checks a wallet against min_rank and optional max_rank query parameters.
func (h *Handler) GetGate(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequirement(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, ok := h.verify(w, r)
	if !ok {
		return
	}
	var rank atomid.Rank
	if result.Account != nil {
		rank = result.Account.Rank
	}
	allowed := req.Satisfied(rank)
	metrics.RecordGateDecision(allowed)

	writeJSON(w, http.StatusOK, GateResponse{
		Wallet:       chi.URLParam(r, "wallet"),
		HasAccess:    allowed,
		CurrentRank:  rank,
		RequiredRank: req.MinRank,
		MaxRank:      req.MaxRank,
	})
}

// PostVerifyBatch verifies up to MaxBatchSize wallets. Results are in request
// order; per-wallet failures are reported in each result.
func (h *Handler) PostVerifyBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchVerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Wallets) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, "too many wallets: max "+strconv.Itoa(MaxBatchSize))
		return
	}
	results := h.client.VerifyBatch(r.Context(), req.Wallets)
	writeJSON(w, http.StatusOK, BatchVerifyResponse{Results: results})
}

// GetLeaderboard returns the top holders ordered by rank then total burned.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimit(r, DefaultLimit)
	accounts, err := h.client.GetLeaderboard(r.Context(), limit)
	if err != nil {
		h.log.Error("api: leaderboard failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load leaderboard")
		return
	}
	if accounts == nil {
		accounts = []atomid.Account{}
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Items: accounts,
		Total: len(accounts),
		Limit: limit,
	})
}

// verify parses the wallet path parameter and looks it up, writing the error
// response itself when the lookup cannot be answered.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) (atomid.VerificationResult, bool) {
	wallet := chi.URLParam(r, "wallet")
	owner, err := atomid.ParseIdentity(wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return atomid.VerificationResult{}, false
	}
	result := h.client.VerifyPublicKey(r.Context(), owner)
	if result.Error != "" {
		h.log.Warn("api: verify failed", "wallet", wallet, "error", result.Error)
		writeJSON(w, http.StatusBadGateway, result)
		return atomid.VerificationResult{}, false
	}
	return result, true
}

func parseRequirement(r *http.Request) (atomid.RankRequirement, error) {
	var req atomid.RankRequirement

	minRank, err := parseRankParam(r, "min_rank")
	if err != nil {
		return req, err
	}
	if minRank != nil {
		req.MinRank = *minRank
	}

	maxRank, err := parseRankParam(r, "max_rank")
	if err != nil {
		return req, err
	}
	if maxRank != nil {
		if *maxRank < req.MinRank {
			return req, errors.New("max_rank must not be below min_rank")
		}
		req.MaxRank = maxRank
	}
	return req, nil
}

func parseRankParam(r *http.Request, name string) (*atomid.Rank, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	rank, err := atomid.ValidateRank(v)
	if err != nil {
		return nil, errors.New(name + ": " + err.Error())
	}
	return &rank, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
