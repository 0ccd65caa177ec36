package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/ledger"
	"custody-ledger/internal/observability"
	"custody-ledger/internal/registry"
	"custody-ledger/internal/storage"
)

// adminHeader carries the caller principal for registry mutations.
const adminHeader = "X-Admin-Principal"

// apiServer exposes the bank over HTTP.
type apiServer struct {
	bank     *ledger.Bank
	registry *registry.Registry
	events   storage.LedgerEventStore
	logger   *log.Logger
	started  time.Time
}

func newAPIServer(bank *ledger.Bank, reg *registry.Registry, events storage.LedgerEventStore, logger *log.Logger) *apiServer {
	return &apiServer{
		bank:     bank,
		registry: reg,
		events:   events,
		logger:   logger,
		started:  time.Now(),
	}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /deposit", s.handleDeposit)
	mux.HandleFunc("POST /withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /assets", s.handleAddAsset)
	mux.HandleFunc("DELETE /assets", s.handleRemoveAsset)
	mux.HandleFunc("GET /assets", s.handleListAssets)
	mux.HandleFunc("GET /balance", s.handleBalance)
	mux.HandleFunc("GET /value", s.handleValue)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /supported", s.handleSupported)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// movementRequest is the JSON body for deposits and withdrawals.
type movementRequest struct {
	Principal string `json:"principal"`
	Asset     string `json:"asset"`
	Amount    uint64 `json:"amount"`
}

func (s *apiServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	principal, asset, amount, ok := s.decodeMovement(w, r)
	if !ok {
		return
	}

	if err := s.bank.Deposit(r.Context(), principal, asset, amount); err != nil {
		s.writeError(w, err)
		return
	}

	balance, err := s.bank.GetUserBalance(r.Context(), principal, asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principal": principal,
		"asset":     asset,
		"balance":   balance,
	})
}

func (s *apiServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	principal, asset, amount, ok := s.decodeMovement(w, r)
	if !ok {
		return
	}

	if err := s.bank.Withdraw(r.Context(), principal, asset, amount); err != nil {
		s.writeError(w, err)
		return
	}

	balance, err := s.bank.GetUserBalance(r.Context(), principal, asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principal": principal,
		"asset":     asset,
		"balance":   balance,
	})
}

// decodeMovement parses and validates a deposit/withdraw body.
func (s *apiServer) decodeMovement(w http.ResponseWriter, r *http.Request) (domain.Principal, domain.AssetID, uint64, bool) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return "", "", 0, false
	}

	principal := domain.Principal(req.Principal)
	if err := principal.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid principal: "+err.Error()))
		return "", "", 0, false
	}

	asset := domain.AssetID(req.Asset)
	if err := asset.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset: "+err.Error()))
		return "", "", 0, false
	}

	return principal, asset, req.Amount, true
}

// assetRequest is the JSON body for asset listing.
type assetRequest struct {
	Asset     string `json:"asset"`
	PriceFeed string `json:"price_feed"`
	Decimals  uint8  `json:"decimals"`
}

func (s *apiServer) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	caller := domain.Principal(r.Header.Get(adminHeader))

	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	err := s.registry.Add(r.Context(), caller, domain.AssetID(req.Asset), req.PriceFeed, req.Decimals)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"asset": req.Asset})
}

func (s *apiServer) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	caller := domain.Principal(r.Header.Get(adminHeader))
	asset := domain.AssetID(r.URL.Query().Get("asset"))

	if err := s.registry.Remove(r.Context(), caller, asset); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.AssetID{"asset": asset})
}

func (s *apiServer) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.registry.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *apiServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	principal := domain.Principal(r.URL.Query().Get("principal"))
	if err := principal.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid principal: "+err.Error()))
		return
	}

	// Without an asset the whole portfolio comes back.
	assetParam := r.URL.Query().Get("asset")
	if assetParam == "" {
		records, err := s.bank.GetUserBalances(r.Context(), principal)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	balance, err := s.bank.GetUserBalance(r.Context(), principal, domain.AssetID(assetParam))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principal": principal,
		"asset":     assetParam,
		"balance":   balance,
	})
}

// handleValue serves two shapes: asset plus amount quotes an arbitrary
// holding, asset plus principal values that principal's balance.
func (s *apiServer) handleValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset := domain.AssetID(q.Get("asset"))

	if raw := q.Get("amount"); raw != "" {
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid amount: "+err.Error()))
			return
		}
		value, err := s.bank.QuoteUSDValue(r.Context(), asset, amount)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"asset":     asset,
			"amount":    amount,
			"usd_value": value.String(),
			"micro_usd": uint64(value),
		})
		return
	}

	principal := domain.Principal(q.Get("principal"))
	if err := principal.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid principal: "+err.Error()))
		return
	}

	value, err := s.bank.GetUSDValue(r.Context(), principal, asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principal": principal,
		"asset":     asset,
		"usd_value": value.String(),
		"micro_usd": uint64(value),
	})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bank.GetBankStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deposits_count":      stats.DepositsCount,
		"withdrawals_count":   stats.WithdrawalsCount,
		"total_deposited_usd": stats.TotalDepositedUSD.String(),
		"remaining_capacity":  stats.RemainingCapacity.String(),
	})
}

func (s *apiServer) handleSupported(w http.ResponseWriter, r *http.Request) {
	assetParam := r.URL.Query().Get("asset")
	if assetParam == "" {
		assets, err := s.registry.Supported(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, assets)
		return
	}

	supported, err := s.bank.IsSupported(r.Context(), domain.AssetID(assetParam))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":     assetParam,
		"supported": supported,
	})
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if principal := q.Get("principal"); principal != "" {
		events, err := s.events.GetByPrincipal(r.Context(), domain.Principal(principal))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	start, err := strconv.ParseInt(q.Get("start"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("principal or start/end range required"))
		return
	}
	end, err := strconv.ParseInt(q.Get("end"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid end timestamp"))
		return
	}

	events, err := s.events.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// statusResponse is the JSON response for the /status endpoint.
type statusResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	DepositsCount    uint64 `json:"deposits_count"`
	WithdrawalsCount uint64 `json:"withdrawals_count"`
	SupportedAssets  int    `json:"supported_assets"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bank.GetBankStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	supported, err := s.registry.Supported(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "running",
		Uptime:           time.Since(s.started).String(),
		DepositsCount:    stats.DepositsCount,
		WithdrawalsCount: stats.WithdrawalsCount,
		SupportedAssets:  len(supported),
	})
}

// writeError maps domain errors onto HTTP statuses.
func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrValueOverflow):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotSupported):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySupported):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCannotRemoveNative),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrExceedsBankCap),
		errors.Is(err, domain.ErrExceedsWithdrawalLimit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrStalePrice),
		errors.Is(err, domain.ErrTransferFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Printf("internal error: %v", err)
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
