// Package api exposes the swap coordinator as a JSON HTTP interface, one
// action per state transition.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/depixswap/swapd/database"
	"github.com/depixswap/swapd/database/models"
	"github.com/depixswap/swapd/swap"
	"github.com/depixswap/swapd/wallet"
)

type Server struct {
	coordinator *swap.Coordinator
	httpServer  *http.Server
}

func NewServer(coordinator *swap.Coordinator, port uint32) *Server {
	server := &Server{
		coordinator: coordinator,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/atomic/offers", server.handleCreateOffer)
	mux.HandleFunc("GET /api/v1/atomic/offers", server.handleListOffers)
	mux.HandleFunc("GET /api/v1/atomic/offers/open", server.handleOpenOffers)
	mux.HandleFunc("GET /api/v1/atomic/offers/active", server.handleActiveOffers)
	mux.HandleFunc("GET /api/v1/atomic/offers/{id}", server.handleGetOffer)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/accept", server.handleAcceptOffer)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/lock-initiator", server.handleLockInitiator)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/lock-acceptor", server.handleLockAcceptor)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/claim-initiator", server.handleClaimInitiator)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/claim-acceptor", server.handleClaimAcceptor)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/refund", server.handleRefund)
	mux.HandleFunc("POST /api/v1/atomic/offers/{id}/cancel", server.handleCancel)
	mux.HandleFunc("GET /api/v1/balances", server.handleBalances)
	mux.HandleFunc("GET /health", server.handleHealth)

	server.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return server
}

func (s *Server) ListenAndServe() error {
	log.Infof("API listening on %s", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Serve serves on an existing listener. Used by tests and by callers that
// want to pick the port themselves.
func (s *Server) Serve(listener net.Listener) error {
	err := s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the route table, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", swap.ErrValidation, err))

		return
	}

	offer, err := s.coordinator.CreateOffer(r.Context(), swap.CreateOfferParams{
		InitiatorAsset:   models.Asset(req.InitiatorAsset),
		AcceptorAsset:    models.Asset(req.AcceptorAsset),
		InitiatorAmount:  req.InitiatorAmount,
		AcceptorAmount:   req.AcceptorAmount,
		InitiatorAddress: req.InitiatorAddress,
	})
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, toOfferResponse(offer))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	var statuses []models.SwapStatus
	if status := r.URL.Query().Get("status"); status != "" {
		statuses = append(statuses, models.SwapStatus(status))
	}

	offers, err := s.coordinator.ListOffers(r.Context(), statuses...)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponses(offers))
}

func (s *Server) handleOpenOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.coordinator.OpenOffers(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponses(offers))
}

func (s *Server) handleActiveOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.coordinator.ActiveOffers(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponses(offers))
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.coordinator.GetOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req AcceptOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", swap.ErrValidation, err))

		return
	}

	offer, err := s.coordinator.AcceptOffer(r.Context(), r.PathValue("id"), req.AcceptorAddress)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleLockInitiator(w http.ResponseWriter, r *http.Request) {
	offer, err := s.coordinator.LockInitiator(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleLockAcceptor(w http.ResponseWriter, r *http.Request) {
	offer, err := s.coordinator.LockAcceptor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleClaimInitiator(w http.ResponseWriter, r *http.Request) {
	offer, secret, err := s.coordinator.ClaimInitiator(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, ClaimInitiatorResponse{
		SwapOfferResponse: toOfferResponse(offer),
		Secret:            secret.Hex(),
	})
}

func (s *Server) handleClaimAcceptor(w http.ResponseWriter, r *http.Request) {
	offer, err := s.coordinator.ClaimAcceptor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", swap.ErrValidation, err))

		return
	}
	role, err := swap.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)

		return
	}

	offer, err := s.coordinator.Refund(r.Context(), r.PathValue("id"), role)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	offer, err := s.coordinator.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.coordinator.Balances(r.Context())
	if err != nil {
		writeError(w, err)

		return
	}

	response := BalancesResponse{Balances: make(map[string]decimal.Decimal, len(balances))}
	for asset, balance := range balances {
		response.Balances[asset.String()] = balance
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, swap.ErrTimelockNotExpired):
		status, code = http.StatusBadRequest, "timelock_not_expired"
	case errors.Is(err, swap.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, database.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, swap.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, wallet.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "backend_unavailable"
	case errors.Is(err, wallet.ErrRejected):
		status, code = http.StatusBadGateway, "backend_rejected"
	}

	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
