package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parcelgrid/shipping/pkg/carrier"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

type batchRequest struct {
	Shipments []*carrier.ShipmentRequest `json:"shipments"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var req carrier.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Packages) == 0 {
		writeError(w, http.StatusBadRequest, "at least one package is required")
		return
	}

	resp, err := s.aggregator.GetRates(r.Context(), &req)
	if err != nil {
		s.logger.Error("Rate aggregation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rate aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateAddress(w http.ResponseWriter, r *http.Request) {
	var addr carrier.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	first, ok := s.registry.First()
	if !ok {
		// With no carriers configured, validation degrades to a
		// negative answer instead of an error.
		writeJSON(w, http.StatusOK, &carrier.AddressValidation{
			Valid:       false,
			Suggestions: []carrier.Address{},
		})
		return
	}

	validation, err := first.ValidateAddress(r.Context(), &addr)
	if err != nil {
		s.logger.Error("Address validation failed",
			zap.String("carrier", first.Name()),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "address validation failed")
		return
	}
	writeJSON(w, http.StatusOK, validation)
}

func (s *Server) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	var req carrier.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := s.issuer.CreateLabel(r.Context(), &req)
	if err != nil {
		if errors.Is(err, carrier.ErrCarrierNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.tracker.Register(result.TrackingNumber, result.Carrier)
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	batch, err := s.issuer.CreateBatch(r.Context(), req.Shipments)
	if err != nil {
		if errors.Is(err, carrier.ErrEmptyBatch) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, item := range batch.Results {
		if item.Success {
			s.tracker.Register(item.Shipment.TrackingNumber, item.Shipment.Carrier)
		}
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	trackingNumber := r.PathValue("id")

	result, err := s.tracker.GetTracking(r.Context(), trackingNumber)
	if err != nil {
		// Unresolvable everywhere, including the fallback call.
		writeError(w, http.StatusNotFound, "tracking number not found: "+trackingNumber)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
