package pin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/junhong-liao/art-club/internal/dto"
)

type Handler struct {
	service Service
	auth    *Authorizer
}

func NewHandler(service Service, auth *Authorizer) *Handler {
	return &Handler{
		service: service,
		auth:    auth,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/newpin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.AddPin(w, r)
	})
	mux.HandleFunc("/api/generateAIimage", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.GenerateAIImage(w, r)
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.RunScan(w, r)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/" {
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.GetPins(w, r)
			return
		}
		switch r.Method {
		case http.MethodDelete:
			h.DeletePin(w, r)
		case http.MethodPut:
			h.SavePin(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (h *Handler) AddPin(w http.ResponseWriter, r *http.Request) {
	requester, err := h.auth.Authorize(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	var sub dto.PinSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	_, done, err := h.service.AddPin(r.Context(), requester, sub)
	if err != nil {
		var limitErr *PinLimitError
		switch {
		case errors.As(err, &limitErr):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: limitErr.Error()})
		case errors.Is(err, ErrMissingDescription),
			errors.Is(err, ErrMissingImgLink),
			errors.Is(err, ErrDescriptionTooLong):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
		return
	}

	// The client gets the pre-enrichment view back right away; enrichment
	// is awaited afterwards so its completion stays observable in order.
	writeJSON(w, http.StatusCreated, sub)
	<-done
}

func (h *Handler) GetPins(w http.ResponseWriter, r *http.Request) {
	// The all feed is public; profile mode needs a viewer.
	requester, _ := h.auth.Authorize(r)

	mode := r.URL.Query().Get("type")
	pins, err := h.service.GetPins(r.Context(), requester, mode)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, pins)
}

func (h *Handler) DeletePin(w http.ResponseWriter, r *http.Request) {
	requester, err := h.auth.Authorize(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/")
	if id == "" {
		http.Error(w, "pin id required", http.StatusBadRequest)
		return
	}

	p, err := h.service.DeletePinOrUnsave(r.Context(), requester, id)
	if err != nil {
		writePinError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SavePin(w http.ResponseWriter, r *http.Request) {
	requester, err := h.auth.Authorize(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/")
	if id == "" {
		http.Error(w, "pin id required", http.StatusBadRequest)
		return
	}

	var pinner dto.Pinner
	if err := json.NewDecoder(r.Body).Decode(&pinner); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.SavePin(r.Context(), requester, id, pinner)
	if err != nil {
		writePinError(w, err)
		return
	}
	if p == nil {
		// Already saved (or own pin): benign no-op, empty end.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GenerateAIImage(w http.ResponseWriter, r *http.Request) {
	requester, err := h.auth.Authorize(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	var req dto.AIImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.GenerateAIImage(r.Context(), requester, req.Description)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if resp == nil {
		// Nothing to do: blank prompt or quota reached.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RunScan(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writePinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidPinID):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthorized) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
