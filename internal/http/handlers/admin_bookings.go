package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rickd5991-stack/jenny-bot/internal/booking"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// AdminBookingsHandler exposes the booking ledger to operators.
type AdminBookingsHandler struct {
	ledger booking.Ledger
	logger *logging.Logger
}

func NewAdminBookingsHandler(ledger booking.Ledger, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{ledger: ledger, logger: logger}
}

// BookingsListResponse is a page of the ledger, oldest first.
type BookingsListResponse struct {
	Bookings   []booking.Booking `json:"bookings"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// AvailabilityResponse answers whether a slot text is still free.
type AvailabilityResponse struct {
	Slot        string `json:"slot"`
	IsAvailable bool   `json:"is_available"`
}

// ListBookings handles GET /admin/bookings.
func (h *AdminBookingsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	all, err := h.ledger.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list bookings"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	total := len(all)
	// compare before multiplying; huge page values overflow
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := all[start:end]
	if items == nil {
		items = []booking.Booking{}
	}
	writeJSON(w, http.StatusOK, BookingsListResponse{
		Bookings:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

// CheckAvailability handles GET /admin/bookings/availability?slot=.
func (h *AdminBookingsHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	slot := strings.TrimSpace(r.URL.Query().Get("slot"))
	if slot == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slot required"})
		return
	}
	ok, err := h.ledger.IsAvailable(r.Context(), slot)
	if err != nil {
		h.logger.Error("failed to check availability", "error", err, "slot", slot)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check availability"})
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Slot: slot, IsAvailable: ok})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
