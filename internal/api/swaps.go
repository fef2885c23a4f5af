package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rewearhq/rewear/internal/model"
	"github.com/rewearhq/rewear/internal/store"
)

// SwapsHandler handles swap request endpoints.
type SwapsHandler struct {
	DB *sql.DB
}

type createSwapRequest struct {
	OfferedItemID *int64 `json:"offered_item_id"`
	Message       string `json:"message"`
}

type updateSwapStatusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/items/{id}/swap_request. The authenticated
// caller is the requester; an offered_item_id turns the request into a
// direct swap instead of a points purchase.
func (h *SwapsHandler) Create(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req createSwapRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	swap, err := store.CreateSwapRequest(r.Context(), h.DB, claims.UserID, itemID, req.OfferedItemID, req.Message)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("swap request created",
		"user", claims.Username,
		"item", swap.RequestedItemName,
		"direct", swap.OfferedItemID != nil)
	jsonResponse(w, http.StatusCreated, swap)
}

// List handles GET /api/items/swap_requests. Regular users see requests
// they are involved in (as requester or as owner of the requested item);
// admins see everything. Optional ?item_id filter.
func (h *SwapsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var itemID int64
	if v := r.URL.Query().Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid item_id")
			return
		}
		itemID = id
	}

	var userID int64
	if !claims.IsAdmin {
		userID = claims.UserID
	}

	swaps, err := store.ListSwapRequests(r.Context(), h.DB, itemID, userID)
	if err != nil {
		storeError(w, err)
		return
	}
	if swaps == nil {
		swaps = []model.SwapRequest{}
	}
	jsonResponse(w, http.StatusOK, swaps)
}

// UpdateStatus handles POST /api/items/swap_requests/{id}/update_status.
// Only the requested item's owner may resolve, and only once; the store
// enforces both.
func (h *SwapsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid swap request id")
		return
	}

	var req updateSwapStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	swap, err := store.ResolveSwapRequest(r.Context(), h.DB, requestID, req.Status, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("swap request resolved",
		"user", claims.Username,
		"item", swap.RequestedItemName,
		"status", swap.Status)
	jsonResponse(w, http.StatusOK, swap)
}
