package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rewearhq/rewear/internal/imaging"
	"github.com/rewearhq/rewear/internal/model"
	"github.com/rewearhq/rewear/internal/store"
)

// ItemsHandler handles item catalog endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	PointValue  int64    `json:"point_value"`
	Tags        []string `json:"tags"`
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

// List handles GET /api/items. Regular users browse listed items, or
// their own items in any state with ?mine=true. Admins may filter by any
// status (the moderation queue is ?status=pending_approval).
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	status := r.URL.Query().Get("status")

	var ownerID int64
	if r.URL.Query().Get("mine") == "true" {
		ownerID = claims.UserID
	} else if !claims.IsAdmin {
		status = model.ItemStatusListed
	}

	items, err := store.ListItems(r.Context(), h.DB, status, ownerID)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. The caller becomes the owner; the item
// starts in pending_approval awaiting moderation.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, store.NewItem{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Size:        req.Size,
		Condition:   req.Condition,
		PointValue:  req.PointValue,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	if len(req.Tags) > 0 {
		if err := store.SetItemTags(r.Context(), h.DB, item.ID, req.Tags); err != nil {
			storeError(w, err)
			return
		}
		item, err = store.GetItem(r.Context(), h.DB, item.ID)
		if err != nil {
			storeError(w, err)
			return
		}
	}

	slog.Info("item created", "user", claims.Username, "item", item.Title, "points", item.PointValue)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Approve handles POST /api/items/{id}/approve (admin only).
func (h *ItemsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.ApproveItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("item approved", "item", item.Title, "admin", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, item)
}

// Remove handles POST /api/items/{id}/remove (admin only). Pending swap
// requests referencing the item are cancelled as part of the removal.
func (h *ItemsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.RemoveItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("item removed", "item", item.Title, "admin", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image. Only the owner (or an
// admin) may change an item's photo.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item.OwnerID != claims.UserID && !claims.IsAdmin {
		jsonError(w, http.StatusForbidden, "not your item")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// SetTags handles PUT /api/items/{id}/tags. Only the owner (or an admin)
// may retag an item.
func (h *ItemsHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item.OwnerID != claims.UserID && !claims.IsAdmin {
		jsonError(w, http.StatusForbidden, "not your item")
		return
	}

	var req setTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetItemTags(r.Context(), h.DB, id, req.Tags); err != nil {
		storeError(w, err)
		return
	}

	item, err = store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
