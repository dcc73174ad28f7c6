package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/katalog/internal/catalog"
)

// ItemsHandler handles item and feedback endpoints.
type ItemsHandler struct {
	Svc *catalog.Service
}

type rateRequest struct {
	Rating *int   `json:"rating"`
	Review string `json:"review"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.ListItems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewItem
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Svc.CreateItem(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.Item(r.Context(), r.PathValue("id"), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, detail)
}

// Rate handles POST /api/items/{id}.
func (h *ItemsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating == nil {
		jsonError(w, http.StatusBadRequest, "rating required")
		return
	}

	item, err := h.Svc.Rate(r.Context(), principal(r), r.PathValue("id"), *req.Rating, req.Review)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DeleteReview handles DELETE /api/items/{id}/reviews.
func (h *ItemsHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.DeleteReview(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteItem(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope.
	limit := h.Svc.MaxImageBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	item, err := h.Svc.SetItemImage(r.Context(), principal(r), r.PathValue("id"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.Svc.ItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}
