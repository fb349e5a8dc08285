package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookworm-app/backend/middleware"
	"github.com/bookworm-app/backend/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageSize = 5

// BookStore is the slice of the store the books handler needs.
type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	BooksPage(ctx context.Context, skip, limit int64) ([]models.Book, error)
	CountBooks(ctx context.Context) (int64, error)
	BooksByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) error
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// ImageStore is the remote image-hosting collaborator.
type ImageStore interface {
	Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (key, url string, err error)
	Delete(ctx context.Context, key string) error
}

type BooksHandler struct {
	DB     BookStore
	Images ImageStore
}

type CreateBookRequest struct {
	Title   string  `json:"title" validate:"required"`
	Caption string  `json:"caption" validate:"required"`
	Rating  float64 `json:"rating" validate:"required"`
	Image   string  `json:"image" validate:"required"` // base64 payload, optionally a data URL
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"Please provide all fields"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, `{"message":"Please provide all fields"}`, http.StatusBadRequest)
		return
	}

	data, contentType, err := decodeImagePayload(req.Image)
	if err != nil {
		http.Error(w, `{"message":"Invalid image data"}`, http.StatusBadRequest)
		return
	}
	key, imageURL, err := h.Images.Upload(r.Context(), "covers/", "book-cover"+extForContentType(contentType), bytes.NewReader(data), contentType)
	if err != nil {
		log.Printf("create book: image upload: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	book := &models.Book{
		Title:     req.Title,
		Caption:   req.Caption,
		Rating:    req.Rating,
		Image:     imageURL,
		ImageKey:  key,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		log.Printf("create book: insert: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	book.ID = id

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

type BookOwner struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

type ListedBook struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	Rating    float64   `json:"rating"`
	Image     string    `json:"image"`
	User      BookOwner `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListBooksResponse struct {
	Books       []ListedBook `json:"books"`
	CurrentPage int64        `json:"currentPage"`
	TotalBooks  int64        `json:"totalBooks"`
	TotalPages  int64        `json:"totalPages"`
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageSize)
	skip := (page - 1) * limit

	books, err := h.DB.BooksPage(r.Context(), skip, limit)
	if err != nil {
		log.Printf("list books: find: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	total, err := h.DB.CountBooks(r.Context())
	if err != nil {
		log.Printf("list books: count: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	owners, err := h.ownersFor(r.Context(), books)
	if err != nil {
		log.Printf("list books: owner lookup: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	listed := make([]ListedBook, 0, len(books))
	for _, b := range books {
		lb := ListedBook{
			ID:        b.ID.Hex(),
			Title:     b.Title,
			Caption:   b.Caption,
			Rating:    b.Rating,
			Image:     b.Image,
			CreatedAt: b.CreatedAt,
		}
		if owner, ok := owners[b.UserID]; ok {
			lb.User = BookOwner{
				ID:           owner.ID.Hex(),
				Username:     owner.Username,
				ProfileImage: owner.ProfileImage,
			}
		}
		listed = append(listed, lb)
	}

	totalPages := (total + limit - 1) / limit

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListBooksResponse{
		Books:       listed,
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  totalPages,
	})
}

func (h *BooksHandler) ownersFor(ctx context.Context, books []models.Book) (map[primitive.ObjectID]models.User, error) {
	seen := make(map[primitive.ObjectID]bool, len(books))
	var ids []primitive.ObjectID
	for _, b := range books {
		if !seen[b.UserID] {
			seen[b.UserID] = true
			ids = append(ids, b.UserID)
		}
	}
	return h.DB.UsersByIDs(ctx, ids)
}

// ListMine returns every book owned by the authenticated user, unpaginated.
func (h *BooksHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	books, err := h.DB.BooksByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("list user books: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"message":"Book not found"}`, http.StatusNotFound)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		log.Printf("delete book: lookup: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found"}`, http.StatusNotFound)
		return
	}
	if book.UserID != user.ID {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusForbidden)
		return
	}

	// Best effort: a failed storage delete never blocks removing the record.
	if book.ImageKey != "" {
		if err := h.Images.Delete(r.Context(), book.ImageKey); err != nil {
			log.Printf("delete book: removing cover from storage: %v", err)
		}
	}

	if err := h.DB.DeleteBook(r.Context(), id); err != nil {
		log.Printf("delete book: %v", err)
		http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Book deleted successfully"})
}

// queryInt parses a positive integer query param, falling back to def for
// absent, malformed, or non-positive values.
func queryInt(r *http.Request, name string, def int64) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// decodeImagePayload accepts either a raw base64 string or a data URL and
// returns the image bytes plus a content type.
func decodeImagePayload(payload string) ([]byte, string, error) {
	contentType := ""
	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", base64.CorruptInputError(0)
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func extForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}
