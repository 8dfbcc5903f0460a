package bookstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BookStore/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]string{"message": "welcome to the bookstore"})
	})

	r.Get("/hello-world", func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]string{"message": "hello world"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/random", s.random)
		r.Get("/index/{index}", s.byIndex)
		r.Get("/{id}", s.byID)
		r.Patch("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	books, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list books", err, nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, books)
}

type createReq struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Store.Add(r.Context(), req.Name, req.Category, req.Price)
	if err != nil {
		s.writeStoreError(w, r, "add book", err, nil)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, b)
}

func (s *Server) random(w http.ResponseWriter, r *http.Request) {
	b, err := s.Store.Random(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "random book", err, nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) byIndex(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad index", map[string]any{"index": chi.URLParam(r, "index")})
		return
	}

	b, err := s.Store.GetByIndex(r.Context(), index)
	if err != nil {
		s.writeStoreError(w, r, "get book by index", err, map[string]any{"index": index})
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) byID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}

	b, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get book", err, map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var patch BookPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeStoreError(w, r, "update book", err, map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}

	b, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "delete book", err, map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": chi.URLParam(r, "id")})
		return 0, false
	}
	return id, true
}

// writeStoreError maps each store failure kind to its own client-visible
// response.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error, details map[string]any) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "book not found", details)
	case errors.Is(err, ErrOutOfRange):
		kit.WriteError(w, r, http.StatusNotFound, "index out of range", details)
	case errors.Is(err, ErrNoBooks):
		kit.WriteError(w, r, http.StatusNotFound, "no books in store", nil)
	case errors.Is(err, ErrInvalidBook):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid book", map[string]any{"cause": err.Error()})
	default:
		if s.Log != nil {
			s.Log.Error(op+" failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
