package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/undeadops/golinks/internal/keys"
	"github.com/undeadops/golinks/internal/store"
)

// dumpSentinel is the reserved path segment under /go/ that returns the
// full mapping instead of redirecting. A link saved under this key is
// shadowed.
const dumpSentinel = "👀"

type LinkHandler struct {
	store  store.Store
	keygen keys.Generator
	logger zerolog.Logger
}

func Router(ctx context.Context, store store.Store, keygen keys.Generator, logger zerolog.Logger) *chi.Mux {
	h := &LinkHandler{
		store:  store,
		keygen: keygen,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.Heartbeat("/ping"))
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/go/{key}", h.Resolve)
	r.Get("/save", h.Save)
	r.Post("/shorten", h.Shorten)

	return r
}

// Resolve redirects the client to the destination registered for the key.
func (h *LinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if key == dumpSentinel {
		h.Dump(w, r)
		return
	}

	target, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Expected outcome, not an anomaly
			http.Error(w, "URL not found", http.StatusNotFound)
			return
		}
		h.handleError(w, err)
		return
	}

	// Targets are stored scheme-less
	http.Redirect(w, r, "https://"+target, http.StatusFound)
}

// Dump writes the full key -> target mapping as pretty-printed JSON. An
// empty store yields {}.
func (h *LinkHandler) Dump(w http.ResponseWriter, r *http.Request) {
	links, err := h.store.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	if links == nil {
		links = map[string]string{}
	}

	body, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Save registers the mapping given in the p (key) and u (target URL)
// query parameters and confirms with 👍.
func (h *LinkHandler) Save(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("p")
	target := r.URL.Query().Get("u")

	var missing []string
	if key == "" {
		missing = append(missing, "'p' (key)")
	}
	if target == "" {
		missing = append(missing, "'u' (url)")
	}
	if len(missing) > 0 {
		http.Error(w, "Missing required parameter(s) "+strings.Join(missing, " and "), http.StatusBadRequest)
		return
	}

	// A failed journal append surfaces here as a 500; the mapping is only
	// acknowledged once it is recorded.
	if err := h.store.Put(r.Context(), key, target); err != nil {
		h.handleError(w, err)
		return
	}

	fmt.Fprint(w, "👍")
}

type ShortenRequest struct {
	URL string `json:"url"`
}

type ShortenResponse struct {
	Key      string `json:"key"`
	ShortURL string `json:"short_url"`
}

func (s *ShortenRequest) Bind(r *http.Request) error {
	if s.URL == "" {
		return errors.New("url is required")
	}

	parsed, err := url.ParseRequestURI(s.URL)
	if err != nil {
		return errors.New("invalid url format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url must use http or https scheme")
	}

	if parsed.Host == "" {
		return errors.New("url must have a valid host")
	}

	return nil
}

// Shorten registers a target under a generated key.
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	data := &ShortenRequest{}
	if err := render.Bind(r, data); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := keys.NewKey(h.keygen)

	// Resolve prefixes https:// on redirect, so strip the scheme before
	// storing.
	target := strings.TrimPrefix(strings.TrimPrefix(data.URL, "https://"), "http://")

	if err := h.store.Put(r.Context(), key, target); err != nil {
		h.handleError(w, err)
		return
	}

	response := &ShortenResponse{
		Key:      key,
		ShortURL: r.Host + "/go/" + key,
	}
	h.respondJSON(w, r, http.StatusCreated, response)
}

// Helper methods for consistent error handling and responses
func (h *LinkHandler) handleError(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("Handling error")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *LinkHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.WriteHeader(status)
	render.JSON(w, r, data)
}
