package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hushtape/confessionserver/pkg/confession"
	"github.com/hushtape/confessionserver/pkg/metrics"
	"github.com/hushtape/confessionserver/requests"
	"github.com/hushtape/confessionserver/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxUploadMemory caps the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

const audioContentType = "audio/webm"

type (
	HTTP struct {
		l        *zap.Logger
		basePath string
		service  *confession.Service
		mux      *http.ServeMux
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the HTTP surface of the confession service
func NewHTTP(l *zap.Logger, service *confession.Service, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:       l.Named("http"),
		service: service,
	}

	for _, opt := range opts {
		opt(inst)
	}

	p := inst.basePath
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+p+"/confessions", inst.handle(RouteCreate, inst.create))
	mux.HandleFunc("GET "+p+"/confessions", inst.handle(RouteList, inst.list))
	mux.HandleFunc("DELETE "+p+"/confessions", inst.handle(RouteDelete, inst.delete))
	mux.HandleFunc("POST "+p+"/confessions/play", inst.handle(RoutePlay, inst.play))
	mux.HandleFunc("GET "+p+"/confessions/popular", inst.handle(RoutePopular, inst.popular))
	mux.HandleFunc("GET "+p+"/confessions/search/{fragment}", inst.handle(RouteSearch, inst.search))
	mux.HandleFunc("GET "+p+"/confessions/audio/{key}", inst.handle(RouteAudio, inst.audio))
	inst.mux = mux

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithBasePath mounts all routes below the given path - useful behind a proxy
func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.basePath = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// handle wraps a route handler with request metrics. Handlers return the
// status code they wrote.
func (h *HTTP) handle(route Route, fn func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := strconv.Itoa(fn(w, r))
		metrics.ServiceRequestCounter.WithLabelValues(string(route), status).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(string(route), status).Observe(time.Since(start).Seconds())
	}
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) int {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return h.sendError(w, &confession.ValidationError{Message: "invalid multipart form"})
	}
	var audio []byte
	if file, _, err := r.FormFile("audio"); err == nil {
		defer file.Close()
		audio, err = io.ReadAll(file)
		if err != nil {
			return h.sendError(w, errors.Wrap(err, "failed to read audio upload"))
		}
	}

	code, err := h.service.Create(r.Context(), confession.Upload{
		Audio:       audio,
		Name:        r.FormValue("confession_name"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
	})
	if err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusCreated, &responses.Upload{
		Message:      "confession uploaded",
		DeletionCode: code,
	})
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) int {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", confession.DefaultPageSize)
	confessions, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusOK, &responses.Confessions{Confessions: confessions})
}

func (h *HTTP) delete(w http.ResponseWriter, r *http.Request) int {
	var req requests.Delete
	if status := h.decode(w, r, &req); status != 0 {
		return status
	}
	if err := h.service.Delete(r.Context(), req.DeletionCode); err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusOK, &responses.Message{Message: "confession deleted"})
}

func (h *HTTP) play(w http.ResponseWriter, r *http.Request) int {
	var req requests.Play
	if status := h.decode(w, r, &req); status != 0 {
		return status
	}
	if err := h.service.IncrementPlays(r.Context(), req.ID); err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusOK, &responses.Message{Message: "play counted"})
}

func (h *HTTP) popular(w http.ResponseWriter, r *http.Request) int {
	confessions, err := h.service.Popular(r.Context())
	if err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusOK, &responses.Confessions{Confessions: confessions})
}

func (h *HTTP) search(w http.ResponseWriter, r *http.Request) int {
	results, err := h.service.Search(r.Context(), r.PathValue("fragment"))
	if err != nil {
		return h.sendError(w, err)
	}
	return h.sendJSON(w, http.StatusOK, &responses.Results{Results: results})
}

func (h *HTTP) audio(w http.ResponseWriter, r *http.Request) int {
	data, err := h.service.Audio(r.Context(), r.PathValue("key"))
	if err != nil {
		return h.sendError(w, err)
	}
	w.Header().Set("Content-Type", audioContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
	return http.StatusOK
}

// decode reads a JSON request body. Returns 0 on success, otherwise the
// status code it already wrote.
func (h *HTTP) decode(w http.ResponseWriter, r *http.Request, v interface{}) int {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return h.sendError(w, errors.Wrap(err, "failed to read request body"))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return h.sendError(w, &confession.ValidationError{Message: "invalid request body"})
	}
	return 0
}

// sendError maps the error taxonomy onto status codes: validation errors are
// the client's fault, unknown codes and ids are distinct not-found replies,
// everything else is a store failure.
func (h *HTTP) sendError(w http.ResponseWriter, err error) int {
	switch {
	case confession.IsValidationError(err):
		return h.sendJSON(w, http.StatusBadRequest, responses.NewError(http.StatusBadRequest, err.Error()))
	case errors.Is(err, confession.ErrNotFound):
		return h.sendJSON(w, http.StatusNotFound, responses.NewError(http.StatusNotFound, err.Error()))
	default:
		h.l.Error("internal error", zap.Error(err))
		return h.sendJSON(w, http.StatusInternalServerError, responses.NewError(http.StatusInternalServerError, "internal server error"))
	}
}

func (h *HTTP) sendJSON(w http.ResponseWriter, status int, v interface{}) int {
	bytes, err := json.Marshal(v)
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
	return status
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}
