package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "namefinder/internal/errors"
	"namefinder/internal/services"
)

// maxBodySize bounds the JSON body of a batch request
const maxBodySize = 10 << 20

// NamesHandler serves the name queries and predictions
type NamesHandler struct {
	service      NamesServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewNamesHandler creates a new names handler
func NewNamesHandler(service NamesServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *NamesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NamesHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "names_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the query routes, mounted under the API base path
func (h *NamesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/names/{name}", h.GetProfile)
	r.Get("/search", h.Search)
	r.Get("/peaks", h.Peaks)

	r.Post("/predict-gender", h.PredictGender)
	r.Post("/predict-gender-batch", h.PredictGenderBatch)
	r.Post("/predict-age", h.PredictAge)
	r.Post("/predict-age-batch", h.PredictAgeBatch)

	return r
}

// GetProfile handles GET /names/{name}
func (h *NamesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	q := queryParser{values: r.URL.Query()}
	req := services.ProfileRequest{
		Name:      chi.URLParam(r, "name"),
		YearRange: q.years(),
	}
	if err := q.errs.Err(); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Profile(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// Search handles GET /search. List predicates accept repeated parameters
// and comma-separated values.
func (h *NamesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := queryParser{values: r.URL.Query()}
	req := services.SearchRequest{
		YearRange:   q.years(),
		Pattern:     q.values.Get("pattern"),
		Start:       q.listParam("start"),
		End:         q.listParam("end"),
		Contains:    q.listParam("contains"),
		ContainsAny: q.listParam("contains_any"),
		Order:       q.listParam("order"),
		NotStart:    q.listParam("not_start"),
		NotEnd:      q.listParam("not_end"),
		NotContains: q.listParam("not_contains"),
		LengthMin:   q.intParam("length_min"),
		LengthMax:   q.intParam("length_max"),
		NumberMin:   q.intParam("number_min"),
		NumberMax:   q.intParam("number_max"),
		GenderMin:   q.floatParam("gender_min"),
		GenderMax:   q.floatParam("gender_max"),
		PeakAfter:   q.intParam("peak_after"),
		PeakBefore:  q.intParam("peak_before"),
		PeakRankMax: q.intParam("peak_rank_max"),
		Top:         q.intParam("top"),
		SortSex:     strings.ToLower(q.values.Get("sort_sex")),
	}
	if err := q.errs.Err(); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// Peaks handles GET /peaks
func (h *NamesHandler) Peaks(w http.ResponseWriter, r *http.Request) {
	q := queryParser{values: r.URL.Query()}
	req := services.PeaksRequest{
		YearRange: q.years(),
		Sex:       q.values.Get("sex"),
		RankMin:   q.intParam("rank_min"),
		RankMax:   q.intParam("rank_max"),
		Raw:       q.boolParam("raw"),
		Top:       q.intParam("top"),
	}
	if err := q.errs.Err(); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Peaks(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// PredictGender handles POST /predict-gender
func (h *NamesHandler) PredictGender(w http.ResponseWriter, r *http.Request) {
	var req services.GenderRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.PredictGender(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// PredictAge handles POST /predict-age
func (h *NamesHandler) PredictAge(w http.ResponseWriter, r *http.Request) {
	var req services.AgeRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.PredictAge(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// PredictGenderBatch handles POST /predict-gender-batch
func (h *NamesHandler) PredictGenderBatch(w http.ResponseWriter, r *http.Request) {
	var req services.GenderBatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.PredictGenderBatch(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// PredictAgeBatch handles POST /predict-age-batch. Items with an invalid sex
// are listed in the errors of a 200 response.
func (h *NamesHandler) PredictAgeBatch(w http.ResponseWriter, r *http.Request) {
	var req services.AgeBatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.PredictAgeBatch(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// decode reads the JSON body into v and reports whether the handler may
// continue
func (h *NamesHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := render.DecodeJSON(body, v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		} else {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return false
	}
	return true
}

// queryParser reads typed query parameters and collects malformed ones
type queryParser struct {
	values url.Values
	errs   apierrors.ValidationErrors
}

func (q *queryParser) years() services.YearRange {
	return services.YearRange{
		After:  q.intParam("after"),
		Before: q.intParam("before"),
		Year:   q.intParam("year"),
	}
}

func (q *queryParser) intParam(key string) int {
	raw := q.values.Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs.Add(key, "must be an integer")
	}
	return n
}

func (q *queryParser) floatParam(key string) *float64 {
	raw := q.values.Get(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.errs.Add(key, "must be a number")
		return nil
	}
	return &f
}

func (q *queryParser) boolParam(key string) bool {
	raw := q.values.Get(key)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs.Add(key, "must be a boolean")
	}
	return b
}

func (q *queryParser) listParam(key string) []string {
	var out []string
	for _, v := range q.values[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
