package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/infrastructure"
	"namefinder/internal/names"
	"namefinder/internal/reference"
	"namefinder/pkg/contracts/domain"
)

var tracer = otel.Tracer("namefinder/services")

// GenderReferenceSource reads the persisted gender reference of a
// prediction-only deployment
type GenderReferenceSource interface {
	ReadGenderReference() (reference.GenderReference, error)
}

// NamesService validates queries, runs them on the engine and records
// their metrics. It is safe for concurrent use.
type NamesService struct {
	ds       *dataprocessing.Dataset
	engine   *names.Engine
	cfg      config.DatasetConfig
	source   GenderReferenceSource
	metrics  *infrastructure.Metrics
	validate *validator.Validate
	logger   *slog.Logger

	// the default gender reference is loaded once and kept; custom
	// options are built per request with concurrent duplicates collapsed
	refs      singleflight.Group
	mu        sync.RWMutex
	genderRef reference.GenderReference
}

// NewNamesService creates the service over ds. source is only read when ds
// is a prediction-only dataset.
func NewNamesService(ds *dataprocessing.Dataset, cfg config.DatasetConfig, source GenderReferenceSource, metrics *infrastructure.Metrics, logger *slog.Logger) *NamesService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MidPercentile == 0 {
		cfg.MidPercentile = config.DefaultMidPercentile
	}
	return &NamesService{
		ds:       ds,
		engine:   names.NewEngine(ds, cfg, names.DefaultPolicy()),
		cfg:      cfg,
		source:   source,
		metrics:  metrics,
		validate: newValidator(),
		logger:   logger.With(slog.String("component", "names_service")),
	}
}

// Dataset returns the dataset the service answers from
func (s *NamesService) Dataset() *dataprocessing.Dataset {
	return s.ds
}

// outcome classifies a finished query for the metrics
func outcome(err error, empty bool) string {
	var verrs apperrors.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return "invalid"
	case errors.Is(err, apperrors.ErrDatasetUnavailable), apperrors.IsType(err, apperrors.ErrTypeUnavailable):
		return "unavailable"
	case err != nil:
		return "error"
	case empty:
		return "empty"
	default:
		return "ok"
	}
}

func (s *NamesService) finish(ctx context.Context, op string, start time.Time, err error, empty bool) {
	s.metrics.RecordQuery(ctx, op, outcome(err, empty), time.Since(start))
}

// requireFull rejects queries that need the raw tables
func (s *NamesService) requireFull() error {
	if !s.ds.Full() {
		return apperrors.ErrDatasetUnavailable
	}
	return nil
}

func (r YearRange) years() names.Years {
	return names.Years{After: r.After, Before: r.Before, Year: r.Year}
}

// Profile returns the profile of a name. Data is nil when the name has no
// births in the selected years.
func (s *NamesService) Profile(ctx context.Context, req ProfileRequest) (res Result[ProfileRequest, *domain.NameProfile], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.Profile")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "profile", start, err, res.Data == nil) }()

	if err := s.requireFull(); err != nil {
		return res, err
	}
	if errs := validateStruct(s.validate, req); len(errs) > 0 {
		return res, errs
	}
	span.SetAttributes(attribute.String("name", req.Name))

	res.Params = req
	if profile, ok := s.engine.Profile(names.ProfileOptions{Name: req.Name, Years: req.years()}); ok {
		res.Data = &profile
	}
	return res, nil
}

// Search runs a name search
func (s *NamesService) Search(ctx context.Context, req SearchRequest) (res Result[SearchRequest, []SearchResult], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.Search")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "search", start, err, len(res.Data) == 0) }()

	if err := s.requireFull(); err != nil {
		return res, err
	}
	errs := validateStruct(s.validate, req)
	if req.GenderMin != nil && req.GenderMax != nil && *req.GenderMin > *req.GenderMax {
		errs.Add("gender_max", "must not be less than `gender_min`")
	}
	if len(errs) > 0 {
		return res, errs
	}

	opts := names.SearchOptions{
		Years:       req.years(),
		Pattern:     req.Pattern,
		Start:       req.Start,
		End:         req.End,
		Contains:    req.Contains,
		ContainsAny: req.ContainsAny,
		Order:       req.Order,
		NotStart:    req.NotStart,
		NotEnd:      req.NotEnd,
		NotContains: req.NotContains,
		LengthMin:   req.LengthMin,
		LengthMax:   req.LengthMax,
		NumberMin:   req.NumberMin,
		NumberMax:   req.NumberMax,
		Top:         req.Top,
		SortSex:     domain.Sex(req.SortSex),
	}
	if req.GenderMin != nil || req.GenderMax != nil {
		bounds := names.RatioBounds{Min: 0, Max: 1}
		if req.GenderMin != nil {
			bounds.Min = *req.GenderMin
		}
		if req.GenderMax != nil {
			bounds.Max = *req.GenderMax
		}
		opts.Gender = &bounds
	}
	if req.PeakAfter != 0 || req.PeakBefore != 0 || req.PeakRankMax != 0 {
		opts.Peaked = names.PeakedNames(s.engine.FilterPeaks(names.PeakFilter{
			After:   req.PeakAfter,
			Before:  req.PeakBefore,
			RankMax: req.PeakRankMax,
		}))
	}

	rows, err := s.engine.Search(opts)
	if err != nil {
		return res, err
	}

	res.Params = req
	res.Data = make([]SearchResult, len(rows))
	for i, r := range rows {
		res.Data[i] = SearchResult{
			Name:    r.Name,
			Number:  r.Number,
			NumberF: r.NumberF,
			NumberM: r.NumberM,
			RatioF:  r.RatioF,
			RatioM:  r.RatioM,
			Rank:    r.Rank,
			RankF:   r.RankF,
			RankM:   r.RankM,
			Display: names.DisplayString(r),
		}
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return res, nil
}

// Peaks lists the peak rows, or the raw count rows, passing the filter.
// Rows are ordered by rank, then year and name.
func (s *NamesService) Peaks(ctx context.Context, req PeaksRequest) (res Result[PeaksRequest, []PeakRow], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.Peaks")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "peaks", start, err, len(res.Data) == 0) }()

	if err := s.requireFull(); err != nil {
		return res, err
	}
	req.Sex = normalizeSex(req.Sex)
	errs := validateStruct(s.validate, req)
	if req.Raw && req.Sex == string(domain.SexCombined) {
		errs.Add("sex", "must be `f` or `m` for raw rows")
	}
	if len(errs) > 0 {
		return res, errs
	}
	if req.Sex == "" && !req.Raw {
		req.Sex = string(domain.SexCombined)
	}

	filter := names.PeakFilter{
		After:   req.After,
		Before:  req.Before,
		Year:    req.Year,
		Sex:     domain.Sex(req.Sex),
		RankMin: req.RankMin,
		RankMax: req.RankMax,
	}
	var rows []PeakRow
	if req.Raw {
		for _, c := range s.engine.FilterCounts(filter) {
			rows = append(rows, PeakRow{Name: c.Name, Sex: c.Sex, Year: c.Year, Number: c.Number, Rank: c.Rank})
		}
	} else {
		for _, p := range s.engine.FilterPeaks(filter) {
			rows = append(rows, PeakRow{Name: p.Name, Sex: p.Sex, Year: p.Year, Number: p.Number, Rank: p.Rank})
		}
	}
	slices.SortFunc(rows, func(a, b PeakRow) int {
		return cmp.Or(
			cmp.Compare(a.Rank, b.Rank),
			cmp.Compare(a.Year, b.Year),
			strings.Compare(a.Name, b.Name),
			strings.Compare(string(a.Sex), string(b.Sex)),
		)
	})

	if req.Top == 0 {
		req.Top = s.cfg.SearchTop
	}
	if req.Top > 0 && len(rows) > req.Top {
		rows = rows[:req.Top]
	}

	res.Params = req
	res.Data = rows
	span.SetAttributes(attribute.Bool("raw", req.Raw), attribute.Int("rows", len(rows)))
	return res, nil
}

// PredictGender predicts the sex of one name's holders
func (s *NamesService) PredictGender(ctx context.Context, req GenderRequest) (res Result[GenderRequest, domain.GenderPrediction], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.PredictGender")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "predict_gender", start, err, res.Data.Confidence == nil) }()

	if err := s.requireFull(); err != nil {
		return res, err
	}
	if errs := validateStruct(s.validate, req); len(errs) > 0 {
		return res, errs
	}
	if req.Living == nil {
		living := true
		req.Living = &living
	}

	res.Params = req
	res.Data = s.engine.PredictGender(names.GenderOptions{Name: req.Name, Years: req.years(), Living: *req.Living})
	return res, nil
}

// PredictAge estimates the birth-year band of a (name, sex). Data is nil
// when the pair has no age reference rows.
func (s *NamesService) PredictAge(ctx context.Context, req AgeRequest) (res Result[AgeRequest, *domain.AgePrediction], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.PredictAge")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "predict_age", start, err, res.Data == nil) }()

	req.Sex = normalizeSex(req.Sex)
	if errs := validateStruct(s.validate, req); len(errs) > 0 {
		return res, errs
	}
	if req.MidPercentile == 0 {
		req.MidPercentile = s.cfg.MidPercentile
	}

	res.Params = req
	pred, ok := s.engine.PredictAge(names.AgeOptions{
		Name:          req.Name,
		Sex:           domain.Sex(req.Sex),
		MidPercentile: req.MidPercentile,
	})
	if !ok {
		return res, nil
	}
	pred.Lower.Percentile = round3(pred.Lower.Percentile)
	pred.Upper.Percentile = round3(pred.Upper.Percentile)
	pred.PercentileBand = round3(pred.PercentileBand)
	res.Data = &pred
	return res, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// PredictGenderBatch classifies every item with the gender reference for
// the requested options
func (s *NamesService) PredictGenderBatch(ctx context.Context, req GenderBatchRequest) (res Result[GenderBatchParams, []domain.GenderBatchResult], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.PredictGenderBatch")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "predict_gender_batch", start, err, len(res.Data) == 0) }()

	if errs := validateStruct(s.validate, req); len(errs) > 0 {
		return res, errs
	}

	opts := reference.DefaultGenderOptions(s.cfg)
	if req.After != nil {
		opts.After = *req.After
	}
	opts.Before = req.Before
	if req.RatioMin != nil {
		opts.RatioMin = *req.RatioMin
	}
	if req.NumberMin != nil {
		opts.NumberMin = *req.NumberMin
	}

	ref, err := s.genderReference(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	res.Params = GenderBatchParams{
		After:     opts.After,
		Before:    opts.Before,
		RatioMin:  opts.RatioMin,
		NumberMin: max(opts.NumberMin, config.DefaultGenderMinCount),
	}
	res.Data = reference.PredictGenderBatch(ref, req.Data)

	matched := 0
	for _, r := range res.Data {
		if r.Prediction != domain.GenderUnknown {
			matched++
		}
	}
	s.metrics.RecordBatchItems(ctx, "predict_gender_batch", matched, len(res.Data)-matched)
	span.SetAttributes(attribute.Int("items", len(res.Data)), attribute.Int("matched", matched))
	return res, nil
}

// PredictAgeBatch estimates a birth-year band for every item. Items with an
// invalid sex are kept without a band and listed in the errors.
func (s *NamesService) PredictAgeBatch(ctx context.Context, req AgeBatchRequest) (res Result[AgeBatchParams, []domain.AgeBatchResult], err error) {
	ctx, span := tracer.Start(ctx, "NamesService.PredictAgeBatch")
	defer span.End()
	start := time.Now()
	defer func() { s.finish(ctx, "predict_age_batch", start, err, len(res.Data) == 0) }()

	if errs := validateStruct(s.validate, req); len(errs) > 0 {
		return res, errs
	}
	if req.MidPercentile == 0 {
		req.MidPercentile = s.cfg.MidPercentile
	}

	data, itemErrs := reference.PredictAgeBatch(s.ds, reference.AgeBatchOptions{
		Cutoff:        s.cfg.DataQualityCutoff,
		MidPercentile: req.MidPercentile,
	}, req.Data)

	res.Params = AgeBatchParams{MidPercentile: req.MidPercentile}
	res.Data = data
	if len(itemErrs) > 0 {
		res.Errors = itemErrs.Messages()
	}

	matched := 0
	for _, r := range data {
		if r.YearLower != nil {
			matched++
		}
	}
	s.metrics.RecordBatchItems(ctx, "predict_age_batch", matched, len(data)-matched)
	span.SetAttributes(attribute.Int("items", len(data)), attribute.Int("matched", matched))
	return res, nil
}

// genderReference returns the reference for opts. The default options are
// served from a cached reference: read from the store in prediction-only
// mode, built from the dataset otherwise. Other options need the full
// dataset.
func (s *NamesService) genderReference(ctx context.Context, opts reference.GenderOptions) (reference.GenderReference, error) {
	isDefault := opts == reference.DefaultGenderOptions(s.cfg)
	if isDefault {
		if ref := s.cachedGenderReference(); ref != nil {
			return ref, nil
		}
	} else if !s.ds.Full() {
		return nil, apperrors.ErrDatasetUnavailable
	}

	key := fmt.Sprintf("%d:%d:%g:%d", opts.After, opts.Before, opts.RatioMin, opts.NumberMin)
	v, err, shared := s.refs.Do(key, func() (any, error) {
		// a load that finished since the check above already filled it
		if ref := s.cachedGenderReference(); isDefault && ref != nil {
			return ref, nil
		}
		start := time.Now()
		ref, err := s.loadGenderReference(opts)
		if err != nil {
			return nil, err
		}
		if isDefault {
			s.mu.Lock()
			s.genderRef = ref
			s.mu.Unlock()
		}
		s.logger.InfoContext(ctx, "Gender reference ready",
			slog.String("key", key),
			slog.Int("names", len(ref)),
			slog.Bool("full", s.ds.Full()),
			slog.Duration("duration", time.Since(start)))
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "Shared gender reference load", slog.String("key", key))
	}
	return v.(reference.GenderReference), nil
}

func (s *NamesService) cachedGenderReference() reference.GenderReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genderRef
}

func (s *NamesService) loadGenderReference(opts reference.GenderOptions) (reference.GenderReference, error) {
	if s.ds.Full() {
		return reference.NewGenderReference(reference.BuildGenderReference(s.ds, opts)), nil
	}
	if s.source == nil {
		return nil, apperrors.ErrDatasetUnavailable
	}
	return s.source.ReadGenderReference()
}
