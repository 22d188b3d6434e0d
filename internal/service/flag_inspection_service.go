package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/flag-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/observer"
	"github.com/anime-shed/flag-inspector-go/internal/repository"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// FlagInspectionService runs conformance inspections against acquired images
type FlagInspectionService interface {
	Inspect(ctx context.Context, source string) (*models.InspectionResponse, error)
	InspectUpload(ctx context.Context, name string, data []byte) (*models.InspectionResponse, error)
	InspectBatch(ctx context.Context, sources []string) (*models.BatchResponse, error)
	ValidateSource(source string) error
}

// Options bounds the work a single call may do
type Options struct {
	FetchTimeout     time.Duration
	AnalysisTimeout  time.Duration
	BatchConcurrency int
	MaxBatchSize     int
}

func DefaultOptions() Options {
	return Options{
		FetchTimeout:     15 * time.Second,
		AnalysisTimeout:  20 * time.Second,
		BatchConcurrency: 4,
		MaxBatchSize:     20,
	}
}

type flagInspectionService struct {
	repo     repository.ImageRepository
	analyzer analyzer.FlagAnalyzer
	events   observer.Subject
	opts     Options
	now      func() time.Time
}

// NewFlagInspectionService wires the service; events may be nil
func NewFlagInspectionService(
	repo repository.ImageRepository,
	flagAnalyzer analyzer.FlagAnalyzer,
	events observer.Subject,
	opts Options,
) FlagInspectionService {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &flagInspectionService{
		repo:     repo,
		analyzer: flagAnalyzer,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *flagInspectionService) ValidateSource(source string) error {
	return s.repo.ValidateSource(source)
}

func (s *flagInspectionService) Inspect(ctx context.Context, source string) (*models.InspectionResponse, error) {
	id := uuid.NewString()
	start := s.now()
	s.publish(ctx, observer.InspectionEvent{EventType: observer.InspectionStarted, InspectionID: id, Source: source})

	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	fetched, err := s.repo.FetchImage(fetchCtx, source)
	if err != nil {
		err = classifyFetchError(err)
		s.publish(ctx, observer.InspectionEvent{EventType: observer.ImageFetchFailed, InspectionID: id, Source: source, ErrorMessage: err.Error()})
		s.fail(ctx, id, source, start, err)
		return nil, err
	}
	s.publish(ctx, observer.InspectionEvent{
		EventType:    observer.ImageFetched,
		InspectionID: id,
		Source:       source,
		Metadata: map[string]interface{}{
			"width":  fetched.Metadata.Width,
			"height": fetched.Metadata.Height,
			"format": fetched.Metadata.Format,
		},
	})

	return s.inspect(ctx, id, source, start, fetched)
}

func (s *flagInspectionService) InspectUpload(ctx context.Context, name string, data []byte) (*models.InspectionResponse, error) {
	id := uuid.NewString()
	start := s.now()
	source := "upload:" + name
	s.publish(ctx, observer.InspectionEvent{EventType: observer.InspectionStarted, InspectionID: id, Source: source})

	fetched, err := s.repo.DecodeUpload(data)
	if err != nil {
		s.fail(ctx, id, source, start, err)
		return nil, err
	}

	return s.inspect(ctx, id, source, start, fetched)
}

// InspectBatch inspects every source with bounded parallelism. A failing
// source is reported in its item and never aborts the rest.
func (s *flagInspectionService) InspectBatch(ctx context.Context, sources []string) (*models.BatchResponse, error) {
	if len(sources) == 0 {
		return nil, apperrors.NewValidationError("batch must contain at least one source", nil)
	}
	if s.opts.MaxBatchSize > 0 && len(sources) > s.opts.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch exceeds maximum of %d sources", s.opts.MaxBatchSize), nil).
			WithDetails(fmt.Sprintf("got %d", len(sources)))
	}

	items := make([]models.BatchItem, len(sources))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			items[i].Source = source
			resp, err := s.Inspect(ctx, source)
			if err != nil {
				items[i].Error = errorResponse(err)
				return nil
			}
			items[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()

	batch := &models.BatchResponse{Items: items, Total: len(items)}
	for _, item := range items {
		if item.Error != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	return batch, nil
}

func (s *flagInspectionService) inspect(ctx context.Context, id, source string, start time.Time, fetched *storage.FetchedImage) (*models.InspectionResponse, error) {
	report, err := s.analyze(ctx, fetched.Image)
	if err != nil {
		s.fail(ctx, id, source, start, err)
		return nil, err
	}

	elapsed := s.now().Sub(start)
	s.publish(ctx, observer.InspectionEvent{
		EventType:      observer.InspectionCompleted,
		InspectionID:   id,
		Source:         source,
		ProcessingTime: elapsed,
		Conforming:     report.OverallStatus == models.StatusPass,
		Metadata: map[string]interface{}{
			"passed_checks": report.PassedChecks,
			"total_checks":  report.TotalChecks,
		},
	})

	return &models.InspectionResponse{
		ID:             id,
		Source:         source,
		Timestamp:      start.UTC().Format(time.RFC3339),
		ProcessingTime: elapsed.Seconds(),
		Image:          fetched.Metadata,
		AnalysisReport: *report,
	}, nil
}

type analysisResult struct {
	report *models.AnalysisReport
	err    error
}

// analyze bounds the wait for a report. The analysis itself is not
// interruptible; on timeout it finishes in the background and is discarded.
func (s *flagInspectionService) analyze(ctx context.Context, img image.Image) (*models.AnalysisReport, error) {
	if s.opts.AnalysisTimeout <= 0 {
		return s.analyzer.Analyze(img)
	}

	done := make(chan analysisResult, 1)
	go func() {
		report, err := s.analyzer.Analyze(img)
		done <- analysisResult{report: report, err: err}
	}()

	timer := time.NewTimer(s.opts.AnalysisTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.report, res.err
	case <-timer.C:
		return nil, apperrors.NewTimeoutError("flag analysis timed out", nil)
	case <-ctx.Done():
		return nil, apperrors.NewTimeoutError("flag analysis cancelled", ctx.Err())
	}
}

func (s *flagInspectionService) fail(ctx context.Context, id, source string, start time.Time, err error) {
	s.publish(ctx, observer.InspectionEvent{
		EventType:      observer.InspectionFailed,
		InspectionID:   id,
		Source:         source,
		ProcessingTime: s.now().Sub(start),
		ErrorMessage:   err.Error(),
	})
}

func (s *flagInspectionService) publish(ctx context.Context, event observer.InspectionEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(context.WithoutCancel(ctx), event)
}

// classifyFetchError makes sure callers always see an AppError for fetch failures
func classifyFetchError(err error) error {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image fetch timed out", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}

// errorResponse renders a per-item failure of a batch
func errorResponse(err error) *models.ErrorResponse {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		return &models.ErrorResponse{Error: string(apperrors.ErrorTypeInternal), Message: err.Error()}
	}
	message := appErr.Message
	if appErr.Details != "" {
		message += " (" + appErr.Details + ")"
	}
	return &models.ErrorResponse{Error: string(appErr.Type), Message: message}
}
