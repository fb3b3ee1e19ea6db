package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"idcard-backend/internal/jobs"
	"idcard-backend/internal/layout"
	"idcard-backend/internal/models"
	"idcard-backend/internal/photo"
	"idcard-backend/internal/render"
	"idcard-backend/internal/spreadsheet"
	"idcard-backend/internal/storage"
)

var (
	ErrUploadNotFound   = errors.New("upload not found or expired")
	ErrArtifactNotFound = errors.New("artifact not found or expired")
	ErrNoRowsSelected   = errors.New("no rows match the selected ids")
	ErrNoDataRows       = errors.New("upload has no data rows")
)

// JobInProgressError is returned when a generate call hits an upload that is
// already generating.
type JobInProgressError = jobs.InProgressError

// PhotoResolver enriches rows with their photos, index for index.
type PhotoResolver interface {
	ResolveAll(ctx context.Context, rows []models.Row) []models.Photo
	ResolveLogo(ctx context.Context, ref string, wMM, hMM float64) ([]byte, error)
}

type JobServiceConfig struct {
	PreviewRows       int
	WorkerConcurrency int
	RetentionTTL      time.Duration
	BaseURL           string
	Template          models.CardTemplate
}

// JobService drives an upload from parsed spreadsheet to downloadable PDF.
type JobService struct {
	store     *jobs.Store
	parser    *spreadsheet.Parser
	photos    PhotoResolver
	renderer  *render.Renderer
	verifier  *render.Verifier
	artifacts storage.ArtifactStore
	cfg       JobServiceConfig
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func NewJobService(
	store *jobs.Store,
	parser *spreadsheet.Parser,
	photos PhotoResolver,
	renderer *render.Renderer,
	verifier *render.Verifier,
	artifacts storage.ArtifactStore,
	cfg JobServiceConfig,
	logger *slog.Logger,
) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	s := &JobService{
		store:     store,
		parser:    parser,
		photos:    photos,
		renderer:  renderer,
		verifier:  verifier,
		artifacts: artifacts,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		logger:    logger,
	}
	store.OnEvict(s.dropArtifact)
	return s
}

// Upload parses a spreadsheet and caches it under a new upload id.
func (s *JobService) Upload(ctx context.Context, filename string, data []byte) (models.Job, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return models.Job{}, fmt.Errorf("waiting for a worker: %w", err)
	}
	defer s.sem.Release(1)

	ds, err := s.parser.Parse(filename, data)
	if err != nil {
		return models.Job{}, err
	}
	job := s.store.Create(ds)

	s.logger.Info("spreadsheet uploaded",
		"upload_id", job.UploadID,
		"filename", filename,
		"rows", len(ds.Rows),
		"columns", len(ds.Schema),
		"invalid_rows", ds.InvalidRows())
	return job, nil
}

// Preview returns the job and its first PreviewRows rows.
func (s *JobService) Preview(uploadID string) (models.Job, []models.Row, error) {
	job, err := s.store.MarkPreviewed(uploadID)
	if err != nil {
		return models.Job{}, nil, s.notFound(err)
	}
	rows := job.Dataset.Rows
	if len(rows) > s.cfg.PreviewRows {
		rows = rows[:s.cfg.PreviewRows]
	}
	return job, rows, nil
}

// Job returns the current state of an upload.
func (s *JobService) Job(uploadID string) (models.Job, error) {
	job, err := s.store.Get(uploadID)
	if err != nil {
		return models.Job{}, s.notFound(err)
	}
	return job, nil
}

// Generate renders the cards of an upload. The work runs detached from ctx
// so a disconnecting client does not abort it; the call itself returns when
// the work is done or ctx ends, whichever is first.
func (s *JobService) Generate(ctx context.Context, uploadID string, req models.DesignRequest, selectedIDs []string) (models.Job, error) {
	job, err := s.store.Get(uploadID)
	if err != nil {
		return models.Job{}, s.notFound(err)
	}

	design, err := models.ParseDesign(req)
	if err != nil {
		summary := &models.GenerationSummary{
			TotalRows:   len(job.Dataset.Rows),
			InvalidRows: job.Dataset.InvalidRows(),
		}
		if _, rejectErr := s.store.Reject(uploadID, summary, err); rejectErr != nil {
			var inProgress *JobInProgressError
			if errors.As(rejectErr, &inProgress) {
				return models.Job{}, rejectErr
			}
			return models.Job{}, s.notFound(rejectErr)
		}
		s.logger.Warn("design rejected", "upload_id", uploadID, "error", err)
		return models.Job{}, err
	}

	job, err = s.store.BeginGenerate(uploadID)
	if err != nil {
		var inProgress *JobInProgressError
		if errors.As(err, &inProgress) {
			return models.Job{}, err
		}
		return models.Job{}, s.notFound(err)
	}

	type result struct {
		job models.Job
		err error
	}
	done := make(chan result, 1)
	go func() {
		j, err := s.generate(context.WithoutCancel(ctx), job, design, selectedIDs)
		done <- result{job: j, err: err}
	}()

	select {
	case res := <-done:
		return res.job, res.err
	case <-ctx.Done():
		return models.Job{}, ctx.Err()
	}
}

func (s *JobService) generate(ctx context.Context, job models.Job, design models.DesignConfig, selectedIDs []string) (models.Job, error) {
	logCtx := s.logger.With("upload_id", job.UploadID)
	started := time.Now()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.fail(logCtx, job.UploadID, nil, fmt.Errorf("waiting for a worker: %w", err))
	}
	defer s.sem.Release(1)

	ds := job.Dataset
	if len(ds.Rows) == 0 {
		return s.fail(logCtx, job.UploadID, nil, ErrNoDataRows)
	}
	rows := filterRows(ds.Rows, selectedIDs)
	if len(rows) == 0 {
		return s.fail(logCtx, job.UploadID, nil, ErrNoRowsSelected)
	}

	summary := &models.GenerationSummary{TotalRows: len(rows)}
	for _, row := range rows {
		if row.Status == models.RowInvalid {
			summary.InvalidRows++
		}
		for _, issue := range row.Issues {
			summary.AddIssue(issue)
		}
	}

	photos := s.photos.ResolveAll(ctx, rows)
	for i, p := range photos {
		if p.Missing {
			summary.AddIssue(models.RowIssue{
				Row:       rows[i].SourceRow,
				Column:    models.ColumnPhotoPath,
				Reference: rows[i].Value(models.ColumnPhotoPath),
				Reason:    p.Reason,
			})
		}
	}

	if design.Logo != "" {
		w, h := s.cfg.Template.LogoSize()
		logo, err := s.photos.ResolveLogo(ctx, design.Logo, w, h)
		if err != nil {
			logCtx.Warn("logo unavailable, rendering without it", "error", err)
			summary.AddIssue(logoIssue(design.Logo, err))
		} else {
			design.LogoImage = logo
		}
	}

	plan := layout.Build(len(rows), s.cfg.Template)
	cards := render.CardsFromRows(rows, ds.Schema, photos, s.cfg.Template.MaxExtraLines)
	doc, err := s.renderer.Render(plan, cards, design)
	if err != nil {
		return s.fail(logCtx, job.UploadID, summary, fmt.Errorf("failed to render cards: %w", err))
	}
	summary.MissingPhotos = doc.PlaceholderPhotos
	summary.QRCodes = doc.QRCodes
	summary.Pages = doc.Pages

	if err := s.verifier.Verify(doc.Bytes, plan.Pages()); err != nil {
		return s.fail(logCtx, job.UploadID, summary, err)
	}

	now := time.Now()
	artifactID := uuid.New().String()
	artifact := &models.Artifact{
		ID:          artifactID,
		UploadID:    job.UploadID,
		Filename:    artifactFilename(ds.Filename),
		Size:        int64(len(doc.Bytes)),
		Pages:       doc.Pages,
		StorageKey:  storage.ArtifactKey(job.UploadID, artifactID),
		DownloadURL: s.cfg.BaseURL + "/api/download/" + artifactID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.RetentionTTL),
	}
	if err := s.artifacts.Put(ctx, artifact.StorageKey, doc.Bytes, "application/pdf"); err != nil {
		return s.fail(logCtx, job.UploadID, summary, fmt.Errorf("failed to store artifact: %w", err))
	}

	if err := s.store.Complete(job.UploadID, summary, artifact); err != nil {
		// The upload was deleted while rendering.
		_ = s.artifacts.Delete(ctx, artifact.StorageKey)
		return models.Job{}, s.notFound(err)
	}
	if job.Artifact != nil {
		s.dropArtifact(job)
	}

	renderJob := models.RenderJob{
		UploadID:     job.UploadID,
		Design:       design,
		ResolvedRows: len(rows) - summary.MissingPhotos,
		FailedRows:   summary.MissingPhotos,
	}
	logCtx.Info("cards generated",
		"artifact_id", artifactID,
		"font", renderJob.Design.Font,
		"rows", len(rows),
		"resolved_photos", renderJob.ResolvedRows,
		"placeholder_photos", renderJob.FailedRows,
		"qr_codes", doc.QRCodes,
		"logo", doc.Logo,
		"pages", doc.Pages,
		"bytes", len(doc.Bytes),
		"duration", time.Since(started))

	updated, err := s.store.Get(job.UploadID)
	if err != nil {
		return models.Job{}, s.notFound(err)
	}
	return updated, nil
}

// Artifact returns the metadata and bytes of a generated document.
func (s *JobService) Artifact(ctx context.Context, artifactID string) (models.Artifact, []byte, error) {
	job, err := s.store.Artifact(artifactID)
	if err != nil {
		return models.Artifact{}, nil, ErrArtifactNotFound
	}
	data, err := s.artifacts.Get(ctx, job.Artifact.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Artifact{}, nil, ErrArtifactNotFound
	}
	if err != nil {
		return models.Artifact{}, nil, fmt.Errorf("failed to load artifact %s: %w", artifactID, err)
	}
	return *job.Artifact, data, nil
}

// Delete drops an upload and its artifact.
func (s *JobService) Delete(ctx context.Context, uploadID string) error {
	job, err := s.store.Delete(uploadID)
	if err != nil {
		return s.notFound(err)
	}
	if job.Artifact != nil {
		if err := s.artifacts.Delete(ctx, job.Artifact.StorageKey); err != nil {
			return fmt.Errorf("failed to delete artifact: %w", err)
		}
	}
	s.logger.Info("upload deleted", "upload_id", uploadID)
	return nil
}

// ActiveUploads is the number of uploads currently cached.
func (s *JobService) ActiveUploads() int {
	return s.store.Len()
}

func (s *JobService) fail(logCtx *slog.Logger, uploadID string, summary *models.GenerationSummary, cause error) (models.Job, error) {
	logCtx.Error("generation failed", "error", cause)
	if err := s.store.Fail(uploadID, summary, cause); err != nil {
		logCtx.Warn("could not record failure", "error", err)
	}
	return models.Job{}, cause
}

func (s *JobService) dropArtifact(job models.Job) {
	if job.Artifact == nil {
		return
	}
	if err := s.artifacts.Delete(context.Background(), job.Artifact.StorageKey); err != nil {
		s.logger.Warn("failed to delete artifact", "artifact_id", job.Artifact.ID, "error", err)
	}
}

func (s *JobService) notFound(err error) error {
	if errors.Is(err, jobs.ErrNotFound) {
		return ErrUploadNotFound
	}
	return err
}

// logoIssue reports a logo that could not be used. It belongs to no row.
func logoIssue(ref string, err error) models.RowIssue {
	reason := err.Error()
	var fe *photo.FetchError
	if errors.As(err, &fe) {
		reason = fe.Reason
		if fe.Err != nil {
			reason += ": " + fe.Err.Error()
		}
	}
	if strings.HasPrefix(strings.ToLower(ref), "data:") {
		ref = "data URI"
	}
	return models.RowIssue{Column: "logo", Reference: ref, Reason: reason}
}

// filterRows keeps rows whose ID is in ids, in dataset order. No ids keeps
// every row.
func filterRows(rows []models.Row, ids []string) []models.Row {
	if len(ids) == 0 {
		return rows
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = true
	}
	var out []models.Row
	for _, row := range rows {
		if wanted[row.Value(models.ColumnID)] {
			out = append(out, row)
		}
	}
	return out
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func artifactFilename(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	base = strings.Trim(unsafeFilename.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "id"
	}
	return base + "-cards.pdf"
}
