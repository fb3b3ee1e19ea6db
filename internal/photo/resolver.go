// Package photo resolves the photo reference of each spreadsheet row into a
// JPEG sized for the card. Failures never surface as errors: the row gets a
// placeholder image and a reason instead.
package photo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"idcard-backend/internal/models"
)

const reasonBatchDeadline = "batch deadline exceeded"

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type Config struct {
	AssetRoot    string
	FetchTimeout time.Duration
	BatchTimeout time.Duration
	MaxBytes     int64
	Workers      int
	// MatchByID looks up rows without a reference by searching the asset
	// root for a file named after the row ID.
	MatchByID    bool
	SlotWidthMM  float64
	SlotHeightMM float64
}

type Resolver struct {
	cfg        Config
	fetcher    *Fetcher
	normalizer *Normalizer
	logger     *slog.Logger

	placeholderOnce sync.Once
	placeholder     []byte
}

func NewResolver(cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Resolver{
		cfg:        cfg,
		fetcher:    NewFetcher(cfg.FetchTimeout, cfg.MaxBytes),
		normalizer: NewNormalizer(cfg.SlotWidthMM, cfg.SlotHeightMM),
		logger:     logger,
	}
}

// Fetcher exposes the HTTP fetcher so its retry schedule can be tuned.
func (r *Resolver) Fetcher() *Fetcher {
	return r.fetcher
}

// Placeholder returns the JPEG used for rows without a usable photo.
func (r *Resolver) Placeholder() []byte {
	r.placeholderOnce.Do(func() {
		r.placeholder = r.normalizer.Placeholder()
	})
	return r.placeholder
}

// Resolve turns one reference into a photo.
func (r *Resolver) Resolve(ctx context.Context, ref string) models.Photo {
	ref = strings.TrimSpace(ref)
	raw, err := r.load(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			err = &FetchError{Ref: ref, Reason: reasonBatchDeadline}
		}
		return r.missing(err)
	}

	data, format, err := r.normalizer.Normalize(raw)
	if err != nil {
		return r.missing(&FetchError{Ref: ref, Reason: "cannot decode image", Err: err})
	}
	return models.Photo{Data: data, Format: format}
}

// ResolveLogo loads a logo and scales it to fit a wMM x hMM box. Unlike
// photos, a logo is never cropped and failures are returned.
func (r *Resolver) ResolveLogo(ctx context.Context, ref string, wMM, hMM float64) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	raw, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	w := max(1, int(math.Round(wMM*PixelsPerMM)))
	h := max(1, int(math.Round(hMM*PixelsPerMM)))
	data, err := FitPNG(raw, w, h)
	if err != nil {
		return nil, &FetchError{Ref: shortRef(ref), Reason: "cannot decode image", Err: err}
	}
	return data, nil
}

// ResolveAll resolves every row's photo concurrently. The result is indexed
// like rows. Rows still unresolved when the batch deadline passes get the
// placeholder.
func (r *Resolver) ResolveAll(ctx context.Context, rows []models.Row) []models.Photo {
	started := time.Now()
	photos := make([]models.Photo, len(rows))

	batchCtx := ctx
	if r.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, r.cfg.BatchTimeout)
		defer cancel()
	}

	var index []string
	if r.cfg.MatchByID {
		index = r.assetIndex()
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, row := range rows {
		ref := strings.TrimSpace(row.Value(models.ColumnPhotoPath))
		if ref == "" && index != nil {
			ref = matchByID(index, row.Value(models.ColumnID))
		}
		g.Go(func() error {
			if batchCtx.Err() != nil {
				photos[i] = r.missing(&FetchError{Ref: ref, Reason: reasonBatchDeadline})
				return nil
			}
			photos[i] = r.Resolve(batchCtx, ref)
			return nil
		})
	}
	_ = g.Wait()

	missing := 0
	for _, p := range photos {
		if p.Missing {
			missing++
		}
	}
	r.logger.Info("photos resolved",
		"rows", len(rows),
		"missing", missing,
		"duration", time.Since(started))
	return photos
}

func (r *Resolver) missing(err error) models.Photo {
	reason := err.Error()
	var fe *FetchError
	if errors.As(err, &fe) {
		reason = fe.Reason
		if fe.Err != nil {
			reason += ": " + fe.Err.Error()
		}
	}
	return models.Photo{
		Data:    r.Placeholder(),
		Format:  "jpeg",
		Missing: true,
		Reason:  reason,
	}
}

func (r *Resolver) load(ctx context.Context, ref string) ([]byte, error) {
	lower := strings.ToLower(ref)
	switch {
	case ref == "":
		return nil, &FetchError{Ref: ref, Reason: "no photo reference"}
	case strings.HasPrefix(lower, "data:"):
		return r.decodeDataURI(ref)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		data, err := r.fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, &FetchError{Ref: ref, Reason: "download failed", Err: err}
		}
		return data, nil
	default:
		return r.readLocal(ref)
	}
}

// decodeDataURI accepts data:[<mediatype>][;base64],<data>.
func (r *Resolver) decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return nil, &FetchError{Ref: shortRef(ref), Reason: "malformed data URI"}
	}

	var data []byte
	var err error
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, &FetchError{Ref: shortRef(ref), Reason: "malformed data URI", Err: err}
	}
	if r.cfg.MaxBytes > 0 && int64(len(data)) > r.cfg.MaxBytes {
		return nil, &FetchError{Ref: shortRef(ref), Reason: fmt.Sprintf("image exceeds %d bytes", r.cfg.MaxBytes)}
	}
	return data, nil
}

// readLocal opens ref relative to the asset root. Absolute paths, parent
// traversal and symlinks leaving the root are refused.
func (r *Resolver) readLocal(ref string) ([]byte, error) {
	name := filepath.FromSlash(ref)
	if !filepath.IsLocal(name) {
		return nil, &FetchError{Ref: ref, Reason: "path escapes asset root"}
	}

	root, err := os.OpenRoot(r.cfg.AssetRoot)
	if err != nil {
		return nil, &FetchError{Ref: ref, Reason: "asset root unavailable", Err: err}
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{Ref: ref, Reason: "file not found"}
		}
		return nil, &FetchError{Ref: ref, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &FetchError{Ref: ref, Reason: "cannot open file", Err: err}
	}
	if info.IsDir() {
		return nil, &FetchError{Ref: ref, Reason: "reference is a directory"}
	}
	if r.cfg.MaxBytes > 0 && info.Size() > r.cfg.MaxBytes {
		return nil, &FetchError{Ref: ref, Reason: fmt.Sprintf("image exceeds %d bytes", r.cfg.MaxBytes)}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &FetchError{Ref: ref, Reason: "cannot read file", Err: err}
	}
	return data, nil
}

// assetIndex lists image files under the asset root in lexical order.
func (r *Resolver) assetIndex() []string {
	root, err := os.OpenRoot(r.cfg.AssetRoot)
	if err != nil {
		r.logger.Warn("asset root unavailable for ID matching", "root", r.cfg.AssetRoot, "error", err)
		return []string{}
	}
	defer root.Close()

	index := []string{}
	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && imageExtensions[strings.ToLower(path.Ext(p))] {
			index = append(index, p)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to index asset root", "root", r.cfg.AssetRoot, "error", err)
	}
	return index
}

// matchByID returns the first indexed file whose name contains id.
func matchByID(index []string, id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return ""
	}
	for _, p := range index {
		base := strings.ToLower(path.Base(p))
		stem := strings.TrimSuffix(base, path.Ext(base))
		if strings.Contains(stem, id) {
			return p
		}
	}
	return ""
}

func shortRef(ref string) string {
	if len(ref) > 48 {
		return ref[:48] + "..."
	}
	return ref
}
