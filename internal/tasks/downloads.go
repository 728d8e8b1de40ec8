package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/services"
	"github.com/desertthunder/mrd/internal/shared"
	"golang.org/x/time/rate"
)

// DownloadRecorder persists finished download attempts.
type DownloadRecorder interface {
	RecordDownload(rec models.DownloadRecord) error
}

// Saver writes a downloaded audio stream somewhere and reports where.
type Saver interface {
	Save(name string, r io.Reader) (path string, n int64, err error)
}

// FileSaver saves audio into Dir.
//
// Data is written to a temp file in Dir and renamed into place, so a failed
// transfer never leaves a file under the final name.
type FileSaver struct {
	Dir string
}

// Save implements [Saver].
func (s FileSaver) Save(name string, r io.Reader) (string, int64, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mrd-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("failed to write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to write audio: %w", err)
	}

	path, err := linkFree(tmp.Name(), dir, name)
	if err != nil {
		return "", 0, err
	}
	return path, n, nil
}

// linkFree links src into dir under name, or "<stem> (n)<ext>" when name is taken.
// Existing files are never replaced.
func linkFree(src, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		err := os.Link(src, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
}

// DownloaderOpts configures a [Downloader].
type DownloaderOpts struct {
	Client        services.TrackDownloader
	Saver         Saver
	MaxConcurrent int     // 0 is unbounded
	RateLimit     float64 // Requests per second, 0 is unlimited
	Recorder      DownloadRecorder
	Logger        *log.Logger
}

// Downloader runs per-row downloads, each with its own loading flag keyed by video ID.
type Downloader struct {
	client   services.TrackDownloader
	saver    Saver
	sem      chan struct{}
	limiter  *rate.Limiter
	recorder DownloadRecorder
	logger   *log.Logger

	mu      sync.Mutex
	loading map[string]bool
}

// NewDownloader creates a Downloader. Saver defaults to a [FileSaver] in the working directory.
func NewDownloader(opts DownloaderOpts) *Downloader {
	if opts.Saver == nil {
		opts.Saver = FileSaver{Dir: "."}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	d := &Downloader{
		client:   opts.Client,
		saver:    opts.Saver,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		loading:  make(map[string]bool),
	}
	if opts.MaxConcurrent > 0 {
		d.sem = make(chan struct{}, opts.MaxConcurrent)
	}
	if opts.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return d
}

// Loading reports whether the row for videoID has a download queued or running.
func (d *Downloader) Loading(videoID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading[videoID]
}

// Active returns the video IDs with a download queued or running, sorted.
func (d *Downloader) Active() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.loading))
	for id := range d.loading {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Download fetches the track's MP3 and saves it as "<title>.mp3".
func (d *Downloader) Download(ctx context.Context, track models.TrackResult) (models.DownloadRecord, error) {
	return d.DownloadTo(ctx, track, d.saver)
}

// DownloadTo is [Downloader.Download] with an explicit destination.
//
// The row's loading flag is set for the whole call and cleared exactly once on return.
// A second call for a row that is still loading fails with [shared.ErrDownloadInProgress].
func (d *Downloader) DownloadTo(ctx context.Context, track models.TrackResult, saver Saver) (models.DownloadRecord, error) {
	rec := models.DownloadRecord{
		ID:      shared.GenerateID(),
		VideoID: track.VideoID,
		Title:   track.Title,
	}

	if d.client == nil {
		return rec, fmt.Errorf("%w: downloader not initialized", shared.ErrServiceUnavailable)
	}
	if track.VideoID == "" {
		return rec, fmt.Errorf("%w: track has no video id", shared.ErrInvalidInput)
	}
	if !d.acquireRow(track.VideoID) {
		return rec, fmt.Errorf("%w: %s", shared.ErrDownloadInProgress, track.Title)
	}
	defer d.releaseRow(track.VideoID)

	logger := shared.WithLogger(d.logger, "video_id", track.VideoID, "title", track.Title)

	path, n, err := d.fetch(ctx, track, saver)
	rec.Path, rec.Bytes, rec.CreatedAt = path, n, time.Now().UTC()
	if err != nil {
		rec.Error = err.Error()
		logger.Error("download failed", "err", err)
	} else {
		logger.Info("download saved", "path", path, "bytes", n)
	}

	if d.recorder != nil {
		if rerr := d.recorder.RecordDownload(rec); rerr != nil {
			logger.Warn("failed to record download", "err", rerr)
		}
	}
	return rec, err
}

func (d *Downloader) fetch(ctx context.Context, track models.TrackResult, saver Saver) (string, int64, error) {
	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}
	}

	body, err := d.client.Download(ctx, track.VideoID, track.Title)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	return saver.Save(track.FileName(), body)
}

func (d *Downloader) acquireRow(videoID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading[videoID] {
		return false
	}
	d.loading[videoID] = true
	return true
}

func (d *Downloader) releaseRow(videoID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.loading, videoID)
}

// BatchResult summarizes [Downloader.DownloadAll].
type BatchResult struct {
	Records   []models.DownloadRecord
	Succeeded int
	Failed    int
}

// DownloadAll downloads every track with a pool of workers and reports progress per track.
//
// Failures are collected rather than aborting the batch. Records are returned in input order.
func (d *Downloader) DownloadAll(ctx context.Context, prog chan<- ProgressUpdate, tracks []models.TrackResult, workers int) *BatchResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tracks) {
		workers = len(tracks)
	}

	type job struct {
		index int
		track models.TrackResult
	}
	type outcome struct {
		index int
		rec   models.DownloadRecord
		err   error
	}

	jobs := make(chan job, len(tracks))
	results := make(chan outcome, len(tracks))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					results <- outcome{index: j.index, rec: models.DownloadRecord{VideoID: j.track.VideoID, Title: j.track.Title, Error: ctx.Err().Error()}, err: ctx.Err()}
					continue
				}
				sendProgress(prog, downloadStartedUpdate(j.index+1, len(tracks), j.track))
				rec, err := d.Download(ctx, j.track)
				if err != nil && rec.Error == "" {
					rec.Error = err.Error()
				}
				results <- outcome{index: j.index, rec: rec, err: err}
			}
		}()
	}

	for i, tr := range tracks {
		jobs <- job{index: i, track: tr}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := &BatchResult{Records: make([]models.DownloadRecord, len(tracks))}
	completed := 0
	for res := range results {
		completed++
		batch.Records[res.index] = res.rec
		if res.err != nil {
			batch.Failed++
			sendProgress(prog, downloadFailedUpdate(completed, len(tracks), tracks[res.index], res.err))
		} else {
			batch.Succeeded++
			sendProgress(prog, downloadCompletedUpdate(completed, len(tracks), res.rec))
		}
	}
	return batch
}
