// Package intake turns uploaded practice videos into stored reference
// material: validate the file, archive it, and extract landmarks through
// the extraction sidecar.
package intake

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/signbridge-ai/signbridge/pkg/models"
	"github.com/signbridge-ai/signbridge/pkg/store"
)

// Pipeline stages reported in validation errors.
const (
	StageFileValidation     = "file_validation"
	StagePropertyValidation = "property_validation"
	StageExtraction         = "landmark_extraction"
)

// Property limits for uploaded videos.
const (
	minDurationSeconds = 0.5
	maxDurationSeconds = 30.0
	minDimension       = 240
	minFPS             = 10.0
)

var supportedFormats = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

const supportedFormatList = ".avi, .mkv, .mov, .mp4, .webm"

// ValidationError reports an upload the pipeline rejected, and at which
// stage. These map to client errors; anything else is an internal failure.
type ValidationError struct {
	Stage   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Processor runs the intake pipeline against the store and the extractor.
type Processor struct {
	store          *store.Store
	extractor      Extractor
	maxUploadBytes int64
	workers        int
	log            zerolog.Logger
}

func NewProcessor(st *store.Store, ex Extractor, maxUploadMB, workers int, log zerolog.Logger) *Processor {
	return &Processor{
		store:          st,
		extractor:      ex,
		maxUploadBytes: int64(maxUploadMB) << 20,
		workers:        workers,
		log:            log.With().Str("component", "intake").Logger(),
	}
}

// Process ingests one uploaded video: validate the file, save it, check
// its properties, extract landmarks, and archive the result. A video that
// fails property validation is deleted again, so the store never holds a
// video the pipeline rejected.
func (p *Processor) Process(ctx context.Context, signName, filename string, size int64, video io.Reader) (models.ProcessReport, error) {
	name, err := store.NormalizeSignName(signName)
	if err != nil {
		return models.ProcessReport{}, err
	}

	if err := p.validateUpload(filename, size); err != nil {
		return models.ProcessReport{}, err
	}

	videoPath, written, err := p.store.SaveVideo(name, video)
	if err != nil {
		return models.ProcessReport{}, fmt.Errorf("save video: %w", err)
	}
	p.log.Info().Str("sign", name).Int64("bytes", written).Msg("processing upload")

	props, err := p.checkProperties(ctx, videoPath)
	if err != nil {
		if derr := p.store.Delete(name); derr != nil {
			p.log.Warn().Err(derr).Str("sign", name).Msg("cleanup after rejected upload failed")
		}
		return models.ProcessReport{Properties: props}, err
	}

	report, err := p.extractAndArchive(ctx, name, videoPath, props)
	if err != nil {
		// Extraction failures leave no partial state behind.
		if derr := p.store.Delete(name); derr != nil {
			p.log.Warn().Err(derr).Str("sign", name).Msg("cleanup after failed extraction failed")
		}
		return models.ProcessReport{Properties: props}, err
	}
	report.Message = fmt.Sprintf("Video processed successfully. Extracted landmarks from %d frames.", report.ProcessedFrames)
	return report, nil
}

// Reprocess re-runs property validation and extraction against a sign's
// stored video, replacing its landmark data. The video stays in place
// even when validation fails.
func (p *Processor) Reprocess(ctx context.Context, signName string) (models.ProcessReport, error) {
	name, err := store.NormalizeSignName(signName)
	if err != nil {
		return models.ProcessReport{}, err
	}
	videoPath, err := p.store.VideoPath(name)
	if err != nil {
		return models.ProcessReport{}, err
	}

	props, err := p.checkProperties(ctx, videoPath)
	if err != nil {
		return models.ProcessReport{Properties: props}, err
	}

	report, err := p.extractAndArchive(ctx, name, videoPath, props)
	if err != nil {
		return models.ProcessReport{Properties: props}, err
	}
	report.Message = fmt.Sprintf("Video reprocessed successfully. Extracted landmarks from %d frames.", report.ProcessedFrames)
	return report, nil
}

// ReprocessSummary aggregates the outcome of a bulk reprocess.
type ReprocessSummary struct {
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// ReprocessAll re-extracts landmarks for every stored sign, running up to
// the configured number of extractions concurrently.
func (p *Processor) ReprocessAll(ctx context.Context) (ReprocessSummary, error) {
	signs, err := p.store.List()
	if err != nil {
		return ReprocessSummary{}, err
	}

	type outcome struct {
		sign string
		err  error
	}

	wp := pool.NewWithResults[outcome]().WithMaxGoroutines(p.workers)
	for _, sign := range signs {
		wp.Go(func() outcome {
			_, err := p.Reprocess(ctx, sign.Name)
			return outcome{sign: sign.Name, err: err}
		})
	}

	summary := ReprocessSummary{}
	for _, o := range wp.Wait() {
		if o.err != nil {
			summary.Failed++
			if summary.Failures == nil {
				summary.Failures = make(map[string]string)
			}
			summary.Failures[o.sign] = o.err.Error()
			continue
		}
		summary.Processed++
	}

	p.log.Info().
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Msg("bulk reprocess complete")
	return summary, nil
}

func (p *Processor) validateUpload(filename string, size int64) error {
	if size > p.maxUploadBytes {
		return &ValidationError{
			Stage:   StageFileValidation,
			Message: fmt.Sprintf("file size (%.1fMB) exceeds limit (%dMB)", float64(size)/(1<<20), p.maxUploadBytes>>20),
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedFormats[ext] {
		return &ValidationError{
			Stage:   StageFileValidation,
			Message: fmt.Sprintf("unsupported format %q, supported: %s", ext, supportedFormatList),
		}
	}
	return nil
}

func (p *Processor) checkProperties(ctx context.Context, videoPath string) (models.VideoProperties, error) {
	props, err := p.extractor.Probe(ctx, videoPath)
	if err != nil {
		return models.VideoProperties{}, fmt.Errorf("probe video: %w", err)
	}
	if err := validateProperties(props); err != nil {
		return props, err
	}
	return props, nil
}

func validateProperties(props models.VideoProperties) error {
	reject := func(msg string) error {
		return &ValidationError{Stage: StagePropertyValidation, Message: msg}
	}
	switch {
	case props.Duration < minDurationSeconds:
		return reject(fmt.Sprintf("video too short (%.1fs), minimum: %.1fs", props.Duration, minDurationSeconds))
	case props.Duration > maxDurationSeconds:
		return reject(fmt.Sprintf("video too long (%.1fs), maximum: %.0fs", props.Duration, maxDurationSeconds))
	case props.Width < minDimension || props.Height < minDimension:
		return reject(fmt.Sprintf("resolution too low (%dx%d), minimum: %dx%d", props.Width, props.Height, minDimension, minDimension))
	case props.FPS < minFPS:
		return reject(fmt.Sprintf("frame rate too low (%.1f fps), minimum: %.0f fps", props.FPS, minFPS))
	}
	return nil
}

func (p *Processor) extractAndArchive(ctx context.Context, name, videoPath string, props models.VideoProperties) (models.ProcessReport, error) {
	landmarks, err := p.extractor.Extract(ctx, videoPath)
	if err != nil {
		return models.ProcessReport{}, fmt.Errorf("extract landmarks: %w", err)
	}
	landmarks.SignName = name
	landmarks.ProcessedAt = time.Now().UTC()

	if _, err := p.store.SaveLandmarks(name, landmarks); err != nil {
		return models.ProcessReport{}, fmt.Errorf("save landmarks: %w", err)
	}

	videoURL, dataURL := p.store.URLs(name)
	return models.ProcessReport{
		SignName:        name,
		VideoURL:        videoURL,
		DataURL:         dataURL,
		Properties:      props,
		ProcessedFrames: len(landmarks.Frames),
	}, nil
}
