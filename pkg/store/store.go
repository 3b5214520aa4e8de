// Package store archives reference material per sign: the uploaded video
// under videos/<sign>.mp4 and the extracted landmarks under
// data/<sign>_landmarks.json. A sign counts as available only when both
// files exist.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

const landmarkSuffix = "_landmarks.json"

var (
	// ErrNotFound reports that a sign has no stored files.
	ErrNotFound = errors.New("sign not found")
	// ErrInvalidSignName reports a name that cannot become a safe filename.
	ErrInvalidSignName = errors.New("invalid sign name")
)

// signNamePattern is the shape of a normalized sign name. Names become
// filenames, so anything that could escape the storage directories is
// rejected up front.
var signNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NormalizeSignName lowercases and validates a sign name. The normalized
// form is what all storage paths and cache keys use.
func NormalizeSignName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if !signNamePattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSignName, name)
	}
	return n, nil
}

// Store is the on-disk archive of sign videos and landmark data.
type Store struct {
	baseDir   string
	videosDir string
	dataDir   string
	log       zerolog.Logger
}

// New creates the storage directories if needed and returns the store.
func New(baseDir string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		baseDir:   baseDir,
		videosDir: filepath.Join(baseDir, "videos"),
		dataDir:   filepath.Join(baseDir, "data"),
		log:       log.With().Str("component", "store").Logger(),
	}
	if err := os.MkdirAll(s.videosDir, 0o755); err != nil {
		return nil, fmt.Errorf("create videos dir: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return s, nil
}

// BaseDir returns the root the HTTP layer serves as /static/.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// SaveVideo streams the uploaded video to videos/<sign>.mp4, replacing any
// previous upload for the sign.
func (s *Store) SaveVideo(signName string, r io.Reader) (string, int64, error) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.videosDir, name+".mp4")

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create video file: %w", err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write video file: %w", err)
	}

	s.log.Info().Str("sign", name).Int64("bytes", written).Msg("video saved")
	return path, written, nil
}

// SaveLandmarks writes the extraction result to data/<sign>_landmarks.json.
func (s *Store) SaveLandmarks(signName string, data models.LandmarkData) (string, error) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dataDir, name+landmarkSuffix)

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode landmark data: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write landmark data: %w", err)
	}

	s.log.Info().Str("sign", name).Int("frames", len(data.Frames)).Msg("landmark data saved")
	return path, nil
}

// LoadLandmarks reads a sign's stored landmark data.
func (s *Store) LoadLandmarks(signName string) (models.LandmarkData, error) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return models.LandmarkData{}, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dataDir, name+landmarkSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return models.LandmarkData{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return models.LandmarkData{}, fmt.Errorf("read landmark data: %w", err)
	}

	var data models.LandmarkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.LandmarkData{}, fmt.Errorf("decode landmark data: %w", err)
	}
	return data, nil
}

// VideoPath returns the path of a sign's stored video, or ErrNotFound.
func (s *Store) VideoPath(signName string) (string, error) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.videosDir, name+".mp4")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("stat video: %w", err)
	}
	return path, nil
}

// DataPath returns the path of a sign's landmark file, or ErrNotFound.
func (s *Store) DataPath(signName string) (string, error) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dataDir, name+landmarkSuffix)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("stat landmark data: %w", err)
	}
	return path, nil
}

// List returns every sign that has both a video and landmark data,
// sorted by name.
func (s *Store) List() ([]models.SignInfo, error) {
	videos, err := filepath.Glob(filepath.Join(s.videosDir, "*.mp4"))
	if err != nil {
		return nil, fmt.Errorf("scan videos: %w", err)
	}

	var signs []models.SignInfo
	for _, videoPath := range videos {
		base := filepath.Base(videoPath)
		name := strings.TrimSuffix(base, ".mp4")
		dataFile := name + landmarkSuffix
		if _, err := os.Stat(filepath.Join(s.dataDir, dataFile)); err != nil {
			continue
		}
		signs = append(signs, models.SignInfo{
			Name:     name,
			VideoURL: "/static/videos/" + base,
			DataURL:  "/static/data/" + dataFile,
		})
	}
	sort.Slice(signs, func(i, j int) bool { return signs[i].Name < signs[j].Name })
	return signs, nil
}

// URLs returns the public paths for a sign's stored files.
func (s *Store) URLs(signName string) (videoURL, dataURL string) {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return "", ""
	}
	return "/static/videos/" + name + ".mp4", "/static/data/" + name + landmarkSuffix
}

// Delete removes a sign's video and landmark data. ErrNotFound when
// neither file existed.
func (s *Store) Delete(signName string) error {
	name, err := NormalizeSignName(signName)
	if err != nil {
		return err
	}

	deleted := 0
	for _, path := range []string{
		filepath.Join(s.videosDir, name+".mp4"),
		filepath.Join(s.dataDir, name+landmarkSuffix),
	} {
		err := os.Remove(path)
		switch {
		case err == nil:
			deleted++
		case os.IsNotExist(err):
		default:
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	s.log.Info().Str("sign", name).Int("files", deleted).Msg("sign deleted")
	return nil
}

// Stats reports file counts and disk usage. Size covers the video files;
// landmark JSON is negligible next to them.
func (s *Store) Stats() (models.StorageStats, error) {
	stats := models.StorageStats{BaseDirectory: s.baseDir}

	videos, err := filepath.Glob(filepath.Join(s.videosDir, "*.mp4"))
	if err != nil {
		return stats, fmt.Errorf("scan videos: %w", err)
	}
	stats.VideoFiles = len(videos)

	var totalBytes int64
	for _, path := range videos {
		if info, err := os.Stat(path); err == nil {
			totalBytes += info.Size()
		}
	}
	stats.StorageSizeMB = math.Round(float64(totalBytes)/(1024*1024)*100) / 100

	data, err := filepath.Glob(filepath.Join(s.dataDir, "*"+landmarkSuffix))
	if err != nil {
		return stats, fmt.Errorf("scan landmark data: %w", err)
	}
	stats.DataFiles = len(data)

	signs, err := s.List()
	if err != nil {
		return stats, err
	}
	stats.TotalSigns = len(signs)

	return stats, nil
}
