package infra

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// FileConfigStore implements domain.ConfigStore with a JSON file.
type FileConfigStore struct {
	path   string
	logger *zap.Logger
}

// NewFileConfigStore creates a store for the document at path.
func NewFileConfigStore(path string, logger *zap.Logger) *FileConfigStore {
	return &FileConfigStore{path: path, logger: logger}
}

// rawSettings mirrors domain.Settings with optional fields so missing
// values can be told apart from zero values.
type rawSettings struct {
	Threshold     *float64 `json:"threshold"`
	Dwell         *float64 `json:"dwell"`
	Cooldown      *float64 `json:"cooldown"`
	LaunchAtLogin *bool    `json:"launch_at_login"`
}

type rawDocument struct {
	TopLeft     []domain.Action `json:"top_left"`
	TopRight    []domain.Action `json:"top_right"`
	BottomLeft  []domain.Action `json:"bottom_left"`
	BottomRight []domain.Action `json:"bottom_right"`
	Settings    *rawSettings    `json:"settings"`
}

// Path returns the document path.
func (s *FileConfigStore) Path() string {
	return s.path
}

// Load returns the document. A missing file is replaced by a persisted
// default document; unreadable content yields defaults in memory and the
// file is left untouched.
func (s *FileConfigStore) Load() *domain.Document {
	if err := s.ensureDir(); err != nil {
		s.logWarn("failed to create config dir", zap.Error(err))
	}

	doc, err := s.Read()
	if err == nil {
		return doc
	}

	if errors.Is(err, os.ErrNotExist) {
		s.logInfo("config not found, writing defaults", zap.String("path", s.path))
		doc = domain.DefaultDocument()
		if err := s.Save(doc); err != nil {
			s.logError("failed to write default config", zap.Error(err))
		}
		return doc
	}

	s.logError("failed to read config, using defaults", zap.String("path", s.path), zap.Error(err))
	return domain.DefaultDocument()
}

// Read decodes and backfills the document. It never writes.
func (s *FileConfigStore) Read() (*domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// Save validates, backfills and atomically writes doc. doc itself is not modified.
func (s *FileConfigStore) Save(doc *domain.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	out := doc.Clone()
	out.Normalize()

	if err := ValidateDocument(out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := EncodeDocument(out)
	if err != nil {
		return err
	}

	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return atomicWriteFile(s.path, data, 0644)
}

// ModTime returns the on-disk modification time of the document.
func (s *FileConfigStore) ModTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s *FileConfigStore) ensureDir() error {
	return os.MkdirAll(filepath.Dir(s.path), 0755)
}

func (s *FileConfigStore) decode(data []byte) (*domain.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed config %s: %w", s.path, err)
	}

	doc := &domain.Document{
		TopLeft:     raw.TopLeft,
		TopRight:    raw.TopRight,
		BottomLeft:  raw.BottomLeft,
		BottomRight: raw.BottomRight,
		Settings:    s.backfillSettings(raw.Settings),
	}
	doc.Normalize()
	return doc, nil
}

// backfillSettings replaces missing or out-of-range values with defaults.
func (s *FileConfigStore) backfillSettings(raw *rawSettings) domain.Settings {
	settings := domain.DefaultSettings()
	if raw == nil {
		s.logDebug("settings missing, using defaults")
		return settings
	}

	if raw.Threshold != nil {
		if t := int(math.Round(*raw.Threshold)); t >= 1 {
			settings.Threshold = t
		} else {
			s.logWarn("invalid threshold, using default", zap.Float64("threshold", *raw.Threshold))
		}
	}
	if raw.Dwell != nil {
		if *raw.Dwell >= 0 {
			settings.Dwell = domain.Seconds(*raw.Dwell)
		} else {
			s.logWarn("negative dwell, using default", zap.Float64("dwell", *raw.Dwell))
		}
	}
	if raw.Cooldown != nil {
		if *raw.Cooldown >= 0 {
			settings.Cooldown = domain.Seconds(*raw.Cooldown)
		} else {
			s.logWarn("negative cooldown, using default", zap.Float64("cooldown", *raw.Cooldown))
		}
	}
	if raw.LaunchAtLogin != nil {
		settings.LaunchAtLogin = *raw.LaunchAtLogin
	}
	return settings
}

// ValidateDocument checks settings and every action, aggregating all problems.
func ValidateDocument(doc *domain.Document) error {
	err := doc.Settings.Validate()
	for _, c := range domain.AllCorners {
		for i, a := range doc.Actions(c) {
			if verr := a.Validate(); verr != nil {
				err = multierr.Append(err, fmt.Errorf("%s[%d]: %w", c, i, verr))
			}
		}
	}
	return err
}

// EncodeDocument renders doc as two-space indented JSON with a trailing newline.
func EncodeDocument(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// atomicWriteFile writes data to a temp file in the same directory and renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

func (s *FileConfigStore) logDebug(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Debug(msg, fields...)
	}
}

func (s *FileConfigStore) logInfo(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func (s *FileConfigStore) logWarn(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}

func (s *FileConfigStore) logError(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Error(msg, fields...)
	}
}

// Ensure FileConfigStore implements domain.ConfigStore.
var _ domain.ConfigStore = (*FileConfigStore)(nil)
