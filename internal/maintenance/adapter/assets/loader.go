package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	"firestore-utils/internal/maintenance/domain/model"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"go.uber.org/zap"
)

// Loader reads JSON seed assets from the filesystem.
type Loader struct {
	logger logger.Logger
}

// NewLoader creates a Loader
func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{logger: log.WithComponent("asset_loader")}
}

// LoadRecords reads path, which must hold a JSON array. A missing file yields
// no records and a warning. Anything else that prevents reading the array is
// an AssetFormat error naming the file.
func (l *Loader) LoadRecords(path string) ([]model.SeedRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warnf("File not found: %s (skipping)", path)
		return []model.SeedRecord{}, nil
	}
	if err != nil {
		return nil, apperrors.NewAssetFormatError(path).WithCause(err)
	}

	top, err := decode(data)
	if err != nil {
		return nil, apperrors.NewAssetFormatError(path).WithCause(err)
	}

	items, ok := top.([]interface{})
	if !ok {
		return nil, apperrors.NewAssetFormatError(path).WithCause(apperrors.ErrNotArray)
	}

	records := make([]model.SeedRecord, len(items))
	for i, item := range items {
		records[i] = model.NewSeedRecord(i, item)
	}
	l.logger.Debug("Loaded asset", zap.String("path", path), zap.Int("items", len(records)))
	return records, nil
}

// decode parses exactly one JSON value, keeping integers as int64.
func decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top interface{}
	if err := dec.Decode(&top); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return normalize(top), nil
}

// normalize converts json.Number values into int64 when integral, float64
// otherwise, recursively.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}
