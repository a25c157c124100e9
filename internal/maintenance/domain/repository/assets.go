package repository

import "firestore-utils/internal/maintenance/domain/model"

// AssetSource reads seed records from a static asset file. A missing file
// yields no records and no error; an unusable file is an error.
type AssetSource interface {
	LoadRecords(path string) ([]model.SeedRecord, error)
}
