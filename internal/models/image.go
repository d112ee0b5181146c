package models

import "time"

const (
	// DefaultName is used when an upload carries no display name.
	DefaultName = "Untitled"
	// UnknownDate marks an absent capture or upload time.
	UnknownDate = "Unknown"
	// DateLayout is the on-disk format for every timestamp in a record.
	DateLayout = "2006-01-02 15:04:05"
)

// ImageRecord is the persisted metadata for one uploaded image.
// ID is the storage identifier and is the key of the record, not part of it.
type ImageRecord struct {
	ID           string `json:"-" firestore:"fileName"`
	Name         string `json:"name" firestore:"name"`
	Description  string `json:"description" firestore:"description"`
	OriginalDate string `json:"original_date" firestore:"originalDate"` // Format: "2006-01-02 15:04:05" or "Unknown"
	UploadDate   string `json:"upload_date" firestore:"uploadDate"`     // Format: "2006-01-02 15:04:05"
}

// ImageView is the listing projection of a record with defaults applied.
type ImageView struct {
	Filename     string `json:"filename"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	OriginalDate string `json:"original_date"`
	UploadDate   string `json:"upload_date"`
}

// UploadRequest carries one image and the user-supplied fields.
type UploadRequest struct {
	FileName    string
	ContentType string
	Name        string
	Description string
	Data        []byte
	// CaptureTime, in DateLayout, is used when Data carries no capture date.
	CaptureTime string
}

type CacheEntry struct {
	Data        []byte
	ContentType string
	FileName    string
	Expires     time.Time
}

// View builds the listing projection, filling in the display defaults
// for any field the stored record left empty.
func (r *ImageRecord) View() ImageView {
	v := ImageView{
		Filename:     r.ID,
		Name:         r.Name,
		Description:  r.Description,
		OriginalDate: r.OriginalDate,
		UploadDate:   r.UploadDate,
	}
	if v.Name == "" {
		v.Name = DefaultName
	}
	if v.OriginalDate == "" {
		v.OriginalDate = UnknownDate
	}
	if v.UploadDate == "" {
		v.UploadDate = UnknownDate
	}
	return v
}
