package model

import "time"

const (
	UploadStatusActive   = "active"
	UploadStatusReplaced = "replaced"
	UploadStatusDeleted  = "deleted"
)

type Upload struct {
	ID               int64
	UserID           string
	OriginalFilename string
	ObjectKey        string
	URL              string
	Size             int64
	MimeType         string
	Checksum         string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}
