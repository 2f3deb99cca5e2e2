package model

import (
	"time"

	"github.com/SeakMengs/DocSign/pkg/docsign"
)

type Document struct {
	BaseModel
	Name         string                 `gorm:"type:text;not null" json:"name"`
	OriginalName string                 `gorm:"type:text;not null" json:"originalName"`
	FileType     string                 `gorm:"type:text;not null" json:"fileType"`
	FileSize     int64                  `gorm:"type:bigint;not null" json:"fileSize"`
	Status       docsign.DocumentStatus `gorm:"type:text;not null;default:pending;index" json:"status"`
	LastSignedAt *time.Time             `gorm:"type:timestamptz;default:null" json:"lastSignedAt"`

	UserID string `gorm:"type:text;not null;index" json:"userId"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	FileID string `gorm:"type:text;not null" json:"-"`
	File   File   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (d Document) TableName() string {
	return "documents"
}

// ToResponse is the representation sent to clients.
func (d Document) ToResponse() docsign.Document {
	return docsign.Document{
		ID:           d.ID,
		Name:         d.Name,
		OriginalName: d.OriginalName,
		FileType:     d.FileType,
		FileSize:     d.FileSize,
		Status:       d.Status,
		LastSignedAt: d.LastSignedAt,
		UserID:       d.UserID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
