package models

// MaxRequestPhotos caps the number of attachments per service request
const MaxRequestPhotos = 5

type RequestPhoto struct {
	BaseModel
	RequestID int    `gorm:"index;not null"     json:"requestId"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	FilePath  string `gorm:"type:text;not null" json:"filePath"`
}
