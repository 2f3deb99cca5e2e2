package model

type User struct {
	BaseModel
	Email        string `gorm:"unique;not null;type:citext" json:"email"`
	Name         string `gorm:"type:varchar(100);not null;" json:"name"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
}

func (u User) TableName() string {
	return "users"
}
