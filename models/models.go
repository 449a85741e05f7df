package models

import (
	"time"
)

const (
	StatusNew      = "new"
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

type User struct {
	ID         uint    `gorm:"primarykey"`
	Email      string  `gorm:"size:255;not null;uniqueIndex"`
	Phone      string  `gorm:"size:20;not null"`
	LastName   string  `gorm:"size:100;not null"`
	FirstName  string  `gorm:"size:100;not null"`
	MiddleName *string `gorm:"size:100"`
}

func (User) TableName() string { return "users" }

type Coords struct {
	ID        uint    `gorm:"primarykey"`
	Latitude  float64 `gorm:"type:decimal(9,6);not null"`
	Longitude float64 `gorm:"type:decimal(9,6);not null"`
	Height    int     `gorm:"not null"`
}

func (Coords) TableName() string { return "coords" }

type Level struct {
	ID     uint   `gorm:"primarykey"`
	Winter string `gorm:"size:10"`
	Summer string `gorm:"size:10"`
	Autumn string `gorm:"size:10"`
	Spring string `gorm:"size:10"`
}

func (Level) TableName() string { return "levels" }

// Pereval is the aggregate root. It owns exactly one Coords and one Level row.
type Pereval struct {
	ID          uint      `gorm:"primarykey"`
	DateAdded   time.Time `gorm:"not null;index"`
	BeautyTitle string    `gorm:"size:255"`
	Title       string    `gorm:"size:255;not null"`
	OtherTitles string    `gorm:"size:255"`
	Connect     string    `gorm:"type:text"`
	UserID      uint      `gorm:"not null;index"`
	User        *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CoordsID    uint      `gorm:"not null"`
	Coords      *Coords   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	LevelID     uint      `gorm:"not null"`
	Level       *Level    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Status      string    `gorm:"size:10;not null;default:new;index;check:chk_pereval_status,status IN ('new','pending','accepted','rejected')"`
}

func (Pereval) TableName() string { return "pereval_added" }

type Image struct {
	ID        uint      `gorm:"primarykey"`
	PerevalID uint      `gorm:"not null;index"`
	Pereval   *Pereval  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	DateAdded time.Time `gorm:"autoCreateTime"`
	Title     string    `gorm:"size:255"`
	ImgURL    string    `gorm:"type:text;not null"`
}

func (Image) TableName() string { return "pereval_images" }

type ActivityType struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Title string `gorm:"type:text;not null" json:"title"`
}

func (ActivityType) TableName() string { return "spr_activities_types" }

type PerevalActivity struct {
	PerevalID  uint          `gorm:"primaryKey;autoIncrement:false"`
	Pereval    *Pereval      `gorm:"constraint:OnDelete:CASCADE;"`
	ActivityID uint          `gorm:"primaryKey;autoIncrement:false"`
	Activity   *ActivityType `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE;"`
}

func (PerevalActivity) TableName() string { return "pereval_activities" }
