package models

import "time"

type UserInfo struct {
	Email string  `json:"email"`
	Phone string  `json:"phone"`
	Fam   string  `json:"fam"`
	Name  string  `json:"name"`
	Otc   *string `json:"otc"`
}

type CoordsInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    int     `json:"height"`
}

type LevelInfo struct {
	Winter string `json:"winter"`
	Summer string `json:"summer"`
	Autumn string `json:"autumn"`
	Spring string `json:"spring"`
}

type ImageInfo struct {
	Title  string `json:"title"`
	ImgURL string `json:"img_url"`
}

type PerevalInfo struct {
	BeautyTitle string `json:"beautyTitle"`
	Title       string `json:"title"`
	OtherTitles string `json:"other_titles"`
	Connect     string `json:"connect"`
}

// Submission is the full input for creating or editing a pass.
// User is ignored on edit.
type Submission struct {
	User       UserInfo
	Coords     CoordsInfo
	Level      LevelInfo
	Pereval    PerevalInfo
	Images     []ImageInfo
	Activities []uint
}

// PerevalView is the reassembled aggregate returned to clients.
type PerevalView struct {
	ID          uint        `json:"id"`
	Status      string      `json:"status"`
	BeautyTitle string      `json:"beautyTitle"`
	Title       string      `json:"title"`
	OtherTitles string      `json:"other_titles"`
	Connect     string      `json:"connect"`
	AddTime     time.Time   `json:"add_time"`
	User        UserInfo    `json:"user"`
	Coords      CoordsInfo  `json:"coords"`
	Level       LevelInfo   `json:"level"`
	Images      []ImageInfo `json:"images"`
	Activities  []uint      `json:"activities"`
}

type PerevalSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	DateAdded time.Time `json:"dateAdded"`
}
