package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/petermazzocco/go-pereval-api/models"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type userRequest struct {
	Email string  `json:"email" validate:"required,email,max=255"`
	Phone string  `json:"phone" validate:"required,max=20"`
	Fam   string  `json:"fam" validate:"required,max=100"`
	Name  string  `json:"name" validate:"required,max=100"`
	Otc   *string `json:"otc" validate:"omitempty,max=100"`
}

// Pointers tell a zero coordinate apart from a missing one.
type coordsRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Height    *int     `json:"height" validate:"required"`
}

type levelRequest struct {
	Winter string `json:"winter" validate:"max=10"`
	Summer string `json:"summer" validate:"max=10"`
	Autumn string `json:"autumn" validate:"max=10"`
	Spring string `json:"spring" validate:"max=10"`
}

type dataRequest struct {
	BeautyTitle string         `json:"beautyTitle" validate:"max=255"`
	Title       string         `json:"title" validate:"required,max=255"`
	OtherTitles string         `json:"other_titles" validate:"max=255"`
	Connect     string         `json:"connect"`
	User        *userRequest   `json:"user" validate:"-"`
	Coords      *coordsRequest `json:"coords" validate:"required"`
	Level       levelRequest   `json:"level"`
}

type imageRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	ImgURL string `json:"img_url" validate:"required"`
}

type submitRequest struct {
	Data       *dataRequest   `json:"data" validate:"required"`
	Images     []imageRequest `json:"images" validate:"dive"`
	Activities []uint         `json:"activities" validate:"dive,gt=0"`
}

// decodeSubmission reads and validates a pass body. The user block is
// validated only when withUser is set; edits ignore it.
func decodeSubmission(r *http.Request, withUser bool) (models.Submission, error) {
	var req submitRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return models.Submission{}, fmt.Errorf("invalid JSON body: %v", err)
	}
	if err := validate.Struct(req); err != nil {
		return models.Submission{}, validationError(err, "")
	}
	if withUser {
		if req.Data.User == nil {
			return models.Submission{}, errors.New("data.user is required")
		}
		if err := validate.Struct(req.Data.User); err != nil {
			return models.Submission{}, validationError(err, "data.user")
		}
	}
	return req.submission(), nil
}

func (req submitRequest) submission() models.Submission {
	d := req.Data
	sub := models.Submission{
		Coords: models.CoordsInfo{
			Latitude:  *d.Coords.Latitude,
			Longitude: *d.Coords.Longitude,
			Height:    *d.Coords.Height,
		},
		Level: models.LevelInfo{
			Winter: d.Level.Winter,
			Summer: d.Level.Summer,
			Autumn: d.Level.Autumn,
			Spring: d.Level.Spring,
		},
		Pereval: models.PerevalInfo{
			BeautyTitle: d.BeautyTitle,
			Title:       d.Title,
			OtherTitles: d.OtherTitles,
			Connect:     d.Connect,
		},
		Images:     make([]models.ImageInfo, 0, len(req.Images)),
		Activities: req.Activities,
	}
	if d.User != nil {
		sub.User = models.UserInfo{
			Email: strings.TrimSpace(d.User.Email),
			Phone: d.User.Phone,
			Fam:   d.User.Fam,
			Name:  d.User.Name,
			Otc:   d.User.Otc,
		}
	}
	for _, img := range req.Images {
		sub.Images = append(sub.Images, models.ImageInfo{Title: img.Title, ImgURL: img.ImgURL})
	}
	return sub
}

// validationError flattens validator output into one readable line,
// using JSON field paths.
func validationError(err error, prefix string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", path, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", path, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
