package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists pereval aggregates. Every method runs in its own
// transaction on the pooled handle it was built with.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: baseLog.With("component", "PerevalStore"),
		now: time.Now,
	}
}

// WithClock replaces the creation-time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create writes user, coords, level, pass, images and activity links in
// one transaction and returns the new pass id. The user row is looked up
// by email and only inserted when missing; an existing user is never changed.
func (s *Store) Create(ctx context.Context, in models.Submission) (uint, error) {
	var perevalID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("email = ?", in.User.Email).
			Attrs(models.User{
				Email:      in.User.Email,
				Phone:      in.User.Phone,
				LastName:   in.User.Fam,
				FirstName:  in.User.Name,
				MiddleName: in.User.Otc,
			}).
			FirstOrCreate(&user).Error; err != nil {
			return err
		}

		coords := coordsRow(in.Coords)
		if err := tx.Create(&coords).Error; err != nil {
			return err
		}

		level := levelRow(in.Level)
		if err := tx.Create(&level).Error; err != nil {
			return err
		}

		pereval := models.Pereval{
			DateAdded:   s.now().UTC(),
			BeautyTitle: in.Pereval.BeautyTitle,
			Title:       in.Pereval.Title,
			OtherTitles: in.Pereval.OtherTitles,
			Connect:     in.Pereval.Connect,
			UserID:      user.ID,
			CoordsID:    coords.ID,
			LevelID:     level.ID,
			Status:      models.StatusNew,
		}
		if err := tx.Omit(clause.Associations).Create(&pereval).Error; err != nil {
			return err
		}

		if err := insertImages(tx, pereval.ID, in.Images); err != nil {
			return err
		}
		if err := insertActivities(tx, pereval.ID, in.Activities); err != nil {
			return err
		}
		perevalID = pereval.ID
		return nil
	})
	if err != nil {
		s.log.Error("Failed to add pereval", "user_email", in.User.Email, "error", err)
		return 0, classify("create pereval", err)
	}
	s.log.Info("Added pereval", "pereval_id", perevalID)
	return perevalID, nil
}

type aggregateRow struct {
	ID          uint
	Status      string
	BeautyTitle string
	Title       string
	OtherTitles string
	Connect     string
	DateAdded   time.Time
	Email       string
	Phone       string
	LastName    string
	FirstName   string
	MiddleName  *string
	Latitude    float64
	Longitude   float64
	Height      int
	Winter      string
	Summer      string
	Autumn      string
	Spring      string
}

const aggregateColumns = `pa.id AS id, pa.status AS status,
	COALESCE(pa.beauty_title, '') AS beauty_title, pa.title AS title,
	COALESCE(pa.other_titles, '') AS other_titles, COALESCE(pa.connect, '') AS connect,
	pa.date_added AS date_added,
	u.email AS email, u.phone AS phone, u.last_name AS last_name, u.first_name AS first_name,
	u.middle_name AS middle_name,
	c.latitude AS latitude, c.longitude AS longitude, c.height AS height,
	COALESCE(l.winter, '') AS winter, COALESCE(l.summer, '') AS summer,
	COALESCE(l.autumn, '') AS autumn, COALESCE(l.spring, '') AS spring`

// GetByID reassembles the aggregate for one pass. A missing id yields ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uint) (*models.PerevalView, error) {
	var view *models.PerevalView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row aggregateRow
		if err := tx.Table("pereval_added AS pa").
			Select(aggregateColumns).
			Joins("JOIN users u ON pa.user_id = u.id").
			Joins("JOIN coords c ON pa.coords_id = c.id").
			Joins("JOIN levels l ON pa.level_id = l.id").
			Where("pa.id = ?", id).
			Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		images := []models.ImageInfo{}
		if err := tx.Model(&models.Image{}).
			Select("COALESCE(title, '') AS title, img_url").
			Where("pereval_id = ?", id).
			Order("id").
			Scan(&images).Error; err != nil {
			return err
		}

		activities := []uint{}
		if err := tx.Model(&models.PerevalActivity{}).
			Where("pereval_id = ?", id).
			Order("activity_id").
			Pluck("activity_id", &activities).Error; err != nil {
			return err
		}

		view = row.view(images, activities)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("Failed to get pereval", "pereval_id", id, "error", err)
		}
		return nil, classify("get pereval", err)
	}
	return view, nil
}

func (r aggregateRow) view(images []models.ImageInfo, activities []uint) *models.PerevalView {
	if images == nil {
		images = []models.ImageInfo{}
	}
	if activities == nil {
		activities = []uint{}
	}
	return &models.PerevalView{
		ID:          r.ID,
		Status:      r.Status,
		BeautyTitle: r.BeautyTitle,
		Title:       r.Title,
		OtherTitles: r.OtherTitles,
		Connect:     r.Connect,
		AddTime:     r.DateAdded,
		User: models.UserInfo{
			Email: r.Email,
			Phone: r.Phone,
			Fam:   r.LastName,
			Name:  r.FirstName,
			Otc:   r.MiddleName,
		},
		Coords: models.CoordsInfo{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Height:    r.Height,
		},
		Level: models.LevelInfo{
			Winter: r.Winter,
			Summer: r.Summer,
			Autumn: r.Autumn,
			Spring: r.Spring,
		},
		Images:     images,
		Activities: activities,
	}
}

// Update edits coords, level, titles, images and activities of a pass
// whose status is still "new". The status row is locked and checked in
// the same transaction as the writes; a rejected guard writes nothing.
// The user is never touched.
func (s *Store) Update(ctx context.Context, id uint, in models.Submission) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Pereval
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status", "coords_id", "level_id").
			Where("id = ?", id).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if current.Status != models.StatusNew {
			return ErrGuardRejected
		}

		if err := tx.Model(&models.Coords{}).
			Where("id = ?", current.CoordsID).
			Updates(map[string]any{
				"latitude":  in.Coords.Latitude,
				"longitude": in.Coords.Longitude,
				"height":    in.Coords.Height,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Level{}).
			Where("id = ?", current.LevelID).
			Updates(map[string]any{
				"winter": in.Level.Winter,
				"summer": in.Level.Summer,
				"autumn": in.Level.Autumn,
				"spring": in.Level.Spring,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Pereval{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"beauty_title": in.Pereval.BeautyTitle,
				"title":        in.Pereval.Title,
				"other_titles": in.Pereval.OtherTitles,
				"connect":      in.Pereval.Connect,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("pereval_id = ?", id).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		if err := insertImages(tx, id, in.Images); err != nil {
			return err
		}

		if err := tx.Where("pereval_id = ?", id).Delete(&models.PerevalActivity{}).Error; err != nil {
			return err
		}
		return insertActivities(tx, id, in.Activities)
	})
	switch {
	case err == nil:
		s.log.Info("Updated pereval", "pereval_id", id)
		return nil
	case errors.Is(err, ErrGuardRejected):
		s.log.Warn("Rejected pereval edit", "pereval_id", id)
	case errors.Is(err, ErrNotFound):
	default:
		s.log.Error("Failed to update pereval", "pereval_id", id, "error", err)
	}
	return classify("update pereval", err)
}

// ListByEmail returns summaries of every pass submitted under email,
// newest first. An empty email matches nothing.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]models.PerevalSummary, error) {
	summaries := []models.PerevalSummary{}
	if strings.TrimSpace(email) == "" {
		return summaries, nil
	}
	if err := s.db.WithContext(ctx).
		Table("pereval_added AS pa").
		Select("pa.id AS id, pa.title AS title, pa.status AS status, pa.date_added AS date_added").
		Joins("JOIN users u ON pa.user_id = u.id").
		Where("u.email = ?", email).
		Order("pa.date_added DESC, pa.id DESC").
		Scan(&summaries).Error; err != nil {
		s.log.Error("Failed to list perevals", "user_email", email, "error", err)
		return nil, classify("list perevals", err)
	}
	if summaries == nil {
		summaries = []models.PerevalSummary{}
	}
	return summaries, nil
}

func coordsRow(in models.CoordsInfo) models.Coords {
	return models.Coords{Latitude: in.Latitude, Longitude: in.Longitude, Height: in.Height}
}

func levelRow(in models.LevelInfo) models.Level {
	return models.Level{Winter: in.Winter, Summer: in.Summer, Autumn: in.Autumn, Spring: in.Spring}
}

func insertImages(tx *gorm.DB, perevalID uint, images []models.ImageInfo) error {
	if len(images) == 0 {
		return nil
	}
	rows := make([]models.Image, 0, len(images))
	for _, img := range images {
		rows = append(rows, models.Image{PerevalID: perevalID, Title: img.Title, ImgURL: img.ImgURL})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

// insertActivities writes all links in one multi-row insert. Repeated ids
// collapse to one link.
func insertActivities(tx *gorm.DB, perevalID uint, activityIDs []uint) error {
	if len(activityIDs) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(activityIDs))
	rows := make([]models.PerevalActivity, 0, len(activityIDs))
	for _, activityID := range activityIDs {
		if _, ok := seen[activityID]; ok {
			continue
		}
		seen[activityID] = struct{}{}
		rows = append(rows, models.PerevalActivity{PerevalID: perevalID, ActivityID: activityID})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
