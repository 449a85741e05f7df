package database_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/petermazzocco/go-pereval-api/internal/database"
	"github.com/petermazzocco/go-pereval-api/internal/database/dbtest"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/models"
	"gorm.io/gorm"
)

func newStore(t *testing.T) (*database.Store, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return database.NewStore(db, logger.Nop()), db
}

func strPtr(s string) *string { return &s }

func sampleSubmission(email string) models.Submission {
	return models.Submission{
		User: models.UserInfo{
			Email: email,
			Phone: "+79001234567",
			Fam:   "Ivanov",
			Name:  "Ivan",
			Otc:   strPtr("Ivanovich"),
		},
		Coords: models.CoordsInfo{Latitude: 45.3842, Longitude: 7.1525, Height: 1200},
		Level:  models.LevelInfo{Winter: "", Summer: "1A", Autumn: "1A", Spring: ""},
		Pereval: models.PerevalInfo{
			BeautyTitle: "pass",
			Title:       "Pkhiya",
			OtherTitles: "Triev",
			Connect:     "",
		},
		Images: []models.ImageInfo{
			{Title: "Saddle", ImgURL: "https://example.com/saddle.jpg"},
			{Title: "Ascent", ImgURL: "https://example.com/ascent.jpg"},
		},
		Activities: []uint{1, 2},
	}
}

// sameView compares two views, treating timestamps as equal instants.
func sameView(t *testing.T, want, got *models.PerevalView) {
	t.Helper()
	if !want.AddTime.Equal(got.AddTime) {
		t.Fatalf("add_time changed: %v -> %v", want.AddTime, got.AddTime)
	}
	a, b := *want, *got
	a.AddTime, b.AddTime = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("views differ:\nwant %+v\ngot  %+v", a, b)
	}
}

func TestCreateThenGetByID(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := sampleSubmission("climber@example.com")

	id, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatalf("Create: expected non-zero id")
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != id || got.Status != models.StatusNew {
		t.Fatalf("unexpected id/status: %d %q", got.ID, got.Status)
	}
	if got.Title != in.Pereval.Title || got.BeautyTitle != in.Pereval.BeautyTitle ||
		got.OtherTitles != in.Pereval.OtherTitles || got.Connect != in.Pereval.Connect {
		t.Fatalf("title fields mismatch: %+v", got)
	}
	if !reflect.DeepEqual(got.User, in.User) {
		t.Fatalf("user mismatch: %+v", got.User)
	}
	if got.Coords != in.Coords {
		t.Fatalf("coords mismatch: %+v", got.Coords)
	}
	if got.Level != in.Level {
		t.Fatalf("level mismatch: %+v", got.Level)
	}
	if !reflect.DeepEqual(got.Images, in.Images) {
		t.Fatalf("images mismatch: %+v", got.Images)
	}
	if !reflect.DeepEqual(got.Activities, []uint{1, 2}) {
		t.Fatalf("activities mismatch: %+v", got.Activities)
	}
	if got.AddTime.IsZero() {
		t.Fatalf("expected add_time to be set")
	}
}

func TestCreateForcesStatusNewWithoutImages(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := sampleSubmission("bare@example.com")
	in.Images = nil
	in.Activities = nil
	in.User.Otc = nil

	id, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusNew {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Images == nil || len(got.Images) != 0 {
		t.Fatalf("expected empty non-nil images, got %#v", got.Images)
	}
	if got.Activities == nil || len(got.Activities) != 0 {
		t.Fatalf("expected empty non-nil activities, got %#v", got.Activities)
	}
	if got.User.Otc != nil {
		t.Fatalf("expected nil middle name, got %q", *got.User.Otc)
	}
}

func TestCreateReusesUserByEmail(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	first := sampleSubmission("repeat@example.com")
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second := sampleSubmission("repeat@example.com")
	second.User.Phone = "+70000000000"
	second.User.Fam = "Petrov"
	id, err := store.Create(ctx, second)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("expected one user row, got %d", users)
	}
	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.User.Phone != first.User.Phone || got.User.Fam != first.User.Fam {
		t.Fatalf("existing user must not change: %+v", got.User)
	}
}

func TestCreateRollsBackOnUnknownActivity(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	in := sampleSubmission("rollback@example.com")
	in.Activities = []uint{1, 999}

	_, err := store.Create(ctx, in)
	if err == nil {
		t.Fatalf("expected error for unknown activity")
	}
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrGuardRejected) {
		t.Fatalf("unexpected sentinel: %v", err)
	}

	for _, model := range []any{&models.User{}, &models.Coords{}, &models.Level{}, &models.Pereval{}, &models.Image{}} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", model, err)
		}
		if n != 0 {
			t.Fatalf("partial aggregate left behind in %T: %d rows", model, n)
		}
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.GetByID(context.Background(), 424242)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil view, got %+v", got)
	}
}

func TestUpdateNewPass(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := sampleSubmission("editor@example.com")

	id, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	edit := models.Submission{
		User:   models.UserInfo{Email: "someone-else@example.com", Phone: "0", Fam: "X", Name: "Y"},
		Coords: models.CoordsInfo{Latitude: -12.5, Longitude: 170.25, Height: 3400},
		Level:  models.LevelInfo{Winter: "2B", Summer: "1B", Autumn: "2A", Spring: "3A"},
		Pereval: models.PerevalInfo{
			BeautyTitle: "peak",
			Title:       "Renamed",
			OtherTitles: "Alt",
			Connect:     "links two valleys",
		},
		Images:     []models.ImageInfo{{Title: "New view", ImgURL: "https://example.com/new.jpg"}},
		Activities: []uint{4, 2},
	}
	if err := store.Update(ctx, id, edit); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Coords != edit.Coords {
		t.Fatalf("coords not updated: %+v", got.Coords)
	}
	if got.Level != edit.Level {
		t.Fatalf("level not updated: %+v", got.Level)
	}
	if got.Title != "Renamed" || got.BeautyTitle != "peak" || got.OtherTitles != "Alt" || got.Connect != "links two valleys" {
		t.Fatalf("titles not updated: %+v", got)
	}
	if !reflect.DeepEqual(got.Images, edit.Images) {
		t.Fatalf("images not replaced: %+v", got.Images)
	}
	if !reflect.DeepEqual(got.Activities, []uint{2, 4}) {
		t.Fatalf("activities not replaced: %+v", got.Activities)
	}
	if !reflect.DeepEqual(got.User, in.User) {
		t.Fatalf("user must never change on edit: %+v", got.User)
	}
	if got.Status != models.StatusNew {
		t.Fatalf("status changed: %q", got.Status)
	}
}

func TestUpdateClearsImagesAndReplacesActivities(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := sampleSubmission("replace@example.com")

	id, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	edit := in
	edit.Images = []models.ImageInfo{}
	edit.Activities = []uint{3}
	if err := store.Update(ctx, id, edit); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Images) != 0 {
		t.Fatalf("expected no images, got %+v", got.Images)
	}
	if !reflect.DeepEqual(got.Activities, []uint{3}) {
		t.Fatalf("expected activities [3], got %+v", got.Activities)
	}
}

func TestUpdateGuardRejectsNonNewStatus(t *testing.T) {
	for _, status := range []string{models.StatusPending, models.StatusAccepted, models.StatusRejected} {
		t.Run(status, func(t *testing.T) {
			store, db := newStore(t)
			ctx := context.Background()

			id, err := store.Create(ctx, sampleSubmission("guard@example.com"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			dbtest.SetStatus(t, db, id, status)

			before, err := store.GetByID(ctx, id)
			if err != nil {
				t.Fatalf("GetByID before: %v", err)
			}

			edit := sampleSubmission("guard@example.com")
			edit.Pereval.Title = "Should not stick"
			edit.Coords.Height = 9999
			edit.Images = nil
			edit.Activities = []uint{5}

			err = store.Update(ctx, id, edit)
			if !errors.Is(err, database.ErrGuardRejected) {
				t.Fatalf("expected ErrGuardRejected, got %v", err)
			}

			after, err := store.GetByID(ctx, id)
			if err != nil {
				t.Fatalf("GetByID after: %v", err)
			}
			sameView(t, before, after)
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	err := store.Update(ctx, 777, sampleSubmission("ghost@example.com"))
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var images, links int64
	db.Model(&models.Image{}).Count(&images)
	db.Model(&models.PerevalActivity{}).Count(&links)
	if images != 0 || links != 0 {
		t.Fatalf("not-found update wrote rows: images=%d links=%d", images, links)
	}
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sampleSubmission("atomic@example.com"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	edit := sampleSubmission("atomic@example.com")
	edit.Coords.Height = 5000
	edit.Images = nil
	edit.Activities = []uint{999}
	err = store.Update(ctx, id, edit)
	if err == nil {
		t.Fatalf("expected error for unknown activity")
	}
	if errors.Is(err, database.ErrGuardRejected) || errors.Is(err, database.ErrNotFound) {
		t.Fatalf("unexpected sentinel: %v", err)
	}

	after, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	sameView(t, before, after)
}

func TestListByEmail(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	})

	var ids []uint
	for _, title := range []string{"First", "Second", "Third"} {
		in := sampleSubmission("lister@example.com")
		in.Pereval.Title = title
		id, err := store.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
		ids = append(ids, id)
	}
	if _, err := store.Create(ctx, sampleSubmission("other@example.com")); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	got, err := store.ListByEmail(ctx, "lister@example.com")
	if err != nil {
		t.Fatalf("ListByEmail: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(got))
	}
	wantOrder := []uint{ids[2], ids[1], ids[0]}
	for i, s := range got {
		if s.ID != wantOrder[i] {
			t.Fatalf("position %d: got id %d, want %d", i, s.ID, wantOrder[i])
		}
		if s.Status != models.StatusNew {
			t.Fatalf("unexpected status %q", s.Status)
		}
		if i > 0 && !got[i-1].DateAdded.After(s.DateAdded) {
			t.Fatalf("not strictly newest first: %v then %v", got[i-1].DateAdded, s.DateAdded)
		}
	}
	if got[0].Title != "Third" {
		t.Fatalf("newest title = %q", got[0].Title)
	}
}

func TestListByEmailEmpty(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, email := range []string{"nobody@example.com", ""} {
		got, err := store.ListByEmail(ctx, email)
		if err != nil {
			t.Fatalf("ListByEmail(%q): %v", email, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("ListByEmail(%q): expected empty non-nil slice, got %#v", email, got)
		}
	}
}

func TestActivityTypesSeeded(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	types, err := store.ActivityTypes(ctx)
	if err != nil {
		t.Fatalf("ActivityTypes: %v", err)
	}
	if len(types) != len(database.DefaultActivities) {
		t.Fatalf("expected %d activity types, got %d", len(database.DefaultActivities), len(types))
	}
	for i, at := range types {
		if at.ID != uint(i+1) || at.Title != database.DefaultActivities[i] {
			t.Fatalf("unexpected activity type at %d: %+v", i, at)
		}
	}
}

func TestPing(t *testing.T) {
	store, _ := newStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
