package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-backend/internal/database"
	"portfolio-backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(t.TempDir() + "/store.db")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestLogs_InsertListNewestFirstAndPaginate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := "user-1"
	errMsg := "Too many requests"

	for i := 0; i < 5; i++ {
		e := &models.InteractionLogEntry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Route:     "/api/chat",
			Prompt:    "prompt",
			Status:    models.LogStatusSuccess,
		}
		if i == 4 {
			e.UserID = &user
			e.Status = models.LogStatusRateLimit
			e.Error = &errMsg
		}
		if err := s.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	entries, total, err := s.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("expected page of 2, got %d", len(entries))
	}
	newest := entries[0]
	if newest.Status != models.LogStatusRateLimit {
		t.Fatalf("expected newest entry first, got status %q", newest.Status)
	}
	if newest.UserID == nil || *newest.UserID != user {
		t.Fatalf("expected user id round trip, got %v", newest.UserID)
	}
	if newest.Error == nil || *newest.Error != errMsg {
		t.Fatalf("expected error round trip, got %v", newest.Error)
	}
	if entries[1].UserID != nil {
		t.Fatalf("expected anonymous entry to have nil user id")
	}

	last, _, err := s.List(ctx, 2, 4)
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(last) != 1 || !last[0].Timestamp.Equal(base) {
		t.Fatalf("expected oldest entry on last page, got %+v", last)
	}
}

func TestLogs_DeleteAllIsBulkAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Insert(ctx, &models.InteractionLogEntry{Timestamp: time.Now(), Route: "/api/chat", Status: models.LogStatusSuccess})
	}

	n, err := s.DeleteAll(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 rows deleted, got %d (%v)", n, err)
	}
	n, err = s.DeleteAll(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected second clear to delete nothing, got %d (%v)", n, err)
	}
}

func TestFlags_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, models.FlagShowProjectSlider); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing flag, got %v", err)
	}

	desc := "Project carousel in chat"
	if err := s.Create(ctx, &models.FeatureFlag{Key: models.FlagShowProjectSlider, Description: &desc}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetValue(ctx, models.FlagShowProjectSlider, true); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue(ctx, models.FlagShowAboutMeButton, true); err != nil {
		t.Fatalf("SetValue upsert: %v", err)
	}

	f, err := s.Get(ctx, models.FlagShowProjectSlider)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !f.Value || f.Description == nil || *f.Description != desc {
		t.Fatalf("unexpected flag: %+v", f)
	}

	if err := s.SetDescription(ctx, models.FlagShowProjectSlider, nil); err != nil {
		t.Fatalf("SetDescription clear: %v", err)
	}
	if f, _ := s.Get(ctx, models.FlagShowProjectSlider); f.Description != nil {
		t.Fatalf("description not cleared: %v", *f.Description)
	}

	x := "x"
	if err := s.SetDescription(ctx, models.FlagShowDockNavigation, &x); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound describing missing flag, got %v", err)
	}

	flags, err := s.ListFlags(ctx)
	if err != nil {
		t.Fatalf("ListFlags: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(flags))
	}

	if err := s.Delete(ctx, models.FlagShowProjectSlider); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, models.FlagShowProjectSlider); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected flag to be gone, got %v", err)
	}
}
