package handler

import (
	"time"

	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	habits   *service.HabitService
	actions  *service.ActionService
	insights *service.InsightService
	loc      *time.Location
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, loc *time.Location) *API {
	if loc == nil {
		loc = time.Local
	}

	store := service.NewGormEventStore(db)

	return &API{
		habits:   service.NewHabitService(db),
		actions:  service.NewActionService(db, loc),
		insights: service.NewInsightService(store, loc),
		loc:      loc,
	}
}
