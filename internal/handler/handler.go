// Package handler provides the JSON API handlers for accounts,
// applications, intake scheduling, site content, and the admin console.
package handler

import (
	"database/sql"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/geoip"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

// SessionKeyUserID is the session key for the authenticated account ID.
const SessionKeyUserID = middleware.SessionKeyUserID

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db              *sql.DB
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	accounts        *service.AccountService
	applications    *service.ApplicationService
	intake          *service.IntakeService
	content         *service.ContentService
	events          *service.EventService
	loginProtection *middleware.LoginProtection
	geo             *geoip.Lookup
	startTime       time.Time
}

// Deps bundles the services a Handler needs.
type Deps struct {
	DB              *sql.DB
	SessionManager  *scs.SessionManager
	Accounts        *service.AccountService
	Applications    *service.ApplicationService
	Intake          *service.IntakeService
	Content         *service.ContentService
	Events          *service.EventService
	LoginProtection *middleware.LoginProtection
	Geo             *geoip.Lookup
}

// New creates a Handler. LoginProtection and Geo may be nil.
func New(d Deps) *Handler {
	return &Handler{
		db:              d.DB,
		queries:         store.New(d.DB),
		sessionManager:  d.SessionManager,
		accounts:        d.Accounts,
		applications:    d.Applications,
		intake:          d.Intake,
		content:         d.Content,
		events:          d.Events,
		loginProtection: d.LoginProtection,
		geo:             d.Geo,
		startTime:       time.Now(),
	}
}
