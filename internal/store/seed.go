package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/auth"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
)

// Fallback owner credentials, used when the environment does not
// override them. The owner account is re-created on every startup if
// it has gone missing, so the site can never lock itself out.
const (
	DefaultOwnerEmail    = "owner@dismine.com"
	DefaultOwnerPassword = "dismine2025"
)

const seedMarkerKey = "demo_seeded"

// EnsureOwner guarantees exactly one usable owner account. An account
// already holding the owner role satisfies that regardless of its
// email (the owner may change their own address); the configured email
// is only consulted when no owner exists, to repair a drifted row or
// create the account fresh.
func (q *Queries) EnsureOwner(ctx context.Context, email, password string) error {
	owners, err := q.CountUsersByRole(ctx, model.RoleOwner)
	if err != nil {
		return fmt.Errorf("count owner accounts: %w", err)
	}
	if owners > 0 {
		return nil
	}

	u, err := q.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash owner password: %w", err)
		}
		now := time.Now().UTC()
		_, err = q.CreateUser(ctx, CreateUserParams{
			Email:        sql.NullString{String: email, Valid: true},
			PasswordHash: sql.NullString{String: hash, Valid: true},
			DisplayName:  "Owner",
			Handle:       "owner",
			AuthMethod:   model.AuthMethodEmail,
			Role:         model.RoleOwner,
			Status:       model.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("create owner account: %w", err)
		}
		slog.Info("owner account created", "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up owner account: %w", err)
	}
	// No account holds owner, but the bootstrap email exists: its role
	// has drifted, so restore it rather than create a duplicate.
	err = q.UpdateUserRole(ctx, UpdateUserRoleParams{
		Role:      model.RoleOwner,
		UpdatedAt: time.Now().UTC(),
		ID:        u.ID,
	})
	if err != nil {
		return fmt.Errorf("restore owner role: %w", err)
	}
	slog.Warn("owner role restored", "email", email, "previous_role", u.Role)
	return nil
}

type demoApplicant struct {
	displayName string
	handle      string
	email       string
	answers     map[string]string
	status      model.ApplicationStatus
	reviewed    bool
	message     string
}

// SeedDemoData populates a handful of demo accounts and applications so
// the review screens are not empty on a fresh install. It runs once;
// a config marker prevents re-seeding.
func (q *Queries) SeedDemoData(ctx context.Context) error {
	if _, err := q.GetConfig(ctx, seedMarkerKey); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check seed marker: %w", err)
	}

	applicants := []demoApplicant{
		{
			displayName: "CraftySteve", handle: "craftysteve", email: "steve@example.com",
			answers: map[string]string{
				"username": "CraftySteve", "discord": "craftysteve", "age": "19",
				"timezone": "EST", "why": "Looking for a mature long-term SMP.",
				"experience": "Played since beta, ran a shop district on my last server.",
			},
			status: model.ApplicationPending,
		},
		{
			displayName: "RedstoneRita", handle: "redstonerita", email: "rita@example.com",
			answers: map[string]string{
				"username": "RedstoneRita", "discord": "rita#0001", "age": "24",
				"timezone": "CET", "why": "Want to build farms with a community.",
				"experience": "Technical player, mostly redstone and iron farms.",
			},
			status: model.ApplicationPending,
		},
		{
			displayName: "BuilderBen", handle: "builderben", email: "ben@example.com",
			answers: map[string]string{
				"username": "BuilderBen", "discord": "builderben", "age": "21",
				"timezone": "PST", "why": "Heard great things about the builds here.",
				"experience": "Medieval and fantasy builds, some WorldEdit.",
			},
			status: model.ApplicationApproved, reviewed: true,
			message: "Welcome aboard! Check Discord for the server address.",
		},
		{
			displayName: "ExplorerEmma", handle: "exploreremma", email: "emma@example.com",
			answers: map[string]string{
				"username": "ExplorerEmma", "discord": "emma_e", "age": "17",
				"timezone": "GMT", "why": "Love mapping out new worlds.",
				"experience": "Casual player, two years on a friends-only realm.",
			},
			status: model.ApplicationUnderReview, reviewed: true,
		},
		{
			displayName: "GrieferGreg", handle: "griefergreg", email: "greg@example.com",
			answers: map[string]string{
				"username": "GrieferGreg", "discord": "greg123", "age": "15",
				"timezone": "EST", "why": "idk looks fun",
				"experience": "banned from a few servers but im different now",
			},
			status: model.ApplicationRejected, reviewed: true,
			message: "We don't feel this is the right fit at the moment.",
		},
	}

	now := time.Now().UTC()
	for i, a := range applicants {
		hash, err := auth.HashPassword("demo-password")
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		created := now.Add(-time.Duration(len(applicants)-i) * 24 * time.Hour)
		u, err := q.CreateUser(ctx, CreateUserParams{
			Email:        sql.NullString{String: a.email, Valid: true},
			PasswordHash: sql.NullString{String: hash, Valid: true},
			DisplayName:  a.displayName,
			Handle:       a.handle,
			AuthMethod:   model.AuthMethodEmail,
			Role:         model.RoleUser,
			Status:       model.StatusActive,
			CreatedAt:    created,
			UpdatedAt:    created,
		})
		if err != nil {
			return fmt.Errorf("create demo user %s: %w", a.handle, err)
		}

		answers, err := json.Marshal(a.answers)
		if err != nil {
			return fmt.Errorf("encode demo answers: %w", err)
		}
		app, err := q.CreateApplication(ctx, CreateApplicationParams{
			ID:          uuid.NewString(),
			UserID:      u.ID,
			Answers:     string(answers),
			Status:      model.ApplicationPending,
			SubmittedAt: created.Add(time.Hour),
		})
		if err != nil {
			return fmt.Errorf("create demo application for %s: %w", a.handle, err)
		}

		if a.status != model.ApplicationPending {
			reviewedAt := sql.NullTime{}
			if a.reviewed {
				reviewedAt = sql.NullTime{Time: created.Add(2 * time.Hour), Valid: true}
			}
			err := q.UpdateApplicationStatus(ctx, UpdateApplicationStatusParams{
				Status:     a.status,
				ReviewedAt: reviewedAt,
				ID:         app.ID,
			})
			if err != nil {
				return fmt.Errorf("set demo application status: %w", err)
			}
		}
		if a.message != "" {
			err := q.UpdateApplicationAdminMessage(ctx, UpdateApplicationAdminMessageParams{
				AdminMessage: a.message,
				ID:           app.ID,
			})
			if err != nil {
				return fmt.Errorf("set demo admin message: %w", err)
			}
		}
	}

	err := q.SetConfig(ctx, SetConfigParams{
		Key:       seedMarkerKey,
		Value:     "true",
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("write seed marker: %w", err)
	}
	slog.Info("demo data seeded", "applications", len(applicants))
	return nil
}
