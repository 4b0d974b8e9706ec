package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/vital/internal/adapters/sqlite"
	"github.com/example/vital/internal/ports/secondary"
)

func TestAuthorityRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuthorityRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.AuthorityRecord{
		UID:      "AUTH-001",
		Name:     "Lakshmi R",
		Email:    "pdo@example.org",
		Role:     "pdo",
		District: "Tumakuru",
		Verified: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByUID(ctx, "AUTH-001")
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if got.Email != "pdo@example.org" || got.Role != "pdo" || !got.Verified {
		t.Errorf("unexpected authority: %+v", got)
	}
	if got.PanchayatID != "" || got.Taluk != "" {
		t.Errorf("expected empty jurisdiction fields, got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	_, err = repo.GetByUID(ctx, "AUTH-404")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorityRepository_FindOne(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuthorityRepository(db)
	ctx := context.Background()

	seedAuthority(t, db, "PDO-1", "pdo", "PAN-001", "", "", true)
	seedAuthority(t, db, "PDO-2", "pdo", "PAN-002", "", "", false)
	seedAuthority(t, db, "TDO-1", "tdo", "", "Kunigal", "Tumakuru", true)
	seedAuthority(t, db, "TDO-2", "tdo", "", "Kunigal", "Mandya", true)
	seedAuthority(t, db, "DDO-1", "ddo", "", "", "Tumakuru", true)

	tests := []struct {
		name    string
		query   secondary.AuthorityQuery
		wantUID string
	}{
		{
			name:    "pdo by panchayat",
			query:   secondary.AuthorityQuery{Role: "pdo", PanchayatID: "PAN-001"},
			wantUID: "PDO-1",
		},
		{
			name:  "unverified pdo is never returned",
			query: secondary.AuthorityQuery{Role: "pdo", PanchayatID: "PAN-002"},
		},
		{
			name:    "tdo needs taluk and district",
			query:   secondary.AuthorityQuery{Role: "tdo", Taluk: "Kunigal", District: "Mandya"},
			wantUID: "TDO-2",
		},
		{
			name:  "tdo in other district",
			query: secondary.AuthorityQuery{Role: "tdo", Taluk: "Kunigal", District: "Hassan"},
		},
		{
			name:    "ddo by district",
			query:   secondary.AuthorityQuery{Role: "ddo", District: "Tumakuru"},
			wantUID: "DDO-1",
		},
		{
			name:  "role mismatch",
			query: secondary.AuthorityQuery{Role: "ddo", PanchayatID: "PAN-001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindOne(ctx, tt.query)
			if tt.wantUID == "" {
				if !errors.Is(err, secondary.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindOne failed: %v", err)
			}
			if got.UID != tt.wantUID {
				t.Errorf("expected %s, got %s", tt.wantUID, got.UID)
			}
		})
	}
}

func TestAuthorityRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAuthorityRepository(db)
	ctx := context.Background()

	seedAuthority(t, db, "PDO-1", "pdo", "PAN-001", "", "Tumakuru", true)
	seedAuthority(t, db, "PDO-2", "pdo", "PAN-002", "", "Mandya", false)
	seedAuthority(t, db, "DDO-1", "ddo", "", "", "Tumakuru", true)

	all, err := repo.List(ctx, secondary.AuthorityFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 authorities, got %d", len(all))
	}
	if all[0].Role != "ddo" {
		t.Errorf("expected role ordering, got %s first", all[0].Role)
	}

	verified, _ := repo.List(ctx, secondary.AuthorityFilters{Role: "pdo", VerifiedOnly: true})
	if len(verified) != 1 || verified[0].UID != "PDO-1" {
		t.Errorf("expected only PDO-1, got %v", verified)
	}

	district, _ := repo.List(ctx, secondary.AuthorityFilters{District: "Tumakuru"})
	if len(district) != 2 {
		t.Errorf("expected 2 authorities in Tumakuru, got %d", len(district))
	}
}
