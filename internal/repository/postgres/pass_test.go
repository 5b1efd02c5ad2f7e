package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/repository"
)

func TestBuildListQuery_SearchMatchesCaseInsensitively(t *testing.T) {
	query, args := buildListQuery(repository.PassFilter{Search: "maria"})

	// Every searchable column uses the same case-insensitive match
	assert.Equal(t, 3, strings.Count(query, "ILIKE"))
	assert.NotContains(t, query, " LIKE ")

	assert.Equal(t, []interface{}{"%maria%"}, args)
}

func TestBuildListQuery_NoFilters(t *testing.T) {
	query, args := buildListQuery(repository.PassFilter{})

	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.NotContains(t, query, "ILIKE")
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "OFFSET")
	assert.Empty(t, args)
}

func TestBuildListQuery_StatusUsesEffectiveStatus(t *testing.T) {
	status := domain.StatusExpired
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	query, args := buildListQuery(repository.PassFilter{Status: &status, Now: now})

	assert.Contains(t, query, "CASE WHEN status = 'approved' AND end_time < $1 THEN 'expired' ELSE status END")
	assert.Equal(t, []interface{}{now, string(domain.StatusExpired)}, args)
}

func TestBuildListQuery_AllFiltersNumberPlaceholdersInOrder(t *testing.T) {
	userID := uuid.New()
	status := domain.StatusApproved
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	query, args := buildListQuery(repository.PassFilter{
		UserID: &userID,
		Status: &status,
		Search: "ID-44",
		Now:    now,
		Limit:  20,
		Offset: 40,
	})

	assert.Contains(t, query, "user_id = $1")
	assert.Contains(t, query, "full_name ILIKE $4 OR id_number ILIKE $4 OR id::text ILIKE $4")
	assert.Contains(t, query, "LIMIT $5")
	assert.Contains(t, query, "OFFSET $6")
	assert.Equal(t, []interface{}{userID, now, string(domain.StatusApproved), "%ID-44%", 20, 40}, args)
}
