package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

const roleManager = "manager"

// MemberRepository answers role questions from the family_members table.
// Member CRUD itself is owned elsewhere; this adapter only reads.
type MemberRepository struct {
	db *sqlx.DB
}

var _ ports.RoleProvider = (*MemberRepository)(nil)

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) IsManager(ctx context.Context, memberID, familyID string) (bool, error) {
	var role string
	err := r.db.GetContext(ctx, &role,
		"SELECT role FROM family_members WHERE member_id = ? AND family_id = ?",
		memberID, familyID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == roleManager, nil
}

// Manager returns the family's escalation target. Families with several
// managers get the longest-standing one.
func (r *MemberRepository) Manager(ctx context.Context, familyID string) (string, error) {
	var memberID string
	err := r.db.GetContext(ctx, &memberID,
		"SELECT member_id FROM family_members WHERE family_id = ? AND role = ? ORDER BY joined_at, member_id LIMIT 1",
		familyID, roleManager)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotAuthorized
	}
	if err != nil {
		return "", err
	}
	return memberID, nil
}
