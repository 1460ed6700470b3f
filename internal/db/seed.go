package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"unihr/internal/auth"
	"unihr/internal/domain/directory"
	"unihr/internal/platform/config"
)

// Seed creates the initial admin account and, when enabled, a small demo
// organization. All inserts are idempotent so the seed can run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := seedAdmin(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	if cfg.SeedDemoOrg {
		if err := seedDemoOrg(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = pool.Exec(ctx,
		"INSERT INTO users (email, password_hash, account_role, active) VALUES ($1, $2, $3, true)",
		email, hash, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	slog.Info("seeded admin account", "email", email)
	return nil
}

// seedDemoOrg builds one faculty with an academic and an administrative
// department, a small position ladder and linked demo accounts. Password for
// every demo account is "changeme".
func seedDemoOrg(ctx context.Context, pool *pgxpool.Pool) error {
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM faculties WHERE code = 'ENG')").Scan(&exists); err != nil {
		return fmt.Errorf("check demo org: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var facultyID string
	if err := tx.QueryRow(ctx,
		"INSERT INTO faculties (name, code) VALUES ('Faculty of Engineering', 'ENG') RETURNING id",
	).Scan(&facultyID); err != nil {
		return fmt.Errorf("insert faculty: %w", err)
	}

	var csDeptID, adminDeptID string
	if err := tx.QueryRow(ctx,
		"INSERT INTO departments (faculty_id, name, type) VALUES ($1, 'Computer Science', $2) RETURNING id",
		facultyID, directory.DepartmentAcademic,
	).Scan(&csDeptID); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	if err := tx.QueryRow(ctx,
		"INSERT INTO departments (name, type) VALUES ('Central Administration', $1) RETURNING id",
		directory.DepartmentAdministrative,
	).Scan(&adminDeptID); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}

	position := func(name string, level int, deptID, facID string) (string, error) {
		var id string
		err := tx.QueryRow(ctx,
			"INSERT INTO positions (name, hierarchy_level, department_id, faculty_id) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')) RETURNING id",
			name, level, deptID, facID).Scan(&id)
		return id, err
	}

	lecturerID, err := position("Lecturer", 3, csDeptID, "")
	if err != nil {
		return err
	}
	seniorID, err := position("Senior Lecturer", 5, csDeptID, "")
	if err != nil {
		return err
	}
	headID, err := position("Head of Department", directory.LevelDepartmentHead, csDeptID, "")
	if err != nil {
		return err
	}
	deanID, err := position("Dean", directory.LevelDean, "", facultyID)
	if err != nil {
		return err
	}
	registrarID, err := position("Registrar", directory.LevelDepartmentHead, adminDeptID, "")
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE departments SET head_position_id = $1 WHERE id = $2", headID, csDeptID); err != nil {
		return err
	}

	person := func(first, last, email, posID, deptID string) error {
		var userID string
		if err := tx.QueryRow(ctx,
			"INSERT INTO users (email, password_hash, account_role, active) VALUES ($1, $2, $3, true) RETURNING id",
			email, hash, auth.RoleEmployee).Scan(&userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"INSERT INTO employees (first_name, last_name, email, position_id, department_id, user_id) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)",
			first, last, email, posID, deptID, userID)
		return err
	}

	people := []struct {
		first, last, email, posID, deptID string
	}{
		{"Iris", "Mendel", "iris.mendel@demo.local", lecturerID, csDeptID},
		{"Tomas", "Berg", "tomas.berg@demo.local", seniorID, csDeptID},
		{"Hana", "Kovar", "hana.kovar@demo.local", headID, csDeptID},
		{"Petr", "Dvorak", "petr.dvorak@demo.local", deanID, ""},
		{"Marta", "Sykora", "marta.sykora@demo.local", registrarID, adminDeptID},
	}
	for _, p := range people {
		if err := person(p.first, p.last, p.email, p.posID, p.deptID); err != nil {
			return fmt.Errorf("insert demo person %s: %w", p.email, err)
		}
	}

	var typeID, stepID string
	if err := tx.QueryRow(ctx,
		"INSERT INTO request_types (name, description) VALUES ('Equipment purchase', 'Hardware and software purchases') RETURNING id",
	).Scan(&typeID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx,
		"INSERT INTO approval_steps (request_type_id, seq, name) VALUES ($1, 1, 'Line approval') RETURNING id",
		typeID).Scan(&stepID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO step_approvers (step_id, kind, position_id) VALUES ($1, 'position', $2)",
		stepID, headID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	slog.Info("seeded demo organization", "faculty", "ENG")
	return nil
}
