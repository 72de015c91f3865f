package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schola-blog/schola-api/pkg/config"
	"github.com/schola-blog/schola-api/pkg/database"
	"github.com/schola-blog/schola-api/pkg/logger"
)

// levelSeed describes a teaching level and its grades, seeded in order.
type levelSeed struct {
	name   string
	grades []string
}

var levels = []levelSeed{
	{name: "Ensino Fundamental", grades: []string{
		"1º Ano", "2º Ano", "3º Ano", "4º Ano", "5º Ano",
		"6º Ano", "7º Ano", "8º Ano", "9º Ano",
	}},
	{name: "Ensino Médio", grades: []string{
		"1ª Série", "2ª Série", "3ª Série",
	}},
}

var subjects = []string{
	"Matemática",
	"Português",
	"História",
	"Geografia",
	"Ciências",
	"Física",
	"Química",
	"Biologia",
	"Inglês",
	"Educação Física",
	"Artes",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, db, cfg); err != nil {
		logr.Sugar().Fatalw("failed to seed admin user", "error", err)
	}
	if err := seedTeaching(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to seed teaching levels", "error", err)
	}
	if err := seedSubjects(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to seed subjects", "error", err)
	}

	logr.Info("seed completed",
		zap.String("admin_username", cfg.Bootstrap.AdminUsername),
		zap.Int("levels", len(levels)),
		zap.Int("subjects", len(subjects)),
	)
}

func seedAdmin(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
	var count int
	const existsQuery = `SELECT COUNT(1) FROM users WHERE LOWER(username) = LOWER($1)`
	if err := db.GetContext(ctx, &count, existsQuery, cfg.Bootstrap.AdminUsername); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Bootstrap.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	userID := uuid.NewString()

	const userQuery = `INSERT INTO users (id, username, full_name, email, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	if _, err = tx.ExecContext(ctx, userQuery,
		userID,
		strings.ToLower(cfg.Bootstrap.AdminUsername),
		cfg.Bootstrap.AdminName,
		strings.ToLower(cfg.Bootstrap.AdminEmail),
		string(hash),
		true,
		now,
	); err != nil {
		return err
	}

	const rolesQuery = `INSERT INTO user_roles (id, user_id, is_admin, is_teacher, is_student, created_at, updated_at)
		VALUES ($1, $2, true, false, false, $3, $3)`
	if _, err = tx.ExecContext(ctx, rolesQuery, uuid.NewString(), userID, now); err != nil {
		return err
	}

	return tx.Commit()
}

func seedTeaching(ctx context.Context, db *sqlx.DB) error {
	const levelQuery = `INSERT INTO teaching_levels (id, name, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`
	const gradeQuery = `INSERT INTO teaching_grades (id, teaching_level_id, name, position)
		VALUES ($1, (SELECT id FROM teaching_levels WHERE name = $2), $3, $4)
		ON CONFLICT (teaching_level_id, name) DO NOTHING`

	for i, level := range levels {
		if _, err := db.ExecContext(ctx, levelQuery, uuid.NewString(), level.name, i); err != nil {
			return err
		}
		for j, grade := range level.grades {
			if _, err := db.ExecContext(ctx, gradeQuery, uuid.NewString(), level.name, grade, j); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedSubjects(ctx context.Context, db *sqlx.DB) error {
	const query = `INSERT INTO subjects (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`

	for _, name := range subjects {
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), name); err != nil {
			return err
		}
	}
	return nil
}
