// Package db is the credential and profile store. It persists accounts and
// company profiles through GORM and owns the schema through embedded goose
// migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	dbmodels "github.com/gartstein/jobboard/internal/jobboard/db/models"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Index names that back the uniqueness rules.
const (
	constraintAccountEmail  = "accounts_email_key"
	constraintAccountMobile = "accounts_mobile_no_key"
	constraintProfileOwner  = "company_profiles_owner_id_key"
)

const pgUniqueViolation = "23505"

type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

type Config struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	Path         string
	MaxOpenConns int
}

// NewRepository connects to the configured database and brings its schema up
// to date.
func NewRepository(ctx context.Context, cfg *Config, logger *zap.Logger) (*Repository, error) {
	gormDB, dialect, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	if err := migrate(ctx, sqlDB, dialect, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: gormDB, logger: logger.Named("repository")}, nil
}

func open(cfg *Config) (*gorm.DB, database.Dialect, error) {
	gormCfg := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", err
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
		}
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		if err := sqlDB.Ping(); err != nil {
			_ = sqlDB.Close()
			return nil, "", err
		}

		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, "", err
		}
		return gormDB, database.DialectPostgres, nil

	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		gormDB, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, "", err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, "", err
		}
		// SQLite allows one writer; an in-memory database also lives in a
		// single connection.
		sqlDB.SetMaxOpenConns(1)
		return gormDB, database.DialectSQLite3, nil

	default:
		return nil, "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// migrate applies every pending embedded migration.
func migrate(ctx context.Context, db *sql.DB, dialect database.Dialect, logger *zap.Logger) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.Info("applied migration",
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// CreateAccount inserts a new account. A unique index hit is reported as
// ErrDuplicateEmail or ErrDuplicateMobile.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	row := dbmodels.AccountFromDomain(account)
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if constraint, ok := uniqueViolation(result.Error); ok {
			return r.duplicateAccount(ctx, constraint, account)
		}
		return result.Error
	}

	account.CreatedAt = row.CreatedAt
	account.UpdatedAt = row.UpdatedAt
	return nil
}

// duplicateAccount names the field behind a unique violation. Postgres
// reports the index; other drivers fall back to looking the values up.
func (r *Repository) duplicateAccount(ctx context.Context, constraint string, account *models.Account) error {
	switch constraint {
	case constraintAccountEmail:
		return e.ErrDuplicateEmail
	case constraintAccountMobile:
		return e.ErrDuplicateMobile
	}

	if _, err := r.GetAccountByEmail(ctx, account.Email); err == nil {
		return e.ErrDuplicateEmail
	}
	if account.MobileNo != nil {
		if _, err := r.GetAccountByMobile(ctx, *account.MobileNo); err == nil {
			return e.ErrDuplicateMobile
		}
	}
	return e.ErrDuplicateIdentity
}

func (r *Repository) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.firstAccount(ctx, "id = ?", id)
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.firstAccount(ctx, "email = ?", email)
}

func (r *Repository) GetAccountByMobile(ctx context.Context, mobile string) (*models.Account, error) {
	return r.firstAccount(ctx, "mobile_no = ?", mobile)
}

func (r *Repository) firstAccount(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	var row dbmodels.Account
	result := r.db.WithContext(ctx).Where(query, arg).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return row.ToDomain(), nil
}

// MarkMobileVerified sets is_mobile_verified on the account that owns mobile
// and returns the updated account.
func (r *Repository) MarkMobileVerified(ctx context.Context, mobile string) (*models.Account, error) {
	return r.markVerified(ctx, "mobile_no", mobile, "is_mobile_verified")
}

// MarkMailVerified sets is_mail_verified on the account registered with email
// and returns the updated account.
func (r *Repository) MarkMailVerified(ctx context.Context, email string) (*models.Account, error) {
	return r.markVerified(ctx, "email", email, "is_mail_verified")
}

func (r *Repository) markVerified(ctx context.Context, keyColumn, key, flagColumn string) (*models.Account, error) {
	var account *models.Account
	err := r.WithTransaction(ctx, func(repo *Repository) error {
		result := repo.db.WithContext(ctx).Model(&dbmodels.Account{}).
			Where(keyColumn+" = ?", key).
			Updates(map[string]interface{}{flagColumn: true})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}

		var err error
		account, err = repo.firstAccount(ctx, keyColumn+" = ?", key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *Repository) GetProfileByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	var row dbmodels.CompanyProfile
	result := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return row.ToDomain(), nil
}

// CreateProfile inserts a profile. ErrAlreadyClaimed is returned when the
// owner already has one.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.CompanyProfile) error {
	row, err := dbmodels.CompanyProfileFromDomain(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if constraint, ok := uniqueViolation(result.Error); ok {
			if constraint == "" || constraint == constraintProfileOwner {
				return e.ErrAlreadyClaimed
			}
		}
		return result.Error
	}

	profile.CreatedAt = row.CreatedAt
	profile.UpdatedAt = row.UpdatedAt
	return nil
}

// UpdateProfile loads the owner's profile under a row lock, lets mutate
// change it and writes it back. Returning an error from mutate aborts the
// update.
func (r *Repository) UpdateProfile(ctx context.Context, ownerID uuid.UUID, mutate func(*models.CompanyProfile) error) (*models.CompanyProfile, error) {
	var updated *models.CompanyProfile
	err := r.WithTransaction(ctx, func(repo *Repository) error {
		var row dbmodels.CompanyProfile
		result := repo.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).
			Take(&row)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return result.Error
		}

		profile := row.ToDomain()
		if err := mutate(profile); err != nil {
			return err
		}
		profile.ID = row.ID
		profile.OwnerID = row.OwnerID
		profile.CreatedAt = row.CreatedAt

		next, err := dbmodels.CompanyProfileFromDomain(profile)
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		if err := repo.db.WithContext(ctx).Save(next).Error; err != nil {
			return err
		}

		updated = next.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// uniqueViolation reports whether err is a unique index violation and, when
// the driver exposes it, the name of the violated index.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return "", sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return "", false
}
