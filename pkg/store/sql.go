package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

const slowQueryThreshold = time.Second

type sqlSnapshot struct {
	SHA       string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
	Files     []sqlFileRecord `gorm:"foreignKey:SnapshotSHA;references:SHA;constraint:OnDelete:CASCADE"`
}

func (sqlSnapshot) TableName() string {
	return "snapshots"
}

type sqlFileRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SnapshotSHA string `gorm:"index;size:64"`
	Position    int
	Name        string
	Relative    string
	Full        string
	Size        uint64
	Gzip        uint64
}

func (sqlFileRecord) TableName() string {
	return "snapshot_files"
}

// SQLStore keeps snapshots in a relational database through gorm.
type SQLStore struct {
	db *gorm.DB
}

// SQLiteDialector opens a SQLite database file in WAL mode.
func SQLiteDialector(file string) gorm.Dialector {
	return sqlite.Open(file + "?_pragma=journal_mode(WAL)")
}

// OpenSQLite opens (and migrates) a SQLite-backed store at file.
func OpenSQLite(file string) (*SQLStore, error) {
	return NewSQLStore(SQLiteDialector(file))
}

// NewSQLStore opens a store on any gorm dialector and migrates its tables.
func NewSQLStore(d gorm.Dialector) (*SQLStore, error) {
	l := logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(d, &gorm.Config{Logger: l})
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	migrateErr := db.AutoMigrate(&sqlSnapshot{}, &sqlFileRecord{})
	if migrateErr != nil {
		return nil, fmt.Errorf("migrate snapshot database: %w", migrateErr)
	}

	return &SQLStore{db: db}, nil
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("snapshot database handle: %w", err)
	}

	return db.Close()
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, sha string, snap snapshot.Snapshot) error {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return shaErr
	}

	row := sqlSnapshot{
		SHA: sha,
		Files: lo.Map(snap, func(rec snapshot.FileRecord, i int) sqlFileRecord {
			return sqlFileRecord{
				SnapshotSHA: sha,
				Position:    i,
				Name:        rec.Name,
				Relative:    rec.Relative,
				Full:        rec.Full,
				Size:        rec.Size,
				Gzip:        rec.CompressedSize,
			}
		}),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64

		countErr := tx.Model(&sqlSnapshot{}).Where("sha = ?", sha).Count(&count).Error
		if countErr != nil {
			return countErr
		}

		if count > 0 {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, sha)
		}

		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return err
		}

		return fmt.Errorf("save snapshot %s: %w", sha, err)
	}

	return nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, sha string) (snapshot.Snapshot, error) {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return nil, shaErr
	}

	var row sqlSnapshot

	err := s.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("sha = ?", sha).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sha)
	}

	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sha, err)
	}

	snap := lo.Map(row.Files, func(f sqlFileRecord, _ int) snapshot.FileRecord {
		return snapshot.FileRecord{
			Name:           f.Name,
			Relative:       f.Relative,
			Full:           f.Full,
			Size:           f.Size,
			CompressedSize: f.Gzip,
		}
	})

	return snapshot.Snapshot(snap), nil
}

// SHAs lists stored commit SHAs, newest first.
func (s *SQLStore) SHAs(ctx context.Context) ([]string, error) {
	var shas []string

	err := s.db.WithContext(ctx).Model(&sqlSnapshot{}).Order("created_at desc").Pluck("sha", &shas).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return shas, nil
}
