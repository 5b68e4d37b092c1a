// Package storage selects the persistence backend named by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	mongorepo "hotel_booking/internal/storage/mongo"
	mysqlrepo "hotel_booking/internal/storage/mysql"
	"hotel_booking/migrations"
)

// Backend is every repository port one database serves.
type Backend interface {
	domain.HotelRepository
	domain.VectorSearcher
	domain.BookingRepository
	domain.ReviewRepository
	domain.LocationRepository
}

// Open connects the backend for cfg.StorageDriver. The returned func closes it.
func Open(ctx context.Context, cfg shared.Config) (Backend, func(), error) {
	switch cfg.StorageDriver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		if cfg.MigrateOnStart {
			if err := migrations.Apply(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil

	case "mongo":
		repo, err := mongorepo.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.VectorIndex)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = repo.Close(ctx)
		}
		return repo, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want mysql or mongo)", cfg.StorageDriver)
}
