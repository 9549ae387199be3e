package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Transport policy markers inspected in tenant connection URIs. A handful of
// legacy stores still run on hosts with fixed TLS behavior that their stored
// URIs do not declare.
const (
	// legacyNoTLSMarker identifies private-network legacy hosts with no
	// TLS listener; connecting with TLS enabled fails outright.
	legacyNoTLSMarker = "railway.internal"
	// managedRelaxedTLSMarker identifies a managed-Postgres provider whose
	// certificates do not verify against the system roots; sslmode=require
	// encrypts without verification.
	managedRelaxedTLSMarker = "ondigitalocean.com"
)

// NormalizeDSN applies the transport policy markers to a tenant connection
// URI. URIs that already declare an sslmode are left untouched.
func NormalizeDSN(uri string) string {
	if strings.Contains(uri, "sslmode=") {
		return uri
	}
	var mode string
	switch {
	case strings.Contains(uri, legacyNoTLSMarker):
		mode = "disable"
	case strings.Contains(uri, managedRelaxedTLSMarker):
		mode = "require"
	default:
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "sslmode=" + mode
}

// OpenOptions configures how tenant databases are opened.
type OpenOptions struct {
	Pool       *config.DatabaseConfig
	GormLogger gormlogger.Interface
	Tracing    bool
}

// Open opens a pooled GORM connection to one store database. The same pool
// parameters apply to the default database and to every tenant.
func Open(uri string, opts OpenOptions) (*gorm.DB, error) {
	gl := opts.GormLogger
	if gl == nil {
		gl = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(NormalizeDSN(uri)), &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithoutQueryVariables())); err != nil {
			return nil, fmt.Errorf("failed to install tracing plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if p := opts.Pool; p != nil {
		sqlDB.SetMaxOpenConns(p.MaxOpenConns)
		sqlDB.SetMaxIdleConns(p.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(p.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(p.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
