package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// buildPostgresDSN assembles a keyword/value DSN. sslmode defaults to
// disable unless overridden through Options.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	kv := map[string]string{
		"host":    "localhost",
		"port":    "5432",
		"user":    cfg.User,
		"dbname":  cfg.Name,
		"sslmode": "disable",
	}
	if cfg.Host != "" {
		kv["host"] = cfg.Host
	}
	if cfg.Port != 0 {
		kv["port"] = fmt.Sprintf("%d", cfg.Port)
	}
	if cfg.Password != "" {
		kv["password"] = cfg.Password
	}
	for key, value := range cfg.Options {
		kv[key] = value
	}

	keys := make([]string, 0, len(kv))
	for key := range kv {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, key := range keys {
		pairs[i] = key + "=" + kv[key]
	}
	return strings.Join(pairs, " "), nil
}
