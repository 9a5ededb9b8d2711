package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Host:     "db.local",
		Port:     5433,
		User:     "reader",
		Password: "secret",
		Database: "energia",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db.local port=5433 user=reader password=secret dbname=energia sslmode=disable", cfg.DSN())
}
