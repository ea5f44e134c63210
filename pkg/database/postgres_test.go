package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ug1-portal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "portal", Password: "pw", Name: "ug1_portal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=portal password=pw dbname=ug1_portal sslmode=disable", dsn)
}
