package database

import (
	"testing"

	"pesa-smart-plan/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestURL_EscapesCredentials(t *testing.T) {
	got := URL(utils.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		Name:     "pesa",
		User:     "app",
		Password: "p@ss/word",
		SSLMode:  "disable",
	})

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/pesa?sslmode=disable", got)
}
