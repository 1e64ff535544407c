package config

import (
	"fmt"
	"net/url"
	"time"
)

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	Host            string        `yaml:"host" env:"NOTES_POSTGRES_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"NOTES_POSTGRES_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"NOTES_POSTGRES_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"NOTES_POSTGRES_PASSWORD" env-default:"postgres"`
	Database        string        `yaml:"database" env:"NOTES_POSTGRES_DB" env-default:"notes"`
	MinConn         int32         `yaml:"min_conn" env:"NOTES_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn         int32         `yaml:"max_conn" env:"NOTES_POSTGRES_MAX_CONN" env-default:"10"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"NOTES_POSTGRES_MAX_CONN_LIFETIME" env-default:"30m"`
	MigrationsDir   string        `yaml:"migrations_dir" env:"NOTES_POSTGRES_MIGRATIONS_DIR" env-default:"migrations/notes"`
}

// GetDSN возвращает строку подключения для pgx.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

// GetConnectionURL возвращает URL подключения для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
