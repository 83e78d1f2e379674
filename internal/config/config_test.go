package config

import (
	"strings"
	"testing"
)

func TestParseYAML(t *testing.T) {
	in := `
# engine config
database:
  host: "db.internal"
  port: 5433
  user: engine
  password: 'secret'
  database: ridepulse

redis:
  host: cache.internal
  port: 6380
  db: 2

rabbitmq:
  user: guest
  password: guest

routing:
  base_url: http://osrm.internal:5000
  timeout_seconds: 3

jwt:
  secret_key: "abc123"
`
	var cfg Config
	if err := parseYAML(strings.NewReader(in), &cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Fatalf("database section: %+v", cfg.Database)
	}
	if cfg.Database.Password != "secret" {
		t.Fatalf("quotes not stripped: %q", cfg.Database.Password)
	}
	if cfg.Redis.Port != 6380 || cfg.Redis.DB != 2 {
		t.Fatalf("redis section: %+v", cfg.Redis)
	}
	if cfg.Routing.BaseURL != "http://osrm.internal:5000" {
		t.Fatalf("routing section: %+v", cfg.Routing)
	}
	if cfg.JWT.SecretKey != "abc123" {
		t.Fatalf("jwt section: %+v", cfg.JWT)
	}
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	cases := []string{
		"unknown:\n  x: 1\n",
		"database:\n  flavor: spicy\n",
		"database:\n  port: abc\n",
		"  port: 5432\n", // key without a section
		"database:\n  host: a\ndatabase:\n  host: b\n",
	}
	for _, in := range cases {
		var cfg Config
		if err := parseYAML(strings.NewReader(in), &cfg); err == nil {
			t.Errorf("no error for input %q", in)
		}
	}
}

func TestDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.Database.User = "engine"
	cfg.Database.Password = "pw"
	cfg.Database.Name = "ridepulse"
	cfg.RabbitMQ.User = "guest"
	cfg.RabbitMQ.Password = "guest"

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate after defaults: %v", err)
	}
	if cfg.HTTP.Port != 3000 || cfg.WebSocket.Port != 8080 {
		t.Fatalf("port defaults: http=%d ws=%d", cfg.HTTP.Port, cfg.WebSocket.Port)
	}
	if cfg.JWT.SecretKey == "" {
		t.Fatal("jwt secret not generated")
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Fatalf("redis addr: %s", cfg.RedisAddr())
	}
}

func TestValidateProblems(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	err := cfg.validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"database.user", "database.password", "database.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q misses %q", err, want)
		}
	}
}
