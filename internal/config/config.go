package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// Env selects the backing implementations: "dev" runs simulated
	// hardware and an in-memory audit store, "prod" runs GPIO and SQLite.
	Env string

	RegistryPath string // e.g. "./data/uids.txt"
	DBPath       string // e.g. "./data/doorlatch.db"

	// Pin names as understood by the host GPIO registry.
	LockPin   string
	BuzzerPin string
	ResetPin  string
	IRQPin    string
	SPIDev    string // "" = first available SPI port

	// Audit retention
	AuditRetentionDays int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 24)
}

func FromEnv() Config {
	addr := getenvDefault("DOORLATCH_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("DOORLATCH_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,

		RegistryPath: getenvDefault("DOORLATCH_REGISTRY_PATH", "./data/uids.txt"),
		DBPath:       getenvDefault("DOORLATCH_DB_PATH", "./data/doorlatch.db"),

		LockPin:   getenvDefault("DOORLATCH_LOCK_PIN", "GPIO16"),
		BuzzerPin: getenvDefault("DOORLATCH_BUZZER_PIN", "GPIO15"),
		ResetPin:  getenvDefault("DOORLATCH_RESET_PIN", "GPIO25"),
		IRQPin:    getenvDefault("DOORLATCH_IRQ_PIN", "GPIO24"),
		SPIDev:    os.Getenv("DOORLATCH_SPI_DEV"),

		AuditRetentionDays: getenvInt("DOORLATCH_AUDIT_RETENTION_DAYS", 90),
		PruneIntervalHours: getenvInt("DOORLATCH_PRUNE_INTERVAL_HOURS", 24),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
