package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"fleetledger/internal/domain"
	"fleetledger/internal/utils"
)

type Env struct {
	AppAddr string
	GinMode string
	DBDSN   string

	JWTSecret             string
	APIClientID           string
	APIClientSecretHash   string
	CORSAllowedOrigins    []string
	ImportRatePerMinute   int
	FallbackMPG           float64
	EldOkPct              float64
	EldWarnPct            float64
	LoadDistanceTable     string
	LockTimeoutSeconds    int
	UseDatabaseScopeLocks bool
}

const defaultDSN = "root:@tcp(127.0.0.1:3306)/fleet_ledger?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"

// LoadEnv reads configuration from the process environment, after loading a
// .env file when one is present.
func LoadEnv() Env {
	_ = godotenv.Load()

	appAddr := getEnv("APP_ADDR", ":8080")
	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))

	origins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = utils.SplitList(raw)
	}

	return Env{
		AppAddr:               appAddr,
		GinMode:               ginMode,
		DBDSN:                 getEnv("DB_DSN", defaultDSN),
		JWTSecret:             strings.TrimSpace(os.Getenv("JWT_SECRET")),
		APIClientID:           strings.TrimSpace(os.Getenv("API_CLIENT_ID")),
		APIClientSecretHash:   strings.TrimSpace(os.Getenv("API_CLIENT_SECRET_HASH")),
		CORSAllowedOrigins:    origins,
		ImportRatePerMinute:   getEnvAsInt("IFTA_IMPORT_RATE_PER_MIN", 30),
		FallbackMPG:           getEnvAsFloat("IFTA_FALLBACK_MPG", domain.DefaultFleetMPG),
		EldOkPct:              getEnvAsFloat("IFTA_ELD_OK_PCT", 1.0),
		EldWarnPct:            getEnvAsFloat("IFTA_ELD_WARN_PCT", 10.0),
		LoadDistanceTable:     strings.TrimSpace(os.Getenv("IFTA_LOAD_DISTANCE_TABLE")),
		LockTimeoutSeconds:    getEnvAsInt("IFTA_LOCK_TIMEOUT_SEC", 5),
		UseDatabaseScopeLocks: getEnvAsBool("IFTA_DB_SCOPE_LOCKS", true),
	}
}

// Debug reports whether the process runs in gin debug mode (the gin default).
func (e Env) Debug() bool {
	return e.GinMode == "" || e.GinMode == "debug"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}
