package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"

    "github.com/rs/zerolog/log" // fatal configuration errors halt execution
)

// Supported values of DB_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverSQLite = "sqlite3"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  MySQL connection settings are only required
// when DB_DRIVER is "mysql"; the sqlite3 driver needs SQLITE_PATH instead.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    DBDriver        string        // "mysql" (default) or "sqlite3"
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    SQLitePath      string        // sqlite database file, ":memory:" allowed
    DBRetryAttempts int           // attempts for transient storage failures
    DBRetryBackoff  time.Duration // base delay between attempts
    JWTSecret       string        // secret used to sign JWTs
    AccessTTLMin    int           // access token time‑to‑live in minutes
    RefreshTTLDays  int           // refresh token time‑to‑live in days
    BcryptCost      int           // bcrypt cost for password hashing
    LogLevel        string        // zerolog level name
    LogFormat       string        // "console" or "json"
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBDriver:        envStr("DB_DRIVER", DriverMySQL),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBRetryAttempts: envInt("DB_RETRY_ATTEMPTS", 3),
        DBRetryBackoff:  envDur("DB_RETRY_BACKOFF", 50*time.Millisecond),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:      mustInt("BCRYPT_COST"),
        LogLevel:        envStr("LOG_LEVEL", "info"),
        LogFormat:       envStr("LOG_FORMAT", "console"),
    }
    switch cfg.DBDriver {
    case DriverMySQL:
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    case DriverSQLite:
        cfg.SQLitePath = envStr("SQLITE_PATH", "reservations.db")
    default:
        log.Fatal().Str("driver", cfg.DBDriver).Msg("unsupported DB_DRIVER")
    }
    if cfg.DBRetryAttempts < 1 {
        cfg.DBRetryAttempts = 1
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatal().Msgf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatal().Msgf("invalid int for %s: %q", key, s)
    }
    return n
}
