package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strings"

    "gopkg.in/yaml.v3"
)

// SeedAdmin describes an administrator provisioned by cmd/seed.
type SeedAdmin struct {
    Username string `yaml:"username"`
    Email    string `yaml:"email"`
    Password string `yaml:"password"`
}

// Seed is the provisioning document read by cmd/seed.  Tables maps a table
// type to the number of tables of that type the shop should have.
type Seed struct {
    Admins []SeedAdmin    `yaml:"admins"`
    Tables map[string]int `yaml:"tables"`
}

// LoadSeed reads a YAML seed file, expanding ${VAR} references against the
// environment.  A missing file yields an empty seed so that the env-only
// admin (ADMIN_USERNAME, ADMIN_EMAIL, ADMIN_PASSWORD) still works.
func LoadSeed(path string) (*Seed, error) {
    seed := &Seed{}
    raw, err := os.ReadFile(path)
    switch {
    case err == nil:
        if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), seed); err != nil {
            return nil, fmt.Errorf("parse seed %s: %w", path, err)
        }
    case errors.Is(err, fs.ErrNotExist):
    default:
        return nil, fmt.Errorf("read seed %s: %w", path, err)
    }

    if u := strings.TrimSpace(os.Getenv("ADMIN_USERNAME")); u != "" {
        seed.Admins = append(seed.Admins, SeedAdmin{
            Username: u,
            Email:    os.Getenv("ADMIN_EMAIL"),
            Password: os.Getenv("ADMIN_PASSWORD"),
        })
    }
    // Entries whose variables all expanded to nothing are dropped.
    admins := seed.Admins[:0]
    for _, a := range seed.Admins {
        if a != (SeedAdmin{}) {
            admins = append(admins, a)
        }
    }
    seed.Admins = admins

    for i, a := range seed.Admins {
        if a.Username == "" || a.Email == "" || a.Password == "" {
            return nil, fmt.Errorf("seed admin #%d: username, email and password are required", i+1)
        }
    }
    for t, n := range seed.Tables {
        if n < 0 {
            return nil, fmt.Errorf("seed tables: negative count for %q", t)
        }
    }
    return seed, nil
}
