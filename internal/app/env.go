package app

import (
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/joho/godotenv"
)

// LoadEnvFiles loads one or more dotenv files into the process environment.
// Variables that are already set are kept, so the real environment wins over
// the files. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
    for _, p := range existingFiles(paths) {
        if err := godotenv.Load(p); err != nil {
            return fmt.Errorf("load %s: %w", p, err)
        }
    }
    return nil
}

// ReloadAPIKey re-reads the dotenv files, letting their values replace the
// current environment, and returns the credential they now resolve to.
// It backs the SIGHUP credential reload.
func ReloadAPIKey(paths ...string) (string, error) {
    for _, p := range existingFiles(paths) {
        if err := godotenv.Overload(p); err != nil {
            return "", fmt.Errorf("reload %s: %w", p, err)
        }
    }
    key := apiKeyFromEnv()
    if strings.TrimSpace(key) == "" {
        return "", errors.New("no LLM_API_KEY or DEEPSEEK_API_KEY after reload")
    }
    return key, nil
}

func existingFiles(paths []string) []string {
    out := make([]string, 0, len(paths))
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        if _, err := os.Stat(p); err != nil {
            // Missing files are not fatal; continue to next path
            continue
        }
        out = append(out, p)
    }
    return out
}
