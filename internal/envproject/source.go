package envproject

import (
	"errors"
	"io/fs"
	"maps"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultDotenvPath is read when no other path is configured.
const DefaultDotenvPath = ".env"

// LoadDotenv parses the dotenv file at path. A missing or malformed file is
// treated as an empty environment; the build carries on without it.
func LoadDotenv(path string) map[string]string {
	if path == "" {
		path = DefaultDotenvPath
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No dotenv file found")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("Ignoring unreadable dotenv file")
		}
		return map[string]string{}
	}

	return env
}

// FromEnviron converts os.Environ style KEY=value pairs into a map. Entries
// without an "=" are ignored.
func FromEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Merge combines sources from left to right; later sources win on conflict.
func Merge(sources ...map[string]string) map[string]string {
	env := map[string]string{}
	for _, src := range sources {
		maps.Copy(env, src)
	}
	return env
}
