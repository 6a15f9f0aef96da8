package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrNilTarget = errors.New("config: target must be a non-nil pointer to a struct")
	ErrParse     = errors.New("config: failed to parse environment")
)

var (
	dotenvOnce sync.Once
	dotenvErr  error

	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)
)

// Load fills cfg from the environment, reading a .env file in the working
// directory first if one exists. Variables already set in the process
// environment take precedence over .env values. The result is cached per
// type, so later calls for the same type copy the first result.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilTarget
	}

	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return ErrNilTarget
	}

	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			dotenvErr = err
		}
	})
	if dotenvErr != nil {
		return fmt.Errorf("config: failed to load .env: %w", dotenvErr)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return errors.Join(ErrParse, err)
	}

	cache[typ] = loaded
	*cfg = loaded
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup code.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Parse fills cfg from the environment without the .env file or the cache.
func Parse[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilTarget
	}
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParse, err)
	}
	return nil
}
