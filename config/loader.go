package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of streamkit environment variables.
// STREAMKIT_CODEC_FLUSH and CODEC_FLUSH both set codec.flush; the prefixed
// form wins when both are present. Top-level keys such as name or debug
// are only read with the prefix.
const EnvPrefix = "STREAMKIT"

// FileSystem abstracts the file lookups of the loader so tests can fake them.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	ConfigDir() (string, error)
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (RealFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

func (RealFileSystem) ConfigDir() (string, error) { return os.UserConfigDir() }

// Resolver picks the config and env files for a tool.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files the loader will read. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches for the rest.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(r.configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first([]string{".env." + name, ".env"})
	}
	return files
}

// configCandidates lists, in order: the working directory, ./config and
// the per-user config directory.
func (r *Resolver) configCandidates(name string) []string {
	paths := []string{
		name + ".yml",
		name + ".yaml",
		"config.yml",
		filepath.Join("config", name+".yml"),
		filepath.Join("config", "config.yml"),
	}
	if dir, err := r.FileSystem.ConfigDir(); err == nil && dir != "" {
		paths = append(paths,
			filepath.Join(dir, name, "config.yml"),
			filepath.Join(dir, name, "config.yaml"),
		)
	}
	return paths
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds the loader's file system and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the file system the loader searches.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile names the config file. It must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile names the .env file. It must exist.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig reads the resolved files and the environment into cfg, which
// must be a pointer to a struct with mapstructure tags. The .env file only
// fills variables that are not already set in the environment.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	for _, explicit := range []string{lc.ConfigFile, lc.EnvFile} {
		if explicit != "" && !lc.FileSystem.Exists(explicit) {
			return fmt.Errorf("config file %s not found", explicit)
		}
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(name, lc)

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}
	for _, key := range structKeys(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(append([]string{key}, envNames(key)...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config for %s: %w", name, err)
	}
	return nil
}

// envNames returns the variables bound to a dotted key, prefixed first.
func envNames(key string) []string {
	bare := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if !strings.Contains(key, ".") {
		return []string{EnvPrefix + "_" + bare}
	}
	return []string{EnvPrefix + "_" + bare, bare}
}

// structKeys lists the dotted mapstructure keys of every leaf field of t.
// Squashed embedded structs contribute their fields at the parent level.
func structKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("mapstructure")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if opts == "squash" {
			keys = append(keys, structKeys(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			keys = append(keys, structKeys(ft, name)...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
