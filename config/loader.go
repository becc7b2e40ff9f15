package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

// searchDirs are tried in order after the working directory, so binaries and package
// tests find config.yaml from any depth of the tree.
var searchDirs = []string{"config", "../config", "../../config", "../../../config"}

// loadYAML decodes <name>.yaml into out and then overlays environment variables.
// POSTGRES_SSLMODE overrides postgres.sslMode: each underscore-separated segment is
// matched against the keys already present in the file, ignoring case and punctuation.
func loadYAML(out any, name string, dirs ...string) error {
	path, err := findFile(name+".yaml", dirs)
	if err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	fileKeys := k.Raw()
	envProvider := env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return canonicalizeEnvKey(key, fileKeys), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return errors.Wrap(err, "load environment overrides")
	}

	err = k.UnmarshalWithConf("", out, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           out,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			MatchName:        strings.EqualFold,
		},
	})

	return errors.Wrapf(err, "decode %s", path)
}

func findFile(fileName string, dirs []string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "os.Getwd")
	}

	candidates := []string{filepath.Join(wd, fileName)}
	for _, dir := range dirs {
		candidates = append(candidates, filepath.Join(wd, dir, fileName))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.Errorf("%s not found in %s or %v", fileName, wd, dirs)
}

// canonicalizeEnvKey turns an environment name into a koanf path. Segments that match
// no existing key are lowercased, and so is everything after them.
func canonicalizeEnvKey(rawKey string, known map[string]any) string {
	var path []string
	level := known

	for _, segment := range strings.Split(rawKey, "_") {
		if segment == "" {
			continue
		}

		key, child := matchKey(level, segment)
		path = append(path, key)
		level = child
	}

	return strings.Join(path, ".")
}

// matchKey returns the spelling of segment used in level, and level's child map under it.
func matchKey(level map[string]any, segment string) (string, map[string]any) {
	want := foldKey(segment)
	for key, value := range level {
		if foldKey(key) == want {
			child, _ := value.(map[string]any)

			return key, child
		}
	}

	return strings.ToLower(segment), nil
}

func foldKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}

		return -1
	}, s)
}

// replicasFromEnv reads POSTGRES_REPLICAS_<n>_{HOST,PORT,USERNAME,PASSWORD} from n=0 upwards
// and stops at the first index without both a host and a port.
func replicasFromEnv(lookup func(string) (string, bool)) []postgres.ConnectionConfig {
	get := func(key string) string {
		v, _ := lookup(key)

		return v
	}

	var replicas []postgres.ConnectionConfig
	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"
		host, port := get(prefix+"HOST"), get(prefix+"PORT")
		if host == "" || port == "" {
			return replicas
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: get(prefix + "USERNAME"),
			Password: get(prefix + "PASSWORD"),
		})
	}
}
