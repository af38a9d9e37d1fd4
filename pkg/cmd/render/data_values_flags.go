// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/spf13/cobra"
)

type DataValuesFlags struct {
	FromFiles []string

	EnvFromStrings []string
	EnvFromYAML    []string

	KVsFromStrings []string
	KVsFromYAML    []string
	KVsFromFiles   []string

	Inspect bool
}

func (s *DataValuesFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&s.FromFiles, "data-values-file", nil, "Set data values from a YAML or TOML (.toml) file (can be specified multiple times)")

	cmd.Flags().StringArrayVar(&s.EnvFromStrings, "data-values-env", nil, "Extract data values (as strings) from prefixed env vars (format: PREFIX for PREFIX_all__key1=str) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.EnvFromYAML, "data-values-env-yaml", nil, "Extract data values (parsed as YAML) from prefixed env vars (format: PREFIX for PREFIX_all__key1=true) (can be specified multiple times)")

	cmd.Flags().StringArrayVarP(&s.KVsFromStrings, "data-value", "v", nil, "Set specific data value to given value, as string (format: [ns:]all.key1.subkey=123) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.KVsFromYAML, "data-value-yaml", nil, "Set specific data value to given value, parsed as YAML (format: [ns:]all.key1.subkey=true) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.KVsFromFiles, "data-value-file", nil, "Set specific data value to given file contents, as string (format: [ns:]all.key1.subkey=/file/path) (can be specified multiple times)")

	cmd.Flags().BoolVar(&s.Inspect, "data-values-inspect", false, "Inspect data values")
}

type dataValuesFlagsSource struct {
	Values        []string
	TransformFunc func(string) (interface{}, error)
}

// Values collects data values. Later sources take precedence: files,
// then env variables, then key-value flags.
func (s *DataValuesFlags) Values() (*model.Data, error) {
	plainValFunc := func(rawVal string) (interface{}, error) { return rawVal, nil }

	yamlValFunc := func(rawVal string) (interface{}, error) {
		val, err := model.FromYAMLValue(rawVal)
		if err != nil {
			return nil, fmt.Errorf("Deserializing YAML value: %s", err)
		}
		return val, nil
	}

	result := model.NewData()

	for _, path := range s.FromFiles {
		vals, err := s.dataValuesFile(path)
		if err != nil {
			return nil, fmt.Errorf("Extracting data values from file '%s': %s", path, err)
		}
		result.Merge("", vals)
	}

	for _, src := range []dataValuesFlagsSource{{s.EnvFromStrings, plainValFunc}, {s.EnvFromYAML, yamlValFunc}} {
		for _, envPrefix := range src.Values {
			err := s.env(result, envPrefix, src.TransformFunc)
			if err != nil {
				return nil, fmt.Errorf("Extracting data values from env under prefix '%s': %s", envPrefix, err)
			}
		}
	}

	// KVs and files take precedence over environment variables
	for _, src := range []dataValuesFlagsSource{{s.KVsFromStrings, plainValFunc}, {s.KVsFromYAML, yamlValFunc}} {
		for _, kv := range src.Values {
			err := s.kv(result, kv, src.TransformFunc)
			if err != nil {
				return nil, fmt.Errorf("Extracting data value from KV: %s", err)
			}
		}
	}

	for _, kv := range s.KVsFromFiles {
		err := s.kv(result, kv, s.fileContents)
		if err != nil {
			return nil, fmt.Errorf("Extracting data value from file: %s", err)
		}
	}

	return result, nil
}

func (s *DataValuesFlags) dataValuesFile(path string) (*orderedmap.Map, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return model.FromTOML(contents)
	}
	return model.FromYAML(contents)
}

func (s *DataValuesFlags) env(result *model.Data, prefix string, valueFunc func(string) (interface{}, error)) error {
	for _, envVar := range os.Environ() {
		pieces := strings.SplitN(envVar, "=", 2)
		if len(pieces) != 2 {
			return fmt.Errorf("Expected env variable to be key-value pair (format: key=value)")
		}

		if !strings.HasPrefix(pieces[0], prefix+"_") {
			continue
		}

		val, err := valueFunc(pieces[1])
		if err != nil {
			return fmt.Errorf("Extracting data value from env variable '%s': %s", pieces[0], err)
		}

		// '__' gets translated into a '.' since periods may not be liked by shells
		key := strings.Replace(strings.TrimPrefix(pieces[0], prefix+"_"), "__", ".", -1)
		if err := result.Set("", strings.Split(key, "."), val); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataValuesFlags) kv(result *model.Data, kv string, valueFunc func(string) (interface{}, error)) error {
	pieces := strings.SplitN(kv, "=", 2)
	if len(pieces) != 2 {
		return fmt.Errorf("Expected format key=value")
	}

	namespace, key := "", pieces[0]
	if nsPieces := strings.SplitN(key, ":", 2); len(nsPieces) == 2 {
		namespace, key = nsPieces[0], nsPieces[1]
	}

	val, err := valueFunc(pieces[1])
	if err != nil {
		return fmt.Errorf("Deserializing value for key '%s': %s", pieces[0], err)
	}

	return result.Set(namespace, strings.Split(key, "."), val)
}

func (s *DataValuesFlags) fileContents(path string) (interface{}, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Reading file '%s'", path)
	}
	return string(contents), nil
}
