package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvVar describes one environment override.
type EnvVar struct {
	Name  string
	Field string
	Type  string
}

// loadFromEnv loads configuration values from environment variables
func loadFromEnv(cfg *Config) error {
	return walkEnv(reflect.ValueOf(cfg).Elem(), "", func(field reflect.Value, sf reflect.StructField, path, name string) error {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			return nil
		}
		if err := setFieldValue(field, sf, value); err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", path, name, err)
		}
		return nil
	})
}

// EnvVars lists every environment variable the configuration honours, sorted by name.
func EnvVars() []EnvVar {
	var out []EnvVar
	_ = walkEnv(reflect.ValueOf(DefaultConfig()).Elem(), "", func(_ reflect.Value, sf reflect.StructField, path, name string) error {
		out = append(out, EnvVar{Name: name, Field: path, Type: sf.Type.String()})
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// walkEnv visits every env-tagged field, recursing into nested structs.
func walkEnv(val reflect.Value, prefix string, visit func(reflect.Value, reflect.StructField, string, string) error) error {
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}

		if field.Kind() == reflect.Struct {
			if err := walkEnv(field, path, visit); err != nil {
				return err
			}
			continue
		}

		envTag := sf.Tag.Get("env")
		if envTag == "" {
			continue
		}
		if err := visit(field, sf, path, envTag); err != nil {
			return err
		}
	}
	return nil
}

// setFieldValue sets a struct field from an environment variable string
func setFieldValue(field reflect.Value, fieldType reflect.StructField, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field %s is not settable", fieldType.Name)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(boolVal)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fieldType.Type == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", value)
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			field.SetInt(intVal)
		}

	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		field.SetFloat(floatVal)

	case reflect.Slice:
		if fieldType.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fieldType.Type.Elem().Kind())
		}
		// comma-separated, blanks dropped
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				parts = append(parts, p)
			}
		}
		slice := reflect.MakeSlice(fieldType.Type, len(parts), len(parts))
		for i, part := range parts {
			slice.Index(i).SetString(part)
		}
		field.Set(slice)

	case reflect.Map:
		if fieldType.Type.Key().Kind() != reflect.String || fieldType.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported map type: %s -> %s", fieldType.Type.Key().Kind(), fieldType.Type.Elem().Kind())
		}
		// key=value,key2=value2
		mapVal := reflect.MakeMap(fieldType.Type)
		for _, pair := range strings.Split(value, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) != 2 || kv[0] == "" {
				return fmt.Errorf("invalid map entry format: %s", pair)
			}
			mapVal.SetMapIndex(reflect.ValueOf(kv[0]), reflect.ValueOf(kv[1]))
		}
		field.Set(mapVal)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
