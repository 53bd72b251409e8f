package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// EnvPrefix namespaces the gradebook's variables. GRADEBOOK_DB_PATH wins over
// DB_PATH when both are set, so a shared shell can keep generic DB_* values.
const EnvPrefix = "GRADEBOOK_"

// lookupEnv returns the prefixed variable first, then the bare one
func lookupEnv(name string) (string, string, bool) {
	if value, exists := os.LookupEnv(EnvPrefix + name); exists {
		return EnvPrefix + name, value, true
	}
	value, exists := os.LookupEnv(name)
	return name, value, exists
}

// processStructFields overrides config fields tagged with `env` from the
// environment. Every bad variable is reported, not just the first one.
func processStructFields(s any) error {
	return overrideFromEnv(reflect.ValueOf(s), "")
}

func overrideFromEnv(val reflect.Value, path string) error {
	// If pointer, get the underlying element
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	// Sections are plain structs; anything else has nothing to walk
	if val.Kind() != reflect.Struct {
		return nil
	}

	var errs []error
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		fieldPath := fieldType.Name
		if path != "" {
			fieldPath = path + "." + fieldType.Name
		}

		// Server, Database, JWT and Logging sections recurse with their name
		if field.Kind() == reflect.Struct {
			if err := overrideFromEnv(field.Addr(), fieldPath); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		name, envValue, exists := lookupEnv(envTag)
		if !exists {
			continue
		}

		// .env files often carry trailing spaces
		if err := setFieldFromEnv(field, strings.TrimSpace(envValue)); err != nil {
			errs = append(errs, fmt.Errorf("%s from env var %s: %w", fieldPath, name, err))
		}
	}

	return errors.Join(errs...)
}

// setFieldFromEnv converts value to the field's kind. Durations are kept as
// strings in Config and parsed by its accessors, so only strings, integers
// and booleans appear here.
func setFieldFromEnv(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", value, err)
		}
		field.SetInt(intValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		field.SetBool(boolValue)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
