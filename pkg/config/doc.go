// Package config provides configuration for strata stores.
//
// A single StoreConfig describes everything a tool needs to build a column
// store from CSV input:
//   - Schema: column names, logical types, encodings and nullability
//   - CSV: delimiter, header handling, null marker, invalid row policy,
//     file compression
//   - Logging, Metrics and Tracing: ambient settings for the CLI
//
// # Usage
//
//	cfg, err := config.LoadStoreConfig("strata.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	schema, err := cfg.ToSchema()
//
// ## Environment Variable Substitution
//
// ${VAR_NAME} anywhere in the YAML is replaced with the environment value
// before parsing:
//
//	name: ${STORE_NAME}
//	csv:
//	  delimiter: "${CSV_DELIMITER}"
//
// An unset variable becomes the empty string.
package config
