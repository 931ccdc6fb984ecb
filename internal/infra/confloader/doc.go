// Package confloader loads layered configuration with koanf.
//
// Sources, later ones winning:
//
//  1. the target struct as passed in (defaults)
//  2. a YAML file
//  3. environment variables, prefix TOKGUARD_, "__" between levels
//
// A Watcher reports writes to the file so callers can apply the settings
// that are safe to change at runtime.
package confloader
