// Package output renders tokguard-cli results as a table, JSON or YAML.
//
// Tables are built from structs through their json tags; fields tagged
// `table:"wide"` only show with --wide.
package output
