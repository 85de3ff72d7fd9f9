package long

import "errors"

// ErrDeprecatedDefaults is returned when a default_values.csv sits next to the
// input folder. Defaults belong in the schema configuration.
var ErrDeprecatedDefaults = errors.New("long: default_values.csv is deprecated, define defaults in the configuration file")

// ErrNotDirectory is returned when the source or destination is not a folder.
var ErrNotDirectory = errors.New("long: path is not a directory")
