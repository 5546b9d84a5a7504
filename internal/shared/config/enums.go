//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// StorageDriver selects the local key-value backend
// ENUM(file,bolt)
type StorageDriver string

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string
