//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Format is a syndication format the favorites feed renders to
// ENUM(rss,atom,json)
type Format string
