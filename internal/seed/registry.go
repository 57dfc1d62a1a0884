package seed

import (
	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/parsers"
)

// RegisterParsers binds every catalog source's parser key to the shared
// listing-table parsing strategy. Sources needing a different strategy,
// such as model-extracted listings, register their own parser before
// scans start.
func RegisterParsers(settings *conf.Settings) error {
	catalog, err := LoadCatalog()
	if err != nil {
		return err
	}
	table := parsers.NewTableParser(settings)
	for _, source := range catalog.Sources {
		parsers.Register(source.ParserKey, table)
	}
	return nil
}
