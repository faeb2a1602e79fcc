package importer

import (
	"fmt"

	"stry/model"

	"github.com/spf13/viper"
)

// ReadList reads the "stories" list of an import list file (yaml, json or
// toml).
func ReadList(path string) ([]model.ImportEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read import list: %w", err)
	}

	var entries []model.ImportEntry
	if err := v.UnmarshalKey("stories", &entries); err != nil {
		return nil, fmt.Errorf("failed to decode import list: %w", err)
	}
	for i, entry := range entries {
		if entry.Id == "" {
			return nil, fmt.Errorf("story %d of %s has no id", i+1, path)
		}
		if entry.Site == "" {
			entries[i].Site = model.SiteFanFiction
		}
	}
	return entries, nil
}
