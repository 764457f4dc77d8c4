package backend

import (
	"fmt"

	"panel/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataSource)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s", appConfig.DataSource)
	}

	dates, err := appConfig.DateParser()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type:  backendType,
		Dates: dates,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServicesSheet:      appConfig.GoogleServicesSheet,
		GoogleExpensesSheet:      appConfig.GoogleExpensesSheet,
		GoogleFixedExpensesSheet: appConfig.GoogleFixedExpensesSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleCredentialsFile:    appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON:    appConfig.GoogleCredentialsJSON,

		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServicesSheet == "" || c.GoogleExpensesSheet == "" || c.GoogleFixedExpensesSheet == "" {
			return fmt.Errorf("services, expenses and fixed expenses sheet names are required for sheets backend")
		}

	case MemoryBackend:
		// DataDirectory defaults to "data" if empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
