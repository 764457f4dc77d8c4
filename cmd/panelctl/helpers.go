package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"

	"panel/internal/backend"
	"panel/internal/core"
	"panel/internal/records"
)

func init() {
	viper.SetDefault("source", string(backend.MemoryBackend))
	viper.SetDefault("data_dir", "./data")
	viper.SetDefault("sqlite_db_path", "./data/panel.db")
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("google.services_sheet", "Servicios")
	viper.SetDefault("google.expenses_sheet", "Gastos")
	viper.SetDefault("google.fixed_expenses_sheet", "Gastos fijos")
	viper.SetDefault("google.categories_sheet", "Categorias")
}

// dateParser builds the parser for the configured slash order.
func dateParser() (core.DateParser, error) {
	order, err := core.SlashOrderByName(viper.GetString("slash_order"))
	if err != nil {
		return core.DateParser{}, err
	}
	return core.NewDateParser(order), nil
}

// sourceConfig reads the record source settings.
func sourceConfig() (backend.Config, error) {
	dates, err := dateParser()
	if err != nil {
		return backend.Config{}, err
	}
	return backend.Config{
		Type:  backend.BackendType(viper.GetString("source")),
		Dates: dates,

		SQLiteDBPath: viper.GetString("sqlite_db_path"),

		GoogleSpreadsheetID:      viper.GetString("google.spreadsheet_id"),
		GoogleServicesSheet:      viper.GetString("google.services_sheet"),
		GoogleExpensesSheet:      viper.GetString("google.expenses_sheet"),
		GoogleFixedExpensesSheet: viper.GetString("google.fixed_expenses_sheet"),
		GoogleCategoriesSheet:    viper.GetString("google.categories_sheet"),
		GoogleCredentialsFile:    viper.GetString("google.credentials_file"),
		GoogleCredentialsJSON:    viper.GetString("google.credentials_json"),

		DataDirectory: viper.GetString("data_dir"),
	}, nil
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}

// recordFile is a bundle plus its category catalog, as read by import and
// offline snapshots.
type recordFile struct {
	Bundle     records.Bundle
	Categories records.Collection
}

func readRecordFile(path string) (recordFile, error) {
	data, err := readInput(path)
	if err != nil {
		return recordFile{}, err
	}

	var f recordFile
	if err := json.Unmarshal(data, &f.Bundle); err != nil {
		return recordFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	var cats struct {
		Categories records.Collection `json:"categories"`
	}
	if err := json.Unmarshal(data, &cats); err != nil {
		return recordFile{}, fmt.Errorf("parse %s categories: %w", path, err)
	}
	f.Categories = cats.Categories
	return f, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
