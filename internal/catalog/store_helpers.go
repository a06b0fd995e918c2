package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

func scanExport(scanner interface{ Scan(dest ...any) error }) (Export, error) {
	var (
		export      Export
		libraryPath sql.NullString
		fingerprint sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&export.RunID,
		&export.Source,
		&libraryPath,
		&fingerprint,
		&startedRaw,
		&finishedRaw,
		&export.Written,
		&export.Skipped,
	); err != nil {
		if err == sql.ErrNoRows {
			return Export{}, err
		}
		return Export{}, fmt.Errorf("scan export: %w", err)
	}
	export.LibraryPath = libraryPath.String
	export.Fingerprint = fingerprint.String
	export.StartedAt = parseTime(startedRaw)
	export.FinishedAt = parseTime(finishedRaw)
	return export, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timeLayout keeps a fixed fraction width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
