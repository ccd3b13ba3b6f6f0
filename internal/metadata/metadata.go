// Package metadata is the read-only static aircraft/airport lookup
// external collaborator named in spec.md §3/§4 ("static aircraft
// metadata: registration, manufacturer, type" / "static airport/
// aircraft CSV/SQL lookup tables"). It is backed by SQLite
// (github.com/mattn/go-sqlite3), grounded on
// plane-watch-acars-parser/tools/analyzer's sql.Open("sqlite3", ...)
// usage, but exposed as a narrow interface so the registry never owns
// or depends on the storage engine directly.
package metadata

import (
	"database/sql"
	"fmt"
)

// AircraftInfo is the static, slowly-changing record for one ICAO
// 24-bit address. Aircraft borrows a pointer to this; it never owns or
// mutates it (spec.md §3's "never own the metadata from the
// aircraft").
type AircraftInfo struct {
	ICAO         uint32
	Registration string
	TypeCode     string
	Manufacturer string
	Model        string
	Operator     string
}

// AirportInfo is a static airport record, keyed by ICAO or IATA code.
type AirportInfo struct {
	Code string
	Name string
	Lat  float64
	Lon  float64
}

// Lookup is the read-only interface the registry consults. It is
// satisfied by *Store and by Noop (used when no database is
// configured).
type Lookup interface {
	AircraftByICAO(addr uint32) (*AircraftInfo, bool)
	AirportByCode(code string) (*AirportInfo, bool)
}

// Noop is a Lookup that never finds anything, used when no metadata
// database is configured.
type Noop struct{}

func (Noop) AircraftByICAO(uint32) (*AircraftInfo, bool)  { return nil, false }
func (Noop) AirportByCode(string) (*AirportInfo, bool)    { return nil, false }

// Store is a SQLite-backed Lookup. The schema mirrors the common
// BaseStation.sqb aircraft/airport table shape: an "Aircraft" table
// keyed by ModeS (hex ICAO), and an "Airports" table keyed by a code
// column.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path read-only and verifies
// connectivity. The caller owns the returned Store and must Close it.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: connecting to %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AircraftByICAO looks up the static record for a 24-bit ICAO address.
func (s *Store) AircraftByICAO(addr uint32) (*AircraftInfo, bool) {
	row := s.db.QueryRow(
		`SELECT Registration, ICAOTypeCode, Manufacturer, Type, RegisteredOwners
		   FROM Aircraft WHERE ModeS = ? LIMIT 1`,
		fmt.Sprintf("%06X", addr),
	)

	info := &AircraftInfo{ICAO: addr}
	if err := row.Scan(&info.Registration, &info.TypeCode, &info.Manufacturer, &info.Model, &info.Operator); err != nil {
		return nil, false
	}
	return info, true
}

// AirportByCode looks up a static airport record by ICAO or IATA code.
func (s *Store) AirportByCode(code string) (*AirportInfo, bool) {
	row := s.db.QueryRow(
		`SELECT Code, Name, Latitude, Longitude FROM Airports WHERE Code = ? LIMIT 1`,
		code,
	)

	info := &AirportInfo{}
	if err := row.Scan(&info.Code, &info.Name, &info.Lat, &info.Lon); err != nil {
		return nil, false
	}
	return info, true
}
