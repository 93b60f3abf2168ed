// Package refdata loads and serves the read-only lookup sets the detector
// validates candidates against: known names, surname characters, exclusion
// words, and administrative place names.
//
// Built-in defaults always apply. Optional CSV files (name.csv with an 이름
// column, address_road.csv with 시도/시군구/도로명 columns) extend the sets.
// Callers take an immutable Snapshot; Store.Watch swaps snapshots atomically
// when a CSV changes on disk.
package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Set is a string membership set.
type Set map[string]struct{}

// NewSet builds a Set from the given values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s Set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

// Snapshot is one immutable view of all reference sets. The detector holds
// a snapshot for the duration of one pass; nothing mutates it afterwards.
type Snapshot struct {
	GivenNames       Set // bare given names (2-3 chars)
	FullNames        Set // surname+given combinations and CSV full names
	SurnameChars     Set // single leading surname characters
	CompoundSurnames Set // two-character family names
	ExcludeWords     Set // nouns/titles/particles never accepted as names
	Provinces        Set // short province tokens (서울, 경기, ...)
	ProvinceLabels   []string
	Districts        Set // 시군구 tokens
	Roads            Set // 도로명 tokens
}

// Options locate the optional CSV sources.
type Options struct {
	NameCSV    string
	AddressCSV string
}

// Store owns the current snapshot and rebuilds it from CSV sources.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
	opts Options
}

// NewStore builds a store and performs the initial load. Missing CSV files
// are not an error; the built-in defaults remain in effect.
func NewStore(opts Options) (*Store, error) {
	s := &Store{opts: opts}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current immutable reference view.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload rebuilds the snapshot from defaults plus CSV sources and swaps it in.
func (s *Store) Reload() error {
	snap := baseSnapshot()

	if s.opts.NameCSV != "" {
		n, err := loadNameCSV(s.opts.NameCSV, snap)
		if err != nil {
			return fmt.Errorf("loading name csv: %w", err)
		}
		if n > 0 {
			log.Debug().Int("names", n).Str("path", s.opts.NameCSV).Msg("reference names loaded")
		}
	}
	if s.opts.AddressCSV != "" {
		n, err := loadAddressCSV(s.opts.AddressCSV, snap)
		if err != nil {
			return fmt.Errorf("loading address csv: %w", err)
		}
		if n > 0 {
			log.Debug().Int("rows", n).Str("path", s.opts.AddressCSV).Msg("reference addresses loaded")
		}
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func baseSnapshot() *Snapshot {
	snap := &Snapshot{
		GivenNames:       NewSet(),
		FullNames:        NewSet(defaultNames...),
		SurnameChars:     NewSet(singleSurnames...),
		CompoundSurnames: NewSet(compoundSurnames...),
		ExcludeWords:     NewSet(defaultExcludeWords...),
		Provinces:        NewSet(defaultProvinces...),
		ProvinceLabels:   append([]string(nil), defaultProvinceLabels...),
		Districts:        NewSet(defaultDistricts...),
		Roads:            NewSet(),
	}
	for _, label := range defaultProvinceLabels {
		snap.Provinces.add(label)
	}
	return snap
}

// loadNameCSV reads given names from the 이름 column and combines each with
// every surname to build full-name candidates, keeping 2-4 character results.
// Bare given names of 2-3 characters are added as well.
func loadNameCSV(path string, snap *Snapshot) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	col := columnIndex(rows, "이름")
	if col < 0 {
		return 0, fmt.Errorf("%s: missing 이름 column", path)
	}

	surnames := make([]string, 0, len(snap.SurnameChars)+len(snap.CompoundSurnames))
	for sn := range snap.SurnameChars {
		surnames = append(surnames, sn)
	}
	for sn := range snap.CompoundSurnames {
		surnames = append(surnames, sn)
	}

	count := 0
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		given := row[col]
		if given == "" {
			continue
		}
		count++
		if n := utf8.RuneCountInString(given); n >= 2 && n <= 3 {
			snap.GivenNames.add(given)
		}
		for _, sn := range surnames {
			full := sn + given
			if n := utf8.RuneCountInString(full); n >= 2 && n <= 4 {
				snap.FullNames.add(full)
			}
		}
	}
	return count, nil
}

// loadAddressCSV reads 시도/시군구/도로명 rows. Districts and roads feed the
// address recognizers directly; 시도 values extend the province set.
func loadAddressCSV(path string, snap *Snapshot) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	province := columnIndex(rows, "시도")
	district := columnIndex(rows, "시군구")
	road := columnIndex(rows, "도로명")
	if province < 0 && district < 0 && road < 0 {
		return 0, fmt.Errorf("%s: no 시도/시군구/도로명 columns", path)
	}

	count := 0
	for _, row := range rows[1:] {
		count++
		if province >= 0 && province < len(row) {
			snap.Provinces.add(row[province])
		}
		if district >= 0 && district < len(row) {
			snap.Districts.add(row[district])
		}
		if road >= 0 && road < len(row) && utf8.RuneCountInString(row[road]) >= 2 {
			snap.Roads.add(row[road])
		}
	}
	return count, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	return rows, nil
}

func columnIndex(rows [][]string, name string) int {
	for i, h := range rows[0] {
		if h == name {
			return i
		}
	}
	return -1
}
