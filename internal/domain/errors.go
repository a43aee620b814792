package domain

import "errors"

// Error kinds. Operations wrap the underlying cause together with one of
// these, so callers can match either with errors.Is.
var (
	// ErrSchema reports a missing or mistyped required column.
	ErrSchema = errors.New("schema error")
	// ErrParse reports an unparseable temperature or date.
	ErrParse = errors.New("parse error")
	// ErrIO reports an unreadable source, an unwritable destination or a
	// missing store file.
	ErrIO = errors.New("io error")
	// ErrNotLoaded is returned by queries issued before the store was loaded.
	ErrNotLoaded = errors.New("weather data not loaded")
	// ErrEmptyDataset is returned when an aggregation has no rows to reduce.
	ErrEmptyDataset = errors.New("empty dataset")
)
