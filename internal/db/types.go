package db

import (
	"context"

	"benchkeep/internal/benchdata"
)

// Point is one value of a measurement's history.
type Point struct {
	Date     int64   `json:"date"`
	CommitID string  `json:"commit"`
	Value    float64 `json:"value"`
	Range    string  `json:"range,omitempty"`
	Unit     string  `json:"unit"`
}

// SuiteInfo summarizes an indexed suite.
type SuiteInfo struct {
	Name     string `json:"name"`
	Runs     int    `json:"runs"`
	LastDate int64  `json:"lastDate"`
}

// Store indexes benchmark runs for querying.
type Store interface {
	Close() error
	SaveRun(ctx context.Context, suite string, run benchdata.Run) error
	ListSuites(ctx context.Context) ([]SuiteInfo, error)
	Series(ctx context.Context, suite, bench string) ([]Point, error)
	LatestRun(ctx context.Context, suite string) (*benchdata.Run, error)
}
