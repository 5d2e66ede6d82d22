package models

import "time"

// Document is the JSON form of a report
type Document struct {
	Tool      string    `json:"tool"`
	Version   string    `json:"version"`
	Timestamp string    `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
	Summary   Summary   `json:"summary"`
	Findings  []Finding `json:"findings"`
	Text      string    `json:"text"`
}

// Metadata contains report generation info
type Metadata struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	ZookeeperQuorum   string    `json:"zookeeper_quorum"`
	LocalityThreshold float64   `json:"locality_threshold"`
	Tables            []string  `json:"tables"`
	DryRun            bool      `json:"dry_run"`
	Duration          string    `json:"duration"`
}
