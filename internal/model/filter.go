package model

import "time"

// RecordFilter is the sparse predicate set shared by list and count queries
// over consultations and prescriptions.
type RecordFilter struct {
	DoctorID    *int64
	SiteID      *int64
	Status      string
	PatientName string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// StatsFilter narrows the aggregate counts.
type StatsFilter struct {
	DoctorID *int64
	SiteID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
}

// ListResult is one page of records with the total matching count.
type ListResult[T any] struct {
	Items []T
	Total int
	Page  Page
}
