package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CompanyList is stored as a JSONB column
type CompanyList []CompanyRecord

// Value implements driver.Valuer for JSONB
func (l CompanyList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *CompanyList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, l)
}

// CacheEntry is the durable per-user record: the contiguous date range the
// automated pass has covered plus every company found or entered so far.
// Totals are derived from Companies on every save.
type CacheEntry struct {
	UserID            string      `gorm:"column:user_id;primaryKey" json:"user_id"`
	EarliestDate      Date        `gorm:"column:earliest_date;type:date" json:"earliest_date"`
	LatestDate        Date        `gorm:"column:latest_date;type:date" json:"latest_date"`
	Companies         CompanyList `gorm:"column:companies;type:jsonb" json:"companies"`
	TotalCompanies    int         `gorm:"column:total_companies" json:"total_companies"`
	TotalApplications int         `gorm:"column:total_applications" json:"total_applications"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CacheEntry) TableName() string {
	return "application_cache"
}

// BeforeSave keeps the stored totals in step with the company list
func (e *CacheEntry) BeforeSave(tx *gorm.DB) error {
	e.Recount()
	return nil
}

// Recount recomputes totals from Companies
func (e *CacheEntry) Recount() {
	t := ComputeTotals(e.Companies)
	e.TotalCompanies = t.Companies
	e.TotalApplications = t.Applications
}

// Totals returns totals computed from the current company list
func (e *CacheEntry) Totals() Totals {
	if e == nil {
		return Totals{}
	}
	return ComputeTotals(e.Companies)
}

// Clone deep-copies the entry
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Companies = CloneCompanies(e.Companies)
	return &out
}
