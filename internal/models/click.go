package models

import "time"

// Click is one immutable record of a successful redirect, stored for
// analytics. Rows are written exactly once by the click workers and are
// never updated afterwards.
type Click struct {
	// ID is the primary key with auto-increment functionality
	ID uint `gorm:"primaryKey"`

	// LinkID is the foreign key referencing the Link that was clicked
	// - index: efficient per-link history and count queries
	LinkID uint `gorm:"index;not null"`

	// Link establishes the GORM relationship to the Link model
	Link Link `gorm:"foreignKey:LinkID"`

	// Timestamp records the exact moment when the redirect occurred
	Timestamp time.Time `gorm:"index"`

	// Referrer is the raw Referer header, empty for direct visits
	Referrer string `gorm:"size:255"`

	// UserAgent stores the raw client string the classification was
	// derived from
	UserAgent string `gorm:"size:255"`

	// IPAddress of the requester; size 45 covers full IPv6
	IPAddress string `gorm:"size:45"`

	// Country and City come from the optional geolocation lookup and are
	// empty when it is disabled or fails
	Country string `gorm:"size:2"`
	City    string `gorm:"size:100"`

	// DeviceType is one of mobile, tablet or desktop
	DeviceType string `gorm:"size:20"`

	// Browser and OS are the classifier's best guesses, "Other" when no
	// known token matched
	Browser string `gorm:"size:50"`
	OS      string `gorm:"size:50"`
}

// ClickEvent is the lightweight payload passed from the redirect handler to
// the click workers over the events channel. It carries everything needed
// to build a Click row so the workers never touch the request.
type ClickEvent struct {
	LinkID     uint
	Timestamp  time.Time
	Referrer   string
	UserAgent  string
	IPAddress  string
	Country    string
	City       string
	DeviceType string
	Browser    string
	OS         string
}
