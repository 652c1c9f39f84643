package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceType enumerates the kinds of bookable space.
type ResourceType string

const (
	ResourceDesk          ResourceType = "desk"
	ResourceMeetingRoom   ResourceType = "meeting_room"
	ResourcePrivateOffice ResourceType = "private_office"
	ResourcePhoneBooth    ResourceType = "phone_booth"
)

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceDesk, ResourceMeetingRoom, ResourcePrivateOffice, ResourcePhoneBooth:
		return true
	}
	return false
}

// Resource is a bookable unit of the coworking space.  Resources are
// created by administrators and are never deleted; deactivating one
// stops new bookings while keeping its history.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name, unique per space.
//  Type       – desk, meeting_room, private_office or phone_booth.
//  Capacity   – number of people the resource fits (> 0).
//  HourlyRate – price per hour, two decimal places.
//  IsActive   – whether new bookings are accepted.
type Resource struct {
	ID         uint64          // resources.id
	Name       string          // resources.name
	Type       ResourceType    // resources.type
	Capacity   uint32          // resources.capacity
	HourlyRate decimal.Decimal // resources.hourly_rate DECIMAL(10,2)
	IsActive   bool            // resources.is_active
	CreatedAt  time.Time       // resources.created_at
	UpdatedAt  time.Time       // resources.updated_at
}
