package models

import (
	"strings"
	"time"

	"field-service-server/scheduling"
)

// Zone is a geographic grouping used to bias crew assignment.
type Zone struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	PostalCodes string    `json:"postal_codes" gorm:"type:text"` // comma separated
	Color       string    `json:"color" gorm:"type:varchar(20)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Zone model
func (Zone) TableName() string {
	return "zones"
}

// PostalCodeList splits the stored postal codes.
func (z Zone) PostalCodeList() []string {
	return splitList(z.PostalCodes)
}

// Area converts the zone for postal-code resolution.
func (z Zone) Area() scheduling.ZoneArea {
	return scheduling.ZoneArea{ZoneID: z.ID, PostalCodes: z.PostalCodeList()}
}

// ZoneTravelTime is a directed travel-time edge between two zones.
type ZoneTravelTime struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	TenantID   uint `json:"tenant_id" gorm:"not null;uniqueIndex:idx_zone_travel_edge"`
	FromZoneID uint `json:"from_zone_id" gorm:"not null;uniqueIndex:idx_zone_travel_edge"`
	ToZoneID   uint `json:"to_zone_id" gorm:"not null;uniqueIndex:idx_zone_travel_edge"`
	Minutes    int  `json:"minutes" gorm:"not null;check:minutes >= 0"`
}

// TableName specifies the table name for the ZoneTravelTime model
func (ZoneTravelTime) TableName() string {
	return "zone_travel_times"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
