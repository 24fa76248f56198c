package model

import (
	"time"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
)

// DeployRecord is one entry in the append-only audit trail of deploy
// attempts. Rows are never updated after insert.
type DeployRecord struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	DeviceID      string `gorm:"index"`
	TargetVersion int64
	Accepted      bool
	Message       string
	CreatedAt     time.Time
}

func (r *DeployRecord) ToApiResource() api.DeployHistoryEntry {
	return api.DeployHistoryEntry{
		DeviceId:      r.DeviceID,
		TargetVersion: r.TargetVersion,
		Accepted:      r.Accepted,
		Message:       r.Message,
		Time:          r.CreatedAt,
	}
}
