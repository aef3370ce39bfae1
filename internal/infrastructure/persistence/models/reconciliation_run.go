package models

import (
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/google/uuid"
)

// ReconciliationRunModel is the persistence model for a reconciliation run
type ReconciliationRunModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	Trigger       string     `gorm:"type:varchar(32);not null"`
	Status        string     `gorm:"type:varchar(16);not null;index"`
	Error         string     `gorm:"type:text"`
	StartedAt     time.Time  `gorm:"not null;index"`
	CompletedAt   *time.Time `gorm:""`
	OrdersScanned int        `gorm:"not null;default:0"`
	Submitted     int        `gorm:"not null;default:0"`
	Succeeded     int        `gorm:"not null;default:0"`
	Failed        int        `gorm:"not null;default:0"`
	Suppressed    int        `gorm:"not null;default:0"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReconciliationRunModel) TableName() string {
	return "reconciliation_runs"
}

// ToDomain converts the model to a scheduler run
func (m *ReconciliationRunModel) ToDomain() *scheduler.ReconciliationRun {
	run := &scheduler.ReconciliationRun{
		ID:            m.ID,
		Trigger:       scheduler.TriggerSource(m.Trigger),
		Status:        scheduler.RunStatus(m.Status),
		Error:         m.Error,
		StartedAt:     m.StartedAt,
		OrdersScanned: m.OrdersScanned,
		Submitted:     m.Submitted,
		Succeeded:     m.Succeeded,
		Failed:        m.Failed,
		Suppressed:    m.Suppressed,
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		run.CompletedAt = &t
	}
	return run
}

// FromDomain populates the model from a scheduler run
func (m *ReconciliationRunModel) FromDomain(run *scheduler.ReconciliationRun) {
	m.ID = run.ID
	m.Trigger = string(run.Trigger)
	m.Status = string(run.Status)
	m.Error = run.Error
	m.StartedAt = run.StartedAt
	m.CompletedAt = nil
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		m.CompletedAt = &t
	}
	m.OrdersScanned = run.OrdersScanned
	m.Submitted = run.Submitted
	m.Succeeded = run.Succeeded
	m.Failed = run.Failed
	m.Suppressed = run.Suppressed
}

// ReconciliationRunModelFromDomain creates a model from a scheduler run
func ReconciliationRunModelFromDomain(run *scheduler.ReconciliationRun) *ReconciliationRunModel {
	m := &ReconciliationRunModel{}
	m.FromDomain(run)
	return m
}
