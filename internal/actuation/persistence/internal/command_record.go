package internal

import (
	"turret-server/internal/actuation/domain"
	"turret-server/internal/infra/utils"
)

type CommandRecordSet []CommandRecord

func (CommandRecordSet) TableName() string {
	return "command_log"
}

func (s CommandRecordSet) ToDomain() []domain.CommandRecord {
	result := make([]domain.CommandRecord, len(s))
	for i, v := range s {
		result[i] = v.ToDomain()
	}

	return result
}

type CommandRecord struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Resource   string     `json:"resource" gorm:"index"`
	Command    string     `json:"command"`
	Args       string     `json:"args"`
	OK         bool       `json:"ok"`
	Error      string     `json:"error"`
	DurationMs int64      `json:"duration_ms"`
	IssuedAt   utils.Time `json:"issued_at" gorm:"index"`
}

func (CommandRecord) TableName() string {
	return "command_log"
}

func (r CommandRecord) ToDomain() domain.CommandRecord {
	return domain.CommandRecord{
		ID:       r.ID,
		Resource: r.Resource,
		Command:  r.Command,
		Args:     r.Args,
		OK:       r.OK,
		Error:    r.Error,
		Duration: r.DurationMs,
		IssuedAt: r.IssuedAt,
	}
}

func FromCommandRecord(record domain.CommandRecord) CommandRecord {
	return CommandRecord{
		ID:         record.ID,
		Resource:   record.Resource,
		Command:    record.Command,
		Args:       record.Args,
		OK:         record.OK,
		Error:      record.Error,
		DurationMs: record.Duration,
		IssuedAt:   record.IssuedAt,
	}
}
