package pipeline

import "cabwatch/pkg/models"

// AlertWriter archives accepted alert records.
type AlertWriter interface {
	WriteAlerts(records []models.AlertRecord) error
	Close() error
}
