package models

import "time"

// OperatorState хранит состояние рабочего места оператора между запросами.
type OperatorState struct {
	OperatorID   int64                  `json:"operator_id"`
	BusinessDate string                 `json:"business_date"`
	ActiveStage  string                 `json:"active_stage,omitempty"`
	DrawerOpen   bool                   `json:"drawer_open,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// GetString reads a string value from Data, empty when absent.
func (s *OperatorState) GetString(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	if v, ok := s.Data[key].(string); ok {
		return v
	}
	return ""
}
