package model

import "time"

// KVItem is a row of the local key-value storage
type KVItem struct {
	Key       string    `json:"key" gorm:"primaryKey;size:255"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name
func (KVItem) TableName() string {
	return "kv_items"
}
