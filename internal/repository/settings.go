package repository

import "context"

// SettingsRepository is a key-value store for application settings such as
// the backup configuration and the customer custom-field allow-list.
type SettingsRepository interface {
	// Get returns the value for key, or a no-rows error when unset.
	Get(ctx context.Context, key string) (string, error)

	// Put upserts the value for key.
	Put(ctx context.Context, key, value string) error
}

// Well-known settings keys.
const (
	SettingBackupConfig      = "backup_config"
	SettingCustomFieldSchema = "customer_custom_fields"
)
