package models

import "encoding/json"

// Backup code hashes are stored as JSON arrays in text columns. The helpers
// below keep the encoding in one place; plaintext codes never reach a column.

// BackupCodeHashes decodes the stored backup code hash set.
func (u *User) BackupCodeHashes() []string {
	return decodeHashes(u.MFABackupCodes)
}

// UsedBackupCodeHashes decodes the consumed hash set.
func (u *User) UsedBackupCodeHashes() []string {
	return decodeHashes(u.MFAUsedBackupCodes)
}

// EncodeHashes renders a hash set for storage.
func EncodeHashes(hashes []string) string {
	if len(hashes) == 0 {
		return ""
	}
	raw, err := json.Marshal(hashes)
	if err != nil {
		return ""
	}
	return string(raw)
}

func decodeHashes(raw string) []string {
	if raw == "" {
		return nil
	}
	var hashes []string
	if err := json.Unmarshal([]byte(raw), &hashes); err != nil {
		return nil
	}
	return hashes
}
