package badgerstore

import "encoding/json"

// userRecord is the JSON-encoded value stored under a user's username key.
type userRecord struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	PassHash   string `json:"pass_hash"`
	QuotaBytes int64  `json:"quota_bytes"`
	UsedBytes  int64  `json:"used_bytes"`
	CreatedAt  int64  `json:"created_at"`
}

// fileRecord is the JSON-encoded value stored under a file's key.
type fileRecord struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}

func encodeUser(u userRecord) ([]byte, error) {
	return json.Marshal(u)
}

func decodeUser(b []byte) (userRecord, error) {
	var u userRecord
	err := json.Unmarshal(b, &u)
	return u, err
}

func encodeFile(f fileRecord) ([]byte, error) {
	return json.Marshal(f)
}

func decodeFile(b []byte) (fileRecord, error) {
	var f fileRecord
	err := json.Unmarshal(b, &f)
	return f, err
}
