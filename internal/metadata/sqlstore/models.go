package sqlstore

// userRow mirrors the users table created by the embedded migrations.
type userRow struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	Username   string `gorm:"column:username"`
	PassHash   string `gorm:"column:pass_hash"`
	QuotaBytes int64  `gorm:"column:quota_bytes"`
	UsedBytes  int64  `gorm:"column:used_bytes"`
	CreatedAt  int64  `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

// fileRow mirrors the files table created by the embedded migrations.
type fileRow struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	UserID    int64  `gorm:"column:user_id"`
	Name      string `gorm:"column:name"`
	Size      int64  `gorm:"column:size"`
	CreatedAt int64  `gorm:"column:created_at"`
}

func (fileRow) TableName() string { return "files" }
