package models

import "time"

// TransferDirection labels which way bytes moved during a transfer.
type TransferDirection string

const (
	// DirectionUpload is client to server.
	DirectionUpload TransferDirection = "upload"
	// DirectionDownload is server to client.
	DirectionDownload TransferDirection = "download"
)

// Connection is the audit record of one authenticated SFTP session.
//
// It is created the moment authentication succeeds and the SFTP channel is
// ready, mutated only by its owning session, and finalized exactly once when
// the session ends. While the session is live, Active is true and EndedAt is
// nil. The byte totals on a finalized record equal the sum of the sizes of
// its transfer records in each direction.
type Connection struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"index:idx_connections_user_active;size:36" json:"user_id"`
	Username        string     `gorm:"size:255" json:"username"`
	ClientAddr      string     `gorm:"size:255" json:"client_addr"`
	RemoteIP        string     `gorm:"size:64" json:"remote_ip"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Active          bool       `gorm:"index:idx_connections_user_active" json:"active"`
	BytesUploaded   int64      `json:"bytes_uploaded"`
	BytesDownloaded int64      `json:"bytes_downloaded"`
}

// TableName returns the table name for Connection.
func (Connection) TableName() string {
	return "connections"
}

// Transfer is the audit record of one metered read or write. Size is always
// strictly positive; zero-length reads and writes are never recorded. Path is
// the canonical virtual path the client used, not the host path.
type Transfer struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ConnectionID string    `gorm:"index:idx_transfers_conn_ts;size:36" json:"connection_id"`
	Username     string    `gorm:"size:255" json:"username"`
	Path         string    `gorm:"size:1024" json:"path"`
	Direction    string    `gorm:"size:16" json:"direction"`
	Size         int64     `json:"size"`
	Timestamp    time.Time `gorm:"index:idx_transfers_conn_ts" json:"timestamp"`
}

// TableName returns the table name for Transfer.
func (Transfer) TableName() string {
	return "transfers"
}

// UserSummary aggregates a user's finished connections for the analytics API.
type UserSummary struct {
	Username      string `json:"username"`
	TotalUpload   int64  `json:"total_upload"`
	TotalDownload int64  `json:"total_download"`
	SessionCount  int64  `json:"session_count"`
	TransferCount int64  `json:"transfer_count"`
}

// Summary is the global analytics roll-up served by the admin API.
type Summary struct {
	TotalConnections  int64         `json:"total_connections"`
	ActiveConnections int64         `json:"active_connections"`
	TotalUpload       int64         `json:"total_upload"`
	TotalDownload     int64         `json:"total_download"`
	Users             []UserSummary `json:"users"`
}

// AllModels returns every persistent model, in migration order.
func AllModels() []any {
	return []any{&User{}, &Connection{}, &Transfer{}}
}
