package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

func (s *GORMStore) InsertConnection(ctx context.Context, conn *models.Connection) (string, error) {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.StartedAt.IsZero() {
		conn.StartedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		return "", err
	}
	return conn.ID, nil
}

func (s *GORMStore) FinalizeConnection(ctx context.Context, id string, endedAt time.Time, uploaded, downloaded int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ended_at":         endedAt,
			"active":           false,
			"bytes_uploaded":   uploaded,
			"bytes_downloaded": downloaded,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrConnectionNotFound
	}
	return nil
}

func (s *GORMStore) InsertTransfers(ctx context.Context, batch []models.Transfer) error {
	if len(batch) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&batch).Error
}

func (s *GORMStore) ListConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var conns []*models.Connection
	if err := q.Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *GORMStore) Summaries(ctx context.Context, userID string) (*models.Summary, error) {
	connQ := s.db.WithContext(ctx).Model(&models.Connection{})
	xferQ := s.db.WithContext(ctx).Model(&models.Transfer{})
	if userID != "" {
		connQ = connQ.Where("user_id = ?", userID)

		var user models.User
		if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
			return nil, convertNotFoundError(err, models.ErrUserNotFound)
		}
		xferQ = xferQ.Where("username = ?", user.Username)
	}

	var rows []models.UserSummary
	err := connQ.
		Select("username, SUM(bytes_uploaded) AS total_upload, SUM(bytes_downloaded) AS total_download, COUNT(*) AS session_count").
		Group("username").
		Order("username").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type countRow struct {
		Username string
		Count    int64
	}
	var counts []countRow
	err = xferQ.
		Select("username, COUNT(*) AS count").
		Group("username").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	transferCounts := make(map[string]int64, len(counts))
	for _, c := range counts {
		transferCounts[c.Username] = c.Count
	}

	summary := &models.Summary{Users: rows}
	for i := range summary.Users {
		u := &summary.Users[i]
		u.TransferCount = transferCounts[u.Username]
		summary.TotalUpload += u.TotalUpload
		summary.TotalDownload += u.TotalDownload
		summary.TotalConnections += u.SessionCount
	}

	activeQ := s.db.WithContext(ctx).Model(&models.Connection{}).Where("active = ?", true)
	if userID != "" {
		activeQ = activeQ.Where("user_id = ?", userID)
	}
	if err := activeQ.Count(&summary.ActiveConnections).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
