package sftpd

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// transferLog owns one session's byte counters and pending transfer records.
// The SFTP framing layer may dispatch requests for one session on a worker
// pool, so the counters are atomic and the pending slice is mutex-protected.
//
// When telemetry is disabled (connection record insert failed) nothing is
// recorded at all.
type transferLog struct {
	username string
	enabled  atomic.Bool

	uploaded   atomic.Int64
	downloaded atomic.Int64

	mu      sync.Mutex
	pending []models.Transfer
}

func newTransferLog(username string) *transferLog {
	l := &transferLog{username: username}
	l.enabled.Store(true)
	return l
}

// Disable stops all recording. Used when the session is demoted because its
// connection record could not be persisted.
func (l *transferLog) Disable() {
	l.enabled.Store(false)
}

func (l *transferLog) RecordUpload(path string, n int64) {
	l.record(path, models.DirectionUpload, n, &l.uploaded)
}

func (l *transferLog) RecordDownload(path string, n int64) {
	l.record(path, models.DirectionDownload, n, &l.downloaded)
}

func (l *transferLog) record(path string, direction models.TransferDirection, n int64, counter *atomic.Int64) {
	if n <= 0 || !l.enabled.Load() {
		return
	}
	counter.Add(n)

	l.mu.Lock()
	l.pending = append(l.pending, models.Transfer{
		Username:  l.username,
		Path:      path,
		Direction: string(direction),
		Size:      n,
		Timestamp: time.Now().UTC(),
	})
	l.mu.Unlock()
}

// Totals returns the accumulated upload and download byte counts.
func (l *transferLog) Totals() (uploaded, downloaded int64) {
	return l.uploaded.Load(), l.downloaded.Load()
}

// Drain stamps the connection id on the buffered records and hands them off,
// leaving the log empty.
func (l *transferLog) Drain(connectionID string) []models.Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	for i := range batch {
		batch[i].ConnectionID = connectionID
	}
	return batch
}

// meteredReader is the download side of a metered file handle. Every
// successful read of N>0 bytes records a download transfer of size N against
// the canonical virtual path captured at open time.
type meteredReader struct {
	f    *os.File
	path string
	log  *transferLog
	once sync.Once
}

func (m *meteredReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := m.f.ReadAt(p, off)
	if n > 0 {
		m.log.RecordDownload(m.path, int64(n))
	}
	return n, err
}

// Close is idempotent and never records a transfer.
func (m *meteredReader) Close() error {
	var err error
	m.once.Do(func() { err = m.f.Close() })
	return err
}

// meteredWriter is the upload side of a metered file handle.
type meteredWriter struct {
	f    *os.File
	path string
	log  *transferLog
	once sync.Once
}

func (m *meteredWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := m.f.WriteAt(p, off)
	if n > 0 {
		m.log.RecordUpload(m.path, int64(n))
	}
	return n, err
}

func (m *meteredWriter) Close() error {
	var err error
	m.once.Do(func() { err = m.f.Close() })
	return err
}

// meteredFile meters both sides of a read-write handle. Each side feeds its
// own counter, so a byte stream is never double-counted.
type meteredFile struct {
	f    *os.File
	path string
	log  *transferLog
	once sync.Once
}

func (m *meteredFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := m.f.ReadAt(p, off)
	if n > 0 {
		m.log.RecordDownload(m.path, int64(n))
	}
	return n, err
}

func (m *meteredFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := m.f.WriteAt(p, off)
	if n > 0 {
		m.log.RecordUpload(m.path, int64(n))
	}
	return n, err
}

func (m *meteredFile) Close() error {
	var err error
	m.once.Do(func() { err = m.f.Close() })
	return err
}
