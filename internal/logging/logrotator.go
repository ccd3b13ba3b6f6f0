// Package logging provides the daily-rotating, gzip-compressing log
// writer used by the BaseStation writer.
package logging

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogRotator writes to a date-stamped log file, rotating to a new file
// at each date boundary and gzip-compressing the file it rotates away
// from.
type LogRotator struct {
	logDir      string
	useUTC      bool
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewLogRotator creates the log directory if needed and opens today's
// log file.
func NewLogRotator(logDir string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &LogRotator{
		logDir: logDir,
		useUTC: useUTC,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := r.rotateLogFile(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}
	return r, nil
}

// Start runs the rotation scheduler until ctx or the rotator's own
// context is cancelled; call it from a goroutine.
func (r *LogRotator) Start(ctx context.Context) {
	r.logger.Info("Starting log rotator")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *LogRotator) now() time.Time {
	if r.useUTC {
		return time.Now().UTC()
	}
	return time.Now()
}

func (r *LogRotator) checkRotation() {
	currentDate := r.now().Format("2006-01-02")

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentDate == currentDate {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"old_date": r.currentDate,
		"new_date": currentDate,
	}).Info("Rotating log file")

	if err := r.rotateLogFile(); err != nil {
		r.logger.WithError(err).Error("Failed to rotate log file")
	}
}

// rotateLogFile closes and compresses the current file (if any) and
// opens a fresh file for today's date. Callers must hold r.mutex, or
// be NewLogRotator before any other goroutine has a handle on r.
func (r *LogRotator) rotateLogFile() error {
	newDate := r.now().Format("2006-01-02")

	if r.currentFile != nil {
		oldFile, oldDate := r.currentFile, r.currentDate
		if err := oldFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		go r.compressLogFile(oldDate)
	}

	path := filepath.Join(r.logDir, fmt.Sprintf("adsb_%s.log", newDate))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentDate = newDate
	r.logger.WithField("file", path).Info("Created new log file")
	return nil
}

// compressLogFile gzips the log file for date and removes the
// uncompressed original. Runs in its own goroutine from rotateLogFile,
// so failures are logged rather than returned.
func (r *LogRotator) compressLogFile(date string) {
	logFile := filepath.Join(r.logDir, fmt.Sprintf("adsb_%s.log", date))
	gzipFile := filepath.Join(r.logDir, fmt.Sprintf("adsb_%s.log.gz", date))

	r.logger.WithFields(logrus.Fields{"source": logFile, "target": gzipFile}).Info("Compressing log file")

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		r.logger.WithField("file", logFile).Debug("Log file doesn't exist, skipping compression")
		return
	}

	src, err := os.Open(logFile)
	if err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to open source file for compression")
		return
	}
	defer src.Close()

	dst, err := os.Create(gzipFile)
	if err != nil {
		r.logger.WithError(err).WithField("file", gzipFile).Error("Failed to create compressed file")
		return
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	gzWriter.Name = filepath.Base(logFile)
	gzWriter.ModTime = time.Now()

	if _, err := io.Copy(gzWriter, src); err != nil {
		r.logger.WithError(err).Error("Failed to compress log file")
		return
	}
	if err := gzWriter.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close gzip writer")
		return
	}
	if err := dst.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close compressed file")
		return
	}
	if err := os.Remove(logFile); err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to remove original log file")
		return
	}

	r.logger.WithField("file", gzipFile).Info("Log file compressed successfully")
}

// GetWriter returns the currently open log file for writing.
func (r *LogRotator) GetWriter() (io.Writer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return nil, fmt.Errorf("no current log file")
	}
	return r.currentFile, nil
}

// Close stops the rotation scheduler and closes the current file.
func (r *LogRotator) Close() error {
	r.logger.Info("Closing log rotator")
	r.cancel()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return nil
	}
	if err := r.currentFile.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close current log file")
		return err
	}
	r.currentFile = nil
	return nil
}

// GetCurrentLogFile returns the path of the file currently being
// written to.
func (r *LogRotator) GetCurrentLogFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return filepath.Join(r.logDir, fmt.Sprintf("adsb_%s.log", r.currentDate))
}

// GetLogFiles lists every log file in the log directory, compressed or
// not.
func (r *LogRotator) GetLogFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.logDir, "adsb_*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs removes log files (other than the current one) whose
// modification time is older than maxDays.
func (r *LogRotator) CleanupOldLogs(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("maxDays must be positive")
	}

	files, err := r.GetLogFiles()
	if err != nil {
		return fmt.Errorf("failed to get log files: %w", err)
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.GetCurrentLogFile()
	removed := 0

	for _, file := range files {
		if file == current {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat log file")
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old log file")
				continue
			}
			r.logger.WithField("file", file).Info("Removed old log file")
			removed++
		}
	}

	r.logger.WithField("count", removed).Info("Cleaned up old log files")
	return nil
}
