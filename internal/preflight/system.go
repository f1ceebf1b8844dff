package preflight

import (
	"fmt"
	"syscall"
)

const (
	// MinDiskSpaceBytes is the default free space required under the data dir.
	MinDiskSpaceBytes = 100 * 1024 * 1024

	// MinFileDescriptors covers the SQLite pool plus a bleve index.
	MinFileDescriptors = 256
)

// CheckDiskSpace checks the free space of the filesystem holding path.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{Name: "disk_space", Required: true}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	available := stat.Bavail * uint64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum: %s)", formatBytes(available), formatBytes(c.minDiskBytes))
	if available < c.minDiskBytes {
		result.Status = StatusFail
		result.Details = "Point --data-dir or PATROLOGY_DATA_DIR at a larger volume"
		return result
	}
	result.Status = StatusPass
	return result
}

// CheckFileDescriptors checks the soft RLIMIT_NOFILE.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{Name: "file_descriptors", Required: false}

	var rl syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to read limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rl.Cur, c.minFDs)
	if uint64(rl.Cur) < c.minFDs {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 1024' before indexing large corpora"
		return result
	}
	result.Status = StatusPass
	return result
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/gb)
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/mb)
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/kb)
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
