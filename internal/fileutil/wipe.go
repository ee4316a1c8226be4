package fileutil

import (
	"errors"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v4/disk"
)

const defaultChunkSize = 1 << 20

// Wiper overwrites the free space of the filesystem holding Dir by filling
// a temporary file until the disk is full, then deleting it.
type Wiper struct {
	Dir string

	// ChunkSize is the write unit, 1 MiB when zero.
	ChunkSize int

	// Limit caps the number of bytes written; zero means until full.
	Limit int64

	// ReportEvery is the number of chunks between progress reports.
	ReportEvery int
}

// Wipe runs the wipe, calling progress with a fraction in [0,1] every few
// chunks. When progress returns false the wipe stops early. The temporary
// file is always removed. It returns the number of bytes overwritten.
func (w Wiper) Wipe(progress func(float64) bool) (int64, error) {
	chunk := w.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	every := w.ReportEvery
	if every <= 0 {
		every = 64
	}

	target := w.Limit
	if usage, err := disk.Usage(w.Dir); err == nil {
		if target == 0 || int64(usage.Free) < target {
			target = int64(usage.Free)
		}
	}

	f, err := os.CreateTemp(w.Dir, ".cleanml-wipe-")
	if err != nil {
		return 0, err
	}
	name := f.Name()
	defer os.Remove(name)
	defer f.Close()

	buf := make([]byte, chunk)
	var written int64
	for n := 1; w.Limit == 0 || written < w.Limit; n++ {
		size := len(buf)
		if w.Limit > 0 && w.Limit-written < int64(size) {
			size = int(w.Limit - written)
		}
		m, err := f.Write(buf[:size])
		written += int64(m)
		if err != nil {
			if isDiskFull(err) {
				break
			}
			return written, err
		}
		if n%every == 0 && progress != nil {
			frac := 1.0
			if target > 0 && written < target {
				frac = float64(written) / float64(target)
			}
			if !progress(frac) {
				return written, nil
			}
		}
	}
	if err := f.Sync(); err != nil && !isDiskFull(err) {
		return written, err
	}
	return written, nil
}

func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}
