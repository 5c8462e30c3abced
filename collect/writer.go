package collect

import (
	"bufio"
	"fmt"
	"os"
)

// csvTimeLayout is the tabular-log timestamp format. The offline replayer
// accepts it alongside the bare HH:MM:SS form older captures used.
const csvTimeLayout = "20060102T15:04:05"

// DualLogWriter appends each sample to two companion logs: the raw bytes to
// a .bin file and a `timestamp,onesCount` line to a .csv file. Both files
// are opened once in append mode and never truncated. The bin append is
// flushed before the csv append, so after a crash the bin log can be ahead
// of the csv log by at most one sample and prior samples are always intact.
type DualLogWriter struct {
	BinPath string
	CSVPath string

	binFile *os.File
	csvFile *os.File
	binBuf  *bufio.Writer
	csvBuf  *bufio.Writer
}

// OpenDualLog opens (creating if needed) the log pair in append mode.
func OpenDualLog(binPath, csvPath string) (*DualLogWriter, error) {
	binFile, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open bin log: %w", err)
	}
	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = binFile.Close()
		return nil, fmt.Errorf("open csv log: %w", err)
	}
	return &DualLogWriter{
		BinPath: binPath,
		CSVPath: csvPath,
		binFile: binFile,
		csvFile: csvFile,
		binBuf:  bufio.NewWriter(binFile),
		csvBuf:  bufio.NewWriter(csvFile),
	}, nil
}

// Append persists one sample: raw bytes first, flushed, then the tabular
// record, flushed. On error the logs keep every previously appended sample.
func (w *DualLogWriter) Append(s Sample) error {
	if _, err := w.binBuf.Write(s.Raw); err != nil {
		return fmt.Errorf("write bin log: %w", err)
	}
	if err := w.binBuf.Flush(); err != nil {
		return fmt.Errorf("flush bin log: %w", err)
	}
	if _, err := fmt.Fprintf(w.csvBuf, "%s,%d\n", s.Timestamp.Format(csvTimeLayout), s.Ones); err != nil {
		return fmt.Errorf("write csv log: %w", err)
	}
	if err := w.csvBuf.Flush(); err != nil {
		return fmt.Errorf("flush csv log: %w", err)
	}
	return nil
}

// Close flushes and closes both logs. It always closes both files; the
// first error encountered is returned.
func (w *DualLogWriter) Close() error {
	var first error
	keep := func(err error) {
		if first == nil && err != nil {
			first = err
		}
	}
	keep(w.binBuf.Flush())
	keep(w.csvBuf.Flush())
	keep(w.binFile.Close())
	keep(w.csvFile.Close())
	return first
}
