package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ConcatCSV appends the tabular logs in order to outPath. Inputs must share
// the same sample size and interval for the concatenation to make sense;
// the caller checks that via the filenames. At least two inputs required.
func ConcatCSV(outPath string, inputs []string) error {
	if len(inputs) < 2 {
		return errors.New("at least 2 files required for concatenation")
	}
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, in := range inputs {
		if err := appendFile(w, in); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", outPath, err)
	}
	return nil
}

func appendFile(w *bufio.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	// Keep line structure intact even if an input lacks a trailing newline.
	if err := ensureNewline(w, f); err != nil {
		return err
	}
	return nil
}

func ensureNewline(w *bufio.Writer, f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, info.Size()-1); err != nil {
		return err
	}
	if buf[0] != '\n' {
		return w.WriteByte('\n')
	}
	return nil
}
