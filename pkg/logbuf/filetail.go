package logbuf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/modoterra/bugreport/pkg/core"
)

const tailPollInterval = 250 * time.Millisecond

// ImportTail records the last n lines of the file at path into buf, so an
// application's own log file ends up in the report's error log. It returns
// the number of lines recorded.
func ImportTail(path string, n int, buf *Buffer, source string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if n <= 0 {
		return 0, nil
	}
	ring := make([]string, n)
	total := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ring[total%n] = sc.Text()
		total++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	count := min(total, n)
	for i := total - count; i < total; i++ {
		buf.Record(fileLine(ring[i%n], source))
	}
	return count, nil
}

// Follow records lines appended to the file at path until ctx is done. A
// file that shrinks is assumed rotated and read again from the start.
func Follow(ctx context.Context, path string, buf *Buffer, source string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek %s: %w", path, err)
	}
	logger.Debug("following file", "path", path)

	reader := bufio.NewReader(f)
	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			partial += line
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(tailPollInterval):
			}
			rotated, rerr := checkRotation(f)
			if rerr != nil {
				logger.Warn("checking followed file failed", "path", path, "err", rerr)
				continue
			}
			if rotated {
				logger.Debug("followed file truncated, reading from start", "path", path)
				reader.Reset(f)
				partial = ""
			}
			continue
		}

		buf.Record(fileLine(partial+strings.TrimRight(line, "\r\n"), source))
		partial = ""
	}
}

type seekStater interface {
	Stat() (os.FileInfo, error)
	Seek(offset int64, whence int) (int64, error)
}

// checkRotation rewinds f when it has shrunk below the read position.
func checkRotation(f seekStater) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, fmt.Errorf("seek: %w", err)
	}
	if info.Size() >= pos {
		return false, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewind: %w", err)
	}
	return true, nil
}

func fileLine(text, source string) core.LogLine {
	return core.LogLine{Level: guessLevel(text), Source: source, Message: text}
}

// guessLevel picks the level from the first level word in a free-form log
// line, defaulting to info.
func guessLevel(text string) core.Level {
	upper := strings.ToUpper(text)
	best, bestAt := core.LevelInfo, -1
	for _, c := range []struct {
		word  string
		level core.Level
	}{
		{"ERROR", core.LevelError},
		{"FATAL", core.LevelError},
		{"PANIC", core.LevelError},
		{"WARN", core.LevelWarn},
		{"DEBUG", core.LevelDebug},
		{"TRACE", core.LevelDebug},
	} {
		if i := strings.Index(upper, c.word); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = c.level, i
		}
	}
	return best
}
