package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/c360/ringkit/errors"
)

// maxLineSize bounds a single line. A longer line stops the source with an
// invalid error wrapping bufio.ErrTooLong.
const maxLineSize = 1 << 20

// FileSource reads lines from a file or stdin. In follow mode it keeps reading
// as the file grows, starts over when it is truncated and reopens it when it is
// recreated, like tail -F.
//
// Cancelling the context closes the input when it is an io.Closer, which
// unblocks a pending read on a pipe or file. Any other reader set with
// WithStdin is only checked for cancellation between lines.
type FileSource struct {
	base
	path   string
	follow bool
	stdin  io.Reader
}

// NewFileSource creates a file source. An empty path or "-" reads stdin.
func NewFileSource(path string, follow bool, opts ...Option) *FileSource {
	o := applyOptions(opts)
	return &FileSource{
		base:   newBase("file", o),
		path:   path,
		follow: follow,
		stdin:  o.stdin,
	}
}

// Run implements Source.
func (s *FileSource) Run(ctx context.Context, emit Emit) error {
	if s.path == "" || s.path == "-" {
		return s.scan(ctx, s.stdin, emit)
	}

	f, err := os.Open(s.path)
	if err != nil {
		s.trackError("open")
		return errors.WrapInvalid(err, "FileSource", "Run", "open file")
	}

	if !s.follow {
		defer f.Close()
		return s.scan(ctx, f, emit)
	}
	return s.tail(ctx, f, emit)
}

func (s *FileSource) scan(ctx context.Context, r io.Reader, emit Emit) error {
	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.emitLine(emit, scanner.Text()); err != nil {
			return err
		}
	}

	err := scanner.Err()
	switch {
	case err == nil, ctx.Err() != nil:
		return nil
	case err == bufio.ErrTooLong:
		s.trackError("line_too_long")
		return lineTooLong("read lines")
	default:
		s.trackError("read")
		return errors.WrapTransient(err, "FileSource", "Run", "read lines")
	}
}

func lineTooLong(action string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: line exceeds %d bytes: %w", errors.ErrInvalidData, maxLineSize, bufio.ErrTooLong),
		"FileSource", "Run", action)
}

// follower holds the state of a followed file between fsnotify events.
type follower struct {
	src     *FileSource
	f       *os.File
	reader  *bufio.Reader
	partial strings.Builder
	emit    Emit
}

// drain emits every complete line available. An unterminated tail is kept
// until its newline arrives, up to maxLineSize bytes.
func (fl *follower) drain() error {
	for {
		chunk, err := fl.reader.ReadSlice('\n')
		fl.partial.Write(chunk)

		size := fl.partial.Len()
		if err == nil {
			size-- // newline
		}
		if size >= maxLineSize {
			fl.src.trackError("line_too_long")
			return lineTooLong("read followed file")
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			return nil
		case err != nil:
			fl.src.trackError("read")
			return errors.WrapTransient(err, "FileSource", "Run", "read followed file")
		}

		line := strings.TrimSuffix(strings.TrimSuffix(fl.partial.String(), "\n"), "\r")
		fl.partial.Reset()
		if err := fl.src.emitLine(fl.emit, line); err != nil {
			return err
		}
	}
}

// truncated reports whether the file shrank below the read position.
func (fl *follower) truncated() bool {
	info, err := fl.f.Stat()
	if err != nil {
		return false
	}
	pos, err := fl.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	return info.Size() < pos-int64(fl.reader.Buffered())
}

func (fl *follower) restart() error {
	if _, err := fl.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	fl.reader.Reset(fl.f)
	fl.partial.Reset()
	return nil
}

func (fl *follower) reopen(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	_ = fl.f.Close()
	fl.f = f
	fl.reader.Reset(f)
	fl.partial.Reset()
	return nil
}

func (s *FileSource) tail(ctx context.Context, f *os.File, emit Emit) error {
	fl := &follower{src: s, f: f, reader: bufio.NewReader(f), emit: emit}
	defer func() { _ = fl.f.Close() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.trackError("watch")
		return errors.WrapFatal(err, "FileSource", "Run", "create watcher")
	}
	defer watcher.Close()

	// Watch the directory so the file can be followed across rename and recreate.
	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.trackError("watch")
		return errors.WrapFatal(err, "FileSource", "Run", "watch directory")
	}

	if err := fl.drain(); err != nil {
		return err
	}
	s.logger.Debug("following file", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			switch {
			case event.Has(fsnotify.Create):
				if err := fl.reopen(target); err != nil {
					s.trackError("reopen")
					s.logger.Warn("reopen failed", "path", target, "error", err)
					continue
				}
				s.logger.Info("file recreated, reading from start", "path", target)
			case event.Has(fsnotify.Write):
				if fl.truncated() {
					if err := fl.restart(); err != nil {
						s.trackError("seek")
						return errors.WrapTransient(err, "FileSource", "Run", "restart truncated file")
					}
					s.logger.Info("file truncated, reading from start", "path", target)
				}
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				s.logger.Debug("file moved away, waiting for it to reappear", "path", target)
				continue
			default:
				continue
			}

			if err := fl.drain(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.trackError("watch")
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
