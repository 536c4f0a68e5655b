package csvtable

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/statstable/internal/logging"
	"github.com/h2non/filetype"
	"golang.org/x/sync/singleflight"
)

// sniffLen is how many leading bytes filetype needs to recognise a format.
const sniffLen = 261

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
)

// Options configure a Service. Zero values fall back to the defaults.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Service loads snapshots from one Source.
type Service struct {
	source   Source
	timeout  time.Duration
	maxBytes int64

	group  singleflight.Group
	latest atomic.Pointer[Snapshot]
}

// NewService creates a Service reading from src.
func NewService(src Source, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Service{
		source:   src,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
	}
}

// Source returns the configured source.
func (s *Service) Source() Source {
	return s.source
}

// Latest returns the most recent successful snapshot, or nil.
func (s *Service) Latest() *Snapshot {
	return s.latest.Load()
}

// Load fetches and parses the source. Callers that arrive while a fetch is
// in flight wait for it instead of starting another one. The fetch itself
// is bounded by the service timeout and is not cancelled when one waiting
// caller goes away; ctx only bounds how long this caller waits.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	ch := s.group.DoChan(s.source.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logging.FromContext(ctx).Debug("snapshot fetch shared", "source", s.source.String())
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	log := logging.WithFields(ctx, "source", s.source.String())
	start := time.Now()

	body, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	br := bufio.NewReaderSize(newCapReader(body, s.maxBytes), 64<<10)
	if err := checkText(br); err != nil {
		return nil, err
	}

	text := NewTextReader(br)
	snap, err := Parse(text, s.source.String())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.source, err)
	}

	for _, w := range snap.Warnings {
		log.Warn("csv record reshaped", "detail", w)
	}
	log.Info("snapshot loaded",
		"snapshot_id", snap.ID.String(),
		"columns", len(snap.Columns),
		"rows", len(snap.Rows),
		"bytes", text.BytesRead(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.latest.Store(snap)
	return snap, nil
}

// checkText rejects payloads whose leading bytes are not text: a NUL byte,
// or invalid UTF-8 that filetype recognises as a binary format. Text that
// only happens to start with a magic number (a "BM" or "ID3" header) passes.
func checkText(br *bufio.Reader) error {
	head, _ := br.Peek(sniffLen)
	if len(head) == 0 {
		return nil
	}
	if bytes.IndexByte(head, 0) < 0 && utf8.Valid(trimPartialRune(head)) {
		return nil
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		if bytes.IndexByte(head, 0) >= 0 {
			return fmt.Errorf("%w (NUL bytes)", ErrBinaryPayload)
		}
		return nil
	}
	if kind.MIME.Type == "text" {
		return nil
	}
	return fmt.Errorf("%w (%s)", ErrBinaryPayload, kind.MIME.Value)
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if !utf8.FullRune(b[len(b)-i:]) {
			return b[:len(b)-i]
		}
		break
	}
	return b
}
