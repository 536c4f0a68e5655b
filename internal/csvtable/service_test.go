package csvtable

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves a fixed payload and counts fetches.
type stubSource struct {
	payload string
	err     error
	fetches atomic.Int32
	gate    chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	s.fetches.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.payload)), nil
}

func (s *stubSource) String() string { return "stub" }

func TestService_Load(t *testing.T) {
	src := &stubSource{payload: "\xEF\xBB\xBFA,B\n1,2\n"}
	svc := NewService(src, Options{})

	assert.Nil(t, svc.Latest())

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, snap.Columns)
	assert.Equal(t, "stub", snap.Source)
	assert.Same(t, snap, svc.Latest())
}

func TestService_ReplacesSnapshotWholesale(t *testing.T) {
	src := &stubSource{payload: "A\n1\n2\n"}
	svc := NewService(src, Options{})

	first, err := svc.Load(context.Background())
	require.NoError(t, err)

	src.payload = "B\nx\n"
	second, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"B"}, second.Columns)
	assert.Len(t, second.Rows, 1)
	assert.Same(t, second, svc.Latest())

	// the earlier snapshot is untouched
	assert.Equal(t, []string{"A"}, first.Columns)
	assert.Len(t, first.Rows, 2)
}

func TestService_FailureKeepsLatest(t *testing.T) {
	src := &stubSource{payload: "A\n1\n"}
	svc := NewService(src, Options{})

	good, err := svc.Load(context.Background())
	require.NoError(t, err)

	src.err = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	_, err = svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "SRC002", MapError(err).Code)
	assert.Same(t, good, svc.Latest())
}

func TestService_SharesInFlightFetch(t *testing.T) {
	src := &stubSource{payload: "A\n1\n", gate: make(chan struct{})}
	svc := NewService(src, Options{Timeout: 5 * time.Second})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Load(context.Background())
		}(i)
	}

	// wait until the first fetch is blocked on the gate and give the other
	// callers time to join it
	require.Eventually(t, func() bool { return src.fetches.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.fetches.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestService_CallerCancellation(t *testing.T) {
	src := &stubSource{payload: "A\n1\n", gate: make(chan struct{})}
	svc := NewService(src, Options{Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return src.fetches.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	// the fetch keeps going for other callers
	close(src.gate)
	require.Eventually(t, func() bool { return svc.Latest() != nil }, time.Second, time.Millisecond)
}

func TestService_Timeout(t *testing.T) {
	src := &stubSource{payload: "A\n1\n", gate: make(chan struct{})}
	svc := NewService(src, Options{Timeout: 20 * time.Millisecond})

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "REQ002", MapError(err).Code)
}

func TestService_RejectsBinaryPayload(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR" + strings.Repeat("\x00", 64)
	svc := NewService(&stubSource{payload: png}, Options{})

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinaryPayload))
	assert.Contains(t, err.Error(), "image/png")
	assert.Equal(t, "CSV003", MapError(err).Code)
}

func TestService_TextWithMagicPrefixLoads(t *testing.T) {
	for _, payload := range []string{
		"BMI,Weight\n22,70\n",
		"MZ_score,Team\n1,BOS\n",
		"ID3,Name\n7,Woll\n",
		"PK,Team\n1,BOS\n",
	} {
		snap, err := NewService(&stubSource{payload: payload}, Options{}).Load(context.Background())
		require.NoError(t, err, payload)
		assert.Len(t, snap.Columns, 2, payload)
		assert.Len(t, snap.Rows, 1, payload)
	}
}

func TestService_RejectsZipPayload(t *testing.T) {
	zip := "PK\x03\x04\x14\x00\x00\x00\x08\x00" + strings.Repeat("\x00", 32)
	_, err := NewService(&stubSource{payload: zip}, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinaryPayload))
}

func TestService_RejectsNULBytes(t *testing.T) {
	_, err := NewService(&stubSource{payload: "A,B\n1,\x002\n"}, Options{}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrBinaryPayload))
}

func TestService_SniffBoundarySplitsRune(t *testing.T) {
	// The sniffed head ends in the middle of a two-byte rune.
	payload := "A\n" + strings.Repeat("é", 200) + "\n"
	snap, err := NewService(&stubSource{payload: payload}, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, snap.Columns)
}

func TestService_Latin1Loads(t *testing.T) {
	snap, err := NewService(&stubSource{payload: "Team\nMontr\xe9al\n"}, Options{}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
}

func TestService_RejectsOversizedPayload(t *testing.T) {
	payload := "A,B\n" + strings.Repeat("1,2\n", 100)
	svc := NewService(&stubSource{payload: payload}, Options{MaxBytes: 64})

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
}

func TestService_EmptyPayload(t *testing.T) {
	svc := NewService(&stubSource{payload: ""}, Options{})

	_, err := svc.Load(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCSV))
	assert.Equal(t, "CSV001", MapError(err).Code)
}

func TestService_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "Team,CF%,Goalie\nBoston Bruins,3,Jeremy Swayman\n,,\nToronto Maple Leafs,7,Joseph Woll\n")
	}))
	defer srv.Close()

	src, err := NewSource("/result.csv", SourceOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	snap, err := NewService(src, Options{}).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rows, 3)
	v, _ := snap.Value(2, "Goalie")
	assert.Equal(t, "Joseph Woll", v)
	assert.Equal(t, []string{"", "", ""}, snap.Rows[1].Values)
}
