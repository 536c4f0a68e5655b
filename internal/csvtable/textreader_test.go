package csvtable

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestTextReader_BOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "A,B"...), "A,B"},
		{"without BOM", []byte("A,B"), "A,B"},
		{"empty", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial BOM", []byte{0xEF, 0xBB, 'a'}, "??a"},
		{"BOM only stripped once", []byte{0xEF, 0xBB, 0xBF, 0xEF, 0xBB, 0xBF, 'x'}, "\ufeffx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewTextReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTextReader_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("Team,GF%"), "Team,GF%"},
		{"multibyte kept", []byte("Montréal,Québec"), "Montréal,Québec"},
		{"invalid byte", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"truncated sequence at EOF", []byte{'a', 0xE2, 0x82}, "a??"},
		{"lone lead byte mid-stream", []byte{'a', 0xC3, 'b'}, "a?b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewTextReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTextReader_SplitSequences(t *testing.T) {
	input := strings.Repeat("Lévis,Zürich,€5\n", 200)

	// OneByteReader forces every multi-byte rune to straddle reads.
	r := NewTextReader(iotest.OneByteReader(strings.NewReader(input)))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != input {
		t.Errorf("output differs from valid input (len %d vs %d)", len(got), len(input))
	}
	if r.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", r.BytesRead(), len(input))
	}
}

func TestTextReader_SmallBuffer(t *testing.T) {
	input := "a€b"
	r := NewTextReader(iotest.HalfReader(strings.NewReader(input)))

	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if string(out) != input {
		t.Errorf("got %q, want %q", out, input)
	}
}

func TestCapReader(t *testing.T) {
	got, err := io.ReadAll(newCapReader(strings.NewReader("12345"), 5))
	if err != nil {
		t.Fatalf("exact size should pass: %v", err)
	}
	if string(got) != "12345" {
		t.Errorf("got %q", got)
	}

	_, err = io.ReadAll(newCapReader(strings.NewReader("123456"), 5))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("err = %v, want ErrPayloadTooLarge", err)
	}
}
