package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"emperror.dev/errors"
	"github.com/google/go-cmp/cmp"
)

// lace returns the segment table and data of a page holding packets.
// If open is true, the last packet continues on the next page.
func lace(open bool, packets ...[]byte) (lacing, data []byte) {
	for i, p := range packets {
		n := len(p)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		if !open || i != len(packets)-1 {
			lacing = append(lacing, byte(n))
		}
		data = append(data, p...)
	}
	return lacing, data
}

// page encodes an Ogg page. Checksums are left zero.
func page(headerType byte, lacing, data []byte) []byte {
	h := make([]byte, pageHeaderSize)
	copy(h, capturePattern)
	h[5] = headerType
	binary.LittleEndian.PutUint32(h[14:], 1)
	h[26] = byte(len(lacing))

	b := append(h, lacing...)
	return append(b, data...)
}

func packetPage(packets ...[]byte) []byte {
	lacing, data := lace(false, packets...)
	return page(0, lacing, data)
}

// oggStream returns an Ogg Opus stream of n single-packet pages named name-0, name-1...
func oggStream(name string, n int) []byte {
	var b []byte
	b = append(b, packetPage([]byte("OpusHead\x01\x02"))...)
	b = append(b, packetPage([]byte("OpusTags\x00\x00"))...)
	for i := 0; i < n; i++ {
		b = append(b, packetPage([]byte(fmt.Sprintf("%s-%d", name, i)))...)
	}
	return b
}

func readAll(t *testing.T, r *OggReader) []string {
	t.Helper()

	var got []string
	for {
		p, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			return got
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, string(p))
	}
}

func TestOggReaderSkipsHeaders(t *testing.T) {
	r := NewOggReader(bytes.NewReader(oggStream("frame", 3)))

	want := []string{"frame-0", "frame-1", "frame-2"}
	if diff := cmp.Diff(want, readAll(t, r)); diff != "" {
		t.Errorf("wrong packets (-want +got):\n%s", diff)
	}
}

func TestOggReaderMultiplePacketsPerPage(t *testing.T) {
	r := NewOggReader(bytes.NewReader(packetPage([]byte("a"), []byte("bb"), []byte("ccc"))))

	want := []string{"a", "bb", "ccc"}
	if diff := cmp.Diff(want, readAll(t, r)); diff != "" {
		t.Errorf("wrong packets (-want +got):\n%s", diff)
	}
}

func TestOggReaderPacketAcrossPages(t *testing.T) {
	long := bytes.Repeat([]byte{'x'}, 600)

	var stream []byte
	lacing, data := lace(true, long[:510])
	stream = append(stream, page(0, lacing, data)...)
	lacing, data = lace(false, long[510:], []byte("next"))
	stream = append(stream, page(0x01, lacing, data)...)

	got := readAll(t, NewOggReader(bytes.NewReader(stream)))
	if len(got) != 2 {
		t.Fatalf("got %d packets, want 2", len(got))
	}
	if got[0] != string(long) {
		t.Errorf("joined packet has %d bytes, want 600", len(got[0]))
	}
	if got[1] != "next" {
		t.Errorf("second packet = %q", got[1])
	}
}

func TestOggReaderSkipsLeadingContinuation(t *testing.T) {
	// the stream starts in the middle of a 265 byte packet
	lacing := []byte{255, 10, 5}
	data := append(bytes.Repeat([]byte{'x'}, 265), []byte("fresh")...)

	got := readAll(t, NewOggReader(bytes.NewReader(page(0x01, lacing, data))))
	if diff := cmp.Diff([]string{"fresh"}, got); diff != "" {
		t.Errorf("wrong packets (-want +got):\n%s", diff)
	}
}

func TestOggReaderInvalid(t *testing.T) {
	badVersion := packetPage([]byte("hello"))
	badVersion[4] = 1

	cases := map[string][]byte{
		"not ogg":         []byte("RIFF\x00\x00\x00\x00WAVEfmt some more bytes to fill a header"),
		"truncated":       packetPage([]byte("hello"))[:pageHeaderSize+1],
		"short header":    []byte("OggS\x00"),
		"unknown version": badVersion,
	}
	for name, stream := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewOggReader(bytes.NewReader(stream)).ReadPacket()
			if !errors.Is(err, ErrInvalidPage) {
				t.Errorf("got %v, want ErrInvalidPage", err)
			}
		})
	}
}
