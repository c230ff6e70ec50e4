package audio

import (
	"bufio"
	"bytes"
	"io"

	"emperror.dev/errors"
)

// ErrInvalidPage is returned when a stream isn't made of Ogg pages.
const ErrInvalidPage = errors.Sentinel("invalid ogg page")

var capturePattern = []byte("OggS")

const pageHeaderSize = 27

// OggReader reads Opus packets from an Ogg stream, such as ffmpeg's "-f opus" output.
// The OpusHead and OpusTags header packets are skipped. Page checksums are not verified.
type OggReader struct {
	r *bufio.Reader

	header  [pageHeaderSize]byte
	lacing  [255]byte
	packets [][]byte
	partial []byte
}

// NewOggReader returns a reader reading pages from r.
func NewOggReader(r io.Reader) *OggReader {
	return &OggReader{r: bufio.NewReader(r)}
}

// ReadPacket returns the next audio packet.
// It returns io.EOF at the end of the stream.
func (o *OggReader) ReadPacket() ([]byte, error) {
	for {
		for len(o.packets) > 0 {
			p := o.packets[0]
			o.packets = o.packets[1:]

			if len(p) == 0 || bytes.HasPrefix(p, []byte("OpusHead")) || bytes.HasPrefix(p, []byte("OpusTags")) {
				continue
			}
			return p, nil
		}

		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
}

func (o *OggReader) readPage() error {
	if _, err := io.ReadFull(o.r, o.header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrap(ErrInvalidPage, "truncated header")
		}
		return err
	}

	if !bytes.Equal(o.header[:4], capturePattern) {
		return errors.Wrap(ErrInvalidPage, "missing capture pattern")
	}
	if o.header[4] != 0 {
		return errors.Wrapf(ErrInvalidPage, "unsupported version %d", o.header[4])
	}

	continued := o.header[5]&0x01 != 0
	if !continued {
		// the previous page ended mid-packet without a continuation
		o.partial = nil
	}
	// the first packet on this page started before the stream did
	skip := continued && o.partial == nil

	n := int(o.header[26])
	lacing := o.lacing[:n]
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return errors.Wrap(ErrInvalidPage, "truncated segment table")
	}

	size := 0
	for _, l := range lacing {
		size += int(l)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(o.r, data); err != nil {
		return errors.Wrap(ErrInvalidPage, "truncated page data")
	}

	for _, l := range lacing {
		seg := data[:l]
		data = data[l:]

		if skip {
			skip = l == 255
			continue
		}

		o.partial = append(o.partial, seg...)

		// segments shorter than 255 bytes end a packet
		if l < 255 {
			o.packets = append(o.packets, o.partial)
			o.partial = nil
		}
	}
	return nil
}
