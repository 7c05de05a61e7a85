// Package protocol is the wire format shared by the game server and client.
//
// Every message is one little-endian signed 32-bit integer. The client sends a
// cell index 0..8. The server answers with its own cell index 0..8, or with a
// negative status code when it has no move to send.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
)

// MessageSize is the width of one message on the wire.
const MessageSize = 4

// Server status codes. Values 0..8 are moves.
const (
	ReplyGameOver    int32 = -1
	ReplyIllegalMove int32 = -2
)

var ErrUnexpectedEOF = errors.New("connection closed mid-message")

// IsMove - reports whether the value is a cell index rather than a status code.
func IsMove(value int32) bool {
	return value >= 0 && value <= 8
}

// ReadMessage - blocks until one full message arrives. A closed connection is ErrConnectionLost.
func ReadMessage(r io.Reader) (int32, error) {
	var buf [MessageSize]byte

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %w", apperror.ErrConnectionLost, ErrUnexpectedEOF)
		}
		return 0, fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// WriteMessage - writes one message in a single call.
func WriteMessage(w io.Writer, value int32) error {
	var buf [MessageSize]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(value))

	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	return nil
}
