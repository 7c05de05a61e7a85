package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/protocol"
)

var (
	ErrInputClosed    = errors.New("input closed")
	ErrBoardOutOfSync = errors.New("server move does not fit the local board")
)

// Controller plays one game against the server: it reads the operator's moves,
// mirrors both sides on a private board and stops as soon as the board is decided.
type Controller struct {
	conn   io.ReadWriter
	input  *bufio.Scanner
	out    io.Writer
	logger *slog.Logger

	board entity.Board
}

func NewController(conn io.ReadWriter, in io.Reader, out io.Writer, logger *slog.Logger) *Controller {
	input := bufio.NewScanner(in)
	input.Split(bufio.ScanWords)

	return &Controller{
		conn:   conn,
		input:  input,
		out:    out,
		logger: logger.With("component", "client"),
	}
}

// Dial - connects to the game server. Host may be a name, an IPv4 or an IPv6 address.
func Dial(ctx context.Context, host, port string) (net.Conn, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return conn, nil
}

// Board - the local mirror of the game.
func (that *Controller) Board() entity.Board {
	return that.board
}

// Run - plays until the game is decided and returns the final outcome. A server
// reply outside 0..8, a rejected move included, stops the game early with the
// outcome still in progress.
func (that *Controller) Run() (entity.Outcome, error) {
	log := that.logger.With("method", "Run")

	for {
		that.render()

		move, err := that.promptMove()
		if err != nil {
			return entity.OutcomeInProgress, err
		}

		if err = that.board.Apply(move, entity.PlayerA); err != nil {
			return entity.OutcomeInProgress, fmt.Errorf("failed to apply own move: %w", err)
		}

		// the server is not told about a move that ends the game
		if outcome := that.board.Evaluate(); outcome.IsTerminal() {
			that.finish(outcome)
			return outcome, nil
		}

		if err = protocol.WriteMessage(that.conn, int32(move)); err != nil {
			return entity.OutcomeInProgress, fmt.Errorf("failed to send move: %w", err)
		}

		reply, err := protocol.ReadMessage(that.conn)
		if err != nil {
			return entity.OutcomeInProgress, fmt.Errorf("failed to receive move: %w", err)
		}

		if !protocol.IsMove(reply) {
			if reply == protocol.ReplyIllegalMove {
				log.Warn("server rejected the move, stopping", "cell", move)
			} else {
				log.Warn("server sent no move, stopping", "value", reply)
			}

			return that.board.Evaluate(), nil
		}

		if err = that.board.Apply(entity.Move(reply), entity.PlayerB); err != nil {
			return entity.OutcomeInProgress, fmt.Errorf("%w: %w", ErrBoardOutOfSync, err)
		}

		fmt.Fprintf(that.out, "Server chose: %d\n", reply)

		if outcome := that.board.Evaluate(); outcome.IsTerminal() {
			that.finish(outcome)
			return outcome, nil
		}
	}
}

// promptMove - reads until the operator enters a free cell index.
func (that *Controller) promptMove() (entity.Move, error) {
	fmt.Fprintln(that.out, "Enter number: ")

	for that.input.Scan() {
		n, err := strconv.Atoi(that.input.Text())
		if err == nil && that.board.IsEmpty(entity.Move(n)) {
			return entity.Move(n), nil
		}

		fmt.Fprintln(that.out, "Invalid number!")
	}

	if err := that.input.Err(); err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}

	return 0, ErrInputClosed
}

func (that *Controller) finish(outcome entity.Outcome) {
	that.render()

	switch outcome {
	case entity.OutcomePlayerAWin:
		fmt.Fprintln(that.out, "You won!")
	case entity.OutcomePlayerBWin:
		fmt.Fprintln(that.out, "Server won!")
	case entity.OutcomeDraw:
		fmt.Fprintln(that.out, "Draw!")
	}
}

func (that *Controller) render() {
	fmt.Fprint(that.out, Render(that.board))
}

// glyphs - the operator plays O, the server X.
var glyphs = map[entity.Cell]string{
	entity.EmptyCell: " ",
	entity.PlayerA:   "O",
	entity.PlayerB:   "X",
}

// Render - draws the board with a blank line above and below.
func Render(board entity.Board) string {
	var sb strings.Builder

	sb.WriteString("\n")
	for row := range entity.BoardSize {
		if row > 0 {
			sb.WriteString("---|---|---\n")
		}

		cells := make([]string, 0, entity.BoardSize)
		for col := range entity.BoardSize {
			cells = append(cells, " "+glyphs[board[row*entity.BoardSize+col]]+" ")
		}

		sb.WriteString(strings.Join(cells, "|"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
