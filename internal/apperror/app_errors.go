package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrNoLegalMoves   = errors.New("no legal moves")
	ErrGameFinished   = errors.New("game is already finished")
	ErrConnectionLost = errors.New("connection lost")
	ErrResource       = errors.New("resource error")
	ErrNotFound       = errors.New("not found")
	ErrNotYourTurn    = errors.New("it's not your turn")

	ErrInvalidCell  = fmt.Errorf("%w: invalid cell index", ErrIllegalMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrIllegalMove)
)
