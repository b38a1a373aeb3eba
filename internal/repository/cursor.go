package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"zoskagram/internal/model"
)

// Compound cursor "id:unixmicro". Ids are UUIDs, so the last colon splits.

func formatCursor(id string, t time.Time) string {
	return fmt.Sprintf("%s:%d", id, t.UnixMicro())
}

func parseCursor(cursor string) (string, time.Time, error) {
	i := strings.LastIndex(cursor, ":")
	if i <= 0 || i == len(cursor)-1 {
		return "", time.Time{}, model.ErrInvalidCursor
	}
	ts, err := strconv.ParseInt(cursor[i+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, model.ErrInvalidCursor
	}
	return cursor[:i], time.UnixMicro(ts).UTC(), nil
}
