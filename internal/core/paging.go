package core

import "strconv"

// DefaultPageSize applies when a listing request leaves the page size unset.
const DefaultPageSize = 20

// ParseOffsetToken decodes an opaque offset page token.
func ParseOffsetToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}
	return offset, nil
}

// NextOffsetToken encodes the token for the page following offset.
func NextOffsetToken(offset, pageSize int) string {
	return strconv.Itoa(offset + pageSize)
}
