package handler

import "strconv"

// itoa renders snowflake IDs as strings so JavaScript clients keep every digit.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
